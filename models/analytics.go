package models

import "time"

// Observation is the tuple handed to the ingestion pipeline once per served
// request. RemoteAddr is the raw client address; it is hashed before
// anything touches the database and is never persisted.
type Observation struct {
	RemoteAddr string
	Path       string
	UserAgent  string
	Method     string
	Status     int
	ObservedAt int64 // epoch milliseconds
}

// Path is one tracked URL path with its aggregate counters. The counters
// are derived caches over the requests table: total_requests counts every
// recorded request for the path, unique_visitors counts distinct visitors.
type Path struct {
	ID             int64  `db:"path_id" json:"pathId"`
	Path           string `db:"path" json:"path"`
	UniqueVisitors int64  `db:"unique_visitors" json:"uniqueVisitors"`
	TotalRequests  int64  `db:"total_requests" json:"totalRequests"`
}

// PathPage is one page of the paths listing, ordered by total requests
// descending.
type PathPage struct {
	Rows       []Path `json:"rows"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}

// GraphBucket is one fixed-width slice of a traffic graph. The bucket
// covers (BucketStart, BucketEnd] in epoch milliseconds.
type GraphBucket struct {
	Count       int64 `json:"count"`
	BucketStart int64 `json:"bucketStart"`
	BucketEnd   int64 `json:"bucketEnd"`
}

// GraphPreset names a supported bucket width for the graph endpoint.
type GraphPreset struct {
	Name        string
	BucketWidth time.Duration
	BucketCount int
}

var (
	PresetHalfHour = GraphPreset{Name: "halfhour", BucketWidth: 30 * time.Minute, BucketCount: 20}
	PresetDay      = GraphPreset{Name: "day", BucketWidth: 24 * time.Hour, BucketCount: 20}
	PresetMonth    = GraphPreset{Name: "month", BucketWidth: 30 * 24 * time.Hour, BucketCount: 20}
)

// GraphPresets lists the supported presets in menu order.
var GraphPresets = []GraphPreset{PresetHalfHour, PresetDay, PresetMonth}

// LoginRequest is the admin login body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}
