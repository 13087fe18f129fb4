package models

import "strings"

// Method is the closed set of HTTP verbs we record. Requests arriving with
// anything else are still recorded, under MethodInvalid.
type Method uint8

const (
	MethodGET Method = iota + 1
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodCONNECT
	MethodOPTIONS
	MethodTRACE
	MethodPATCH
	MethodInvalid
)

var methodNames = map[Method]string{
	MethodGET:     "GET",
	MethodHEAD:    "HEAD",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodCONNECT: "CONNECT",
	MethodOPTIONS: "OPTIONS",
	MethodTRACE:   "TRACE",
	MethodPATCH:   "PATCH",
	MethodInvalid: "INVALID",
}

var methodsByName = map[string]Method{
	"GET":     MethodGET,
	"HEAD":    MethodHEAD,
	"POST":    MethodPOST,
	"PUT":     MethodPUT,
	"DELETE":  MethodDELETE,
	"CONNECT": MethodCONNECT,
	"OPTIONS": MethodOPTIONS,
	"TRACE":   MethodTRACE,
	"PATCH":   MethodPATCH,
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "INVALID"
}

// Int returns the small-integer encoding stored in the requests table.
func (m Method) Int() uint8 {
	if m < MethodGET || m > MethodInvalid {
		return uint8(MethodInvalid)
	}
	return uint8(m)
}

// MethodFromInt decodes the stored integer form. Values outside the known
// range decode as MethodInvalid.
func MethodFromInt(v uint8) Method {
	m := Method(v)
	if m < MethodGET || m > MethodInvalid {
		return MethodInvalid
	}
	return m
}

// MethodFromText normalizes free-text method names. Unrecognized text maps
// to MethodInvalid rather than failing, so malformed requests still get
// recorded.
func MethodFromText(text string) Method {
	if m, ok := methodsByName[strings.ToUpper(strings.TrimSpace(text))]; ok {
		return m
	}
	return MethodInvalid
}
