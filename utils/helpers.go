package utils

import "ivytime/site/models"

// PresetByName resolves a graph preset query parameter.
func PresetByName(name string) (models.GraphPreset, bool) {
	for _, p := range models.GraphPresets {
		if p.Name == name {
			return p, true
		}
	}
	return models.GraphPreset{}, false
}
