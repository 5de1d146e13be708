package report

import (
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// Report is the view model of the statistics page.
type Report struct {
	Count          int        `json:"count"`
	OpenGLVersions []Group    `json:"openGLVersions"`
	Features       FeatureSet `json:"features"`
	OSList         []Group    `json:"osList"`
	OSArches       []Group    `json:"osArches"`
	ModList        []Group    `json:"modList"`
}

// Assemble builds the report for records.
func Assemble(records []stats.Record) *Report {
	e := NewEngine()
	versions := e.OpenGLVersions(records)
	return &Report{
		Count:          len(records),
		OpenGLVersions: versions,
		Features:       e.Features(records, versions),
		OSList:         e.OSList(records),
		OSArches:       e.OSArches(records),
		ModList:        ModList(records),
	}
}
