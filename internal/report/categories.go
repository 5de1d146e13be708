package report

import (
	"strings"

	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

const aarch64Link = "https://i.lemmmy.pw/oE9n.jpg"

// OSList groups records by operating system name.
func (e *Engine) OSList(records []stats.Record) []Group {
	return e.Group(records, Field(stats.FieldOSName), nil)
}

// NormalizeArch maps JVM architecture names onto the names shown in the
// report. Only x86_64 has an alias today.
func NormalizeArch(arch string) string {
	if arch == "x86_64" {
		return "amd64"
	}
	return arch
}

// OSArches groups records by architecture.
func (e *Engine) OSArches(records []stats.Record) []Group {
	groups := e.Group(records, Field(stats.FieldOSArchitecture), NormalizeArch)
	for i := range groups {
		if groups[i].Value == "aarch64" {
			groups[i].Link = aarch64Link
		}
	}
	return groups
}

type modCheck struct {
	name    string
	present func(stats.Record) bool
}

func hasField(field string) func(stats.Record) bool {
	return func(rec stats.Record) bool {
		return rec.Get(field) != ""
	}
}

var modChecks = []modCheck{
	{name: "OptiFine", present: hasField(stats.FieldOptiFineVersion)},
	{name: "FoamFix", present: hasField(stats.FieldFoamFixVersion)},
	{name: "MultiMC", present: func(rec stats.Record) bool {
		return strings.HasPrefix(rec.Get(stats.FieldLaunchedVersion), "MultiMC")
	}},
}

// ModList counts records per detected mod or launcher.
func ModList(records []stats.Record) []Group {
	out := make([]Group, 0, len(modChecks))
	for _, m := range modChecks {
		out = append(out, Group{Value: m.name, Count: countWhere(records, m.present)})
	}
	return out
}
