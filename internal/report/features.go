package report

import (
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// Feature counts the records that satisfy a capability predicate.
type Feature struct {
	Value string `json:"value"`
	Link  string `json:"link,omitempty"`
	Count int    `json:"count"`
}

// FeatureSet is the OpenGL section of the report.
type FeatureSet struct {
	Features           []Feature `json:"features"`
	IndividualFeatures []Feature `json:"individualFeatures"`
	MaxTextureSize     []Group   `json:"maxTextureSize"`
}

const minBufferObjectsVersion = "3.1"

// openGLFeature is available when the driver reports at least minVersion or
// exposes any of caps as an extension.
type openGLFeature struct {
	name       string
	link       string
	minVersion string
	caps       []string
}

var openGLFeatures = []openGLFeature{
	{
		name:       "Texture Buffer Objects",
		link:       "https://www.khronos.org/opengl/wiki/Buffer_Texture",
		minVersion: minBufferObjectsVersion,
		caps:       []string{"ARB_texture_buffer_object", "EXT_texture_buffer_object"},
	},
	{
		name:       "Uniform Buffer Objects",
		link:       "https://www.khronos.org/opengl/wiki/Uniform_Buffer_Object",
		minVersion: minBufferObjectsVersion,
		caps:       []string{"ARB_uniform_buffer_object"},
	},
}

var capabilityLinks = []struct {
	name string
	link string
}{
	{"ARB_texture_buffer_object", "https://www.khronos.org/registry/OpenGL/extensions/ARB/ARB_texture_buffer_object.txt"},
	{"EXT_texture_buffer_object", "https://www.khronos.org/registry/OpenGL/extensions/EXT/EXT_texture_buffer_object.txt"},
	{"ARB_uniform_buffer_object", "http://www.opengl.org/registry/specs/ARB/uniform_buffer_object.txt"},
}

// HasCapability reports whether rec advertises the OpenGL capability name.
// Only the literal value "true" counts.
func HasCapability(rec stats.Record, name string) bool {
	return rec.Get(stats.CapabilityField(name)) == "true"
}

func (f openGLFeature) supportedBy(rec stats.Record) bool {
	if AtLeast(f.minVersion, SimplifyVersion(rec.Get(stats.FieldOpenGLVersion))) {
		return true
	}
	for _, c := range f.caps {
		if HasCapability(rec, c) {
			return true
		}
	}
	return false
}

// OpenGLVersions groups records by simplified OpenGL version.
func (e *Engine) OpenGLVersions(records []stats.Record) []Group {
	return e.Group(records, Field(stats.FieldOpenGLVersion), SimplifyVersion)
}

// Features computes the OpenGL feature summaries. versions must be the
// result of OpenGLVersions over the same records; the version-only row is
// summed from it rather than recounted.
func (e *Engine) Features(records []stats.Record, versions []Group) FeatureSet {
	set := FeatureSet{
		Features:           make([]Feature, 0, len(openGLFeatures)),
		IndividualFeatures: make([]Feature, 0, len(capabilityLinks)+1),
	}
	for _, f := range openGLFeatures {
		set.Features = append(set.Features, Feature{
			Value: f.name,
			Link:  f.link,
			Count: countWhere(records, f.supportedBy),
		})
	}

	atLeast := 0
	for _, v := range versions {
		if AtLeast(minBufferObjectsVersion, v.Value) {
			atLeast += v.Count
		}
	}
	set.IndividualFeatures = append(set.IndividualFeatures, Feature{
		Value: "OpenGL " + minBufferObjectsVersion,
		Count: atLeast,
	})
	for _, c := range capabilityLinks {
		name := c.name
		set.IndividualFeatures = append(set.IndividualFeatures, Feature{
			Value: name,
			Link:  c.link,
			Count: countWhere(records, func(rec stats.Record) bool { return HasCapability(rec, name) }),
		})
	}

	set.MaxTextureSize = e.MaxTextureSizes(records)
	return set
}

// MaxTextureSizes groups records by gl_max_texture_size, ordered numerically.
func (e *Engine) MaxTextureSizes(records []stats.Record) []Group {
	groups := e.Group(records, Field(stats.FieldMaxTextureSize), nil)
	e.sortByInt(groups)
	return groups
}
