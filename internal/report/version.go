package report

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

// Unknown is the group key for values that are missing or cannot be classified.
const Unknown = "unknown"

var openGLVersion = regexp.MustCompile(`^(\d+\.\d+)`)

// SimplifyVersion reduces a driver version string such as
// "4.6.0 NVIDIA 535.54.03" to its major.minor prefix.
func SimplifyVersion(raw string) string {
	m := openGLVersion.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Unknown
	}
	return m[1]
}

// AtLeast reports whether the simplified version v is min or newer.
// Components compare numerically, so "3.10" is newer than "3.2".
// Unknown versions never qualify.
func AtLeast(min, v string) bool {
	want, err := version.NewVersion(min)
	if err != nil {
		return false
	}
	got, err := version.NewVersion(v)
	if err != nil {
		return false
	}
	return got.GreaterThanOrEqual(want)
}
