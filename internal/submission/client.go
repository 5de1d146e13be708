package submission

import (
	"regexp"
)

// ClientMatcher accepts the User-Agent sent by the survey mod:
// SCHWS/<minecraft version>/<mod version>.
type ClientMatcher struct {
	re *regexp.Regexp
}

func NewClientMatcher(mcVersion, modVersion string) *ClientMatcher {
	return &ClientMatcher{
		re: regexp.MustCompile(`^SCHWS/` + regexp.QuoteMeta(mcVersion) + `/` + regexp.QuoteMeta(modVersion) + `$`),
	}
}

func (m *ClientMatcher) Match(userAgent string) bool {
	return userAgent != "" && m.re.MatchString(userAgent)
}
