package widgettests

import (
	"fmt"
	"regexp"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

// StringMatchesPattern is a matcher for a string that matches a regular expression anywhere.
func StringMatchesPattern(pattern string) m.Matcher {
	re := regexp.MustCompile(pattern)
	return m.New(
		func(value interface{}) bool {
			s, ok := value.(string)
			return ok && re.MatchString(s)
		},
		func() string {
			return fmt.Sprintf("matches /%s/", pattern)
		},
		func(value interface{}) string {
			return fmt.Sprintf("%q does not match /%s/", value, pattern)
		},
	)
}

// TimeLeftIsClockFormat is a matcher for a running countdown display: two-digit minutes and
// seconds separated by a colon.
func TimeLeftIsClockFormat() m.Matcher {
	return StringMatchesPattern(`^\d{2}:\d{2}$`)
}
