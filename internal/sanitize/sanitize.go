package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 5

// Text returns the plain text of user input. Entities are decoded before
// sanitizing, so encoded tags such as "&lt;b&gt;" are stripped as well,
// and decoded again afterwards because templates and JSON escape on output.
// A lone "<" that is not part of a tag survives as text.
func Text(s string) string {
	for i := 0; i < maxPasses; i++ {
		out := html.UnescapeString(policy.Sanitize(html.UnescapeString(s)))
		if out == s {
			break
		}
		s = out
	}
	return strings.TrimSpace(s)
}
