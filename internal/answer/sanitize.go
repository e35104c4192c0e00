package answer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var bodyPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from an answer body and trims surrounding
// whitespace. A body made only of disallowed markup sanitizes to "".
func Sanitize(body string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(body))
}
