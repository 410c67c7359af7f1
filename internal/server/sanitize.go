package server

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Sanitizer interface {
	Sanitize(s string) string
}

// HTMLSanitizer strips every tag from its input and trims surrounding
// whitespace. It is safe for concurrent use.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

func NewHTMLSanitizer() *HTMLSanitizer {
	return &HTMLSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

func (h *HTMLSanitizer) Sanitize(s string) string {
	return strings.TrimSpace(h.policy.Sanitize(s))
}
