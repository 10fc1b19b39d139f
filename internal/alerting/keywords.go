package alerting

import "strings"

// DangerScanner is a pure, data-driven predicate over scene and activity
// text. It is independent of any task query: safety overrides everything,
// so a hit escalates straight to immediate-critical.
type DangerScanner struct {
	keywords []string
}

// NewDangerScanner builds a scanner over the given keyword list. Keywords
// are matched case-insensitively as substrings.
func NewDangerScanner(keywords []string) *DangerScanner {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &DangerScanner{keywords: lowered}
}

// Scan returns the first matching keyword found in any of the given
// texts, or "" if none match.
func (s *DangerScanner) Scan(texts ...string) string {
	for _, text := range texts {
		if text == "" {
			continue
		}
		lowered := strings.ToLower(text)
		for _, k := range s.keywords {
			if strings.Contains(lowered, k) {
				return k
			}
		}
	}
	return ""
}
