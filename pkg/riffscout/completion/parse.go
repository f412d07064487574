package completion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
)

// rawBundle mirrors models.ResourceBundle with pointer slices so a missing
// key can be told apart from an empty array.
type rawBundle struct {
	Tabs         *[]models.Tab      `json:"tabs"`
	GuitarproURL *string            `json:"guitarproUrl"`
	Tutorials    *[]models.Tutorial `json:"tutorials"`
}

// ParseBundle is the second decoding stage: it decodes the completion text
// into a ResourceBundle and checks its shape. Every failure wraps
// apperr.ErrMalformedPayload.
func ParseBundle(content string) (*models.ResourceBundle, error) {
	text := extractJSON(content)
	if text == "" {
		return nil, fmt.Errorf("%w: completion contains no JSON object", apperr.ErrMalformedPayload)
	}

	var raw rawBundle
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedPayload, err)
	}
	if raw.Tabs == nil {
		return nil, fmt.Errorf("%w: missing tabs", apperr.ErrMalformedPayload)
	}
	if raw.Tutorials == nil {
		return nil, fmt.Errorf("%w: missing tutorials", apperr.ErrMalformedPayload)
	}

	bundle := &models.ResourceBundle{
		Tabs:      *raw.Tabs,
		Tutorials: *raw.Tutorials,
	}
	for i := range bundle.Tabs {
		tab := &bundle.Tabs[i]
		if strings.TrimSpace(tab.URL) == "" {
			return nil, fmt.Errorf("%w: tab %d has no url", apperr.ErrMalformedPayload, i)
		}
		tab.Difficulty = strings.ToLower(strings.TrimSpace(tab.Difficulty))
		if tab.Difficulty != "" && !models.IsDifficulty(tab.Difficulty) {
			return nil, fmt.Errorf("%w: tab %d has unknown difficulty %q", apperr.ErrMalformedPayload, i, tab.Difficulty)
		}
	}
	for i, tut := range bundle.Tutorials {
		if strings.TrimSpace(tut.URL) == "" {
			return nil, fmt.Errorf("%w: tutorial %d has no url", apperr.ErrMalformedPayload, i)
		}
	}
	if raw.GuitarproURL != nil && strings.TrimSpace(*raw.GuitarproURL) != "" {
		u := strings.TrimSpace(*raw.GuitarproURL)
		bundle.GuitarproURL = &u
	}

	return bundle, nil
}

// extractJSON strips Markdown code fences and any prose around the outer
// JSON object.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:] // drop the language tag line
		}
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
