// Package moderation classifies chat text against a static vocabulary of
// contact-exchange, off-platform payment and lodging terms. Classification
// never blocks delivery; it only marks a message for staff review.
package moderation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Result struct {
	Flagged      bool     `json:"flagged"`
	Reason       string   `json:"reason,omitempty"`
	Category     Category `json:"category,omitempty"`
	MatchedTerms []string `json:"matchedTerms,omitempty"`
}

type term struct {
	text     string
	category Category
}

// Filter is immutable after construction and safe for concurrent use.
type Filter struct {
	version string
	terms   []term
}

func NewFilter(v Vocabulary) *Filter {
	f := &Filter{version: v.Version}
	seen := make(map[string]bool)
	for _, cat := range categoryOrder {
		for _, t := range v.Terms[cat] {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			f.terms = append(f.terms, term{text: t, category: cat})
		}
	}
	return f
}

func (f *Filter) Version() string {
	return f.version
}

// Check flags text containing any vocabulary term as a substring of its
// lowercased form. Category is the category of the first matched term.
func (f *Filter) Check(text string) Result {
	lower := strings.ToLower(text)

	var res Result
	for _, t := range f.terms {
		if !strings.Contains(lower, t.text) {
			continue
		}
		if !res.Flagged {
			res.Flagged = true
			res.Category = t.category
		}
		res.MatchedTerms = append(res.MatchedTerms, t.text)
	}
	if res.Flagged {
		res.Reason = fmt.Sprintf("%s: %s", res.Category, strings.Join(res.MatchedTerms, ", "))
	}
	return res
}

// LoadVocabulary reads a YAML vocabulary file. Categories missing from the
// file keep their built-in terms.
func LoadVocabulary(path string) (Vocabulary, error) {
	v := DefaultVocabulary()
	if path == "" {
		return v, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	if override.Version == "" {
		return Vocabulary{}, fmt.Errorf("vocabulary %s: version is required", path)
	}

	v.Version = override.Version
	for cat, terms := range override.Terms {
		if !knownCategory(cat) {
			return Vocabulary{}, fmt.Errorf("vocabulary %s: unknown category %q", path, cat)
		}
		v.Terms[cat] = terms
	}
	return v, nil
}

func knownCategory(c Category) bool {
	for _, k := range categoryOrder {
		if k == c {
			return true
		}
	}
	return false
}
