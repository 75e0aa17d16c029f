package templates

import (
	"io"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"

	"tokenbook/internal/apperr"
)

const (
	openTag  = "{{"
	closeTag = "}}"
)

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// scan walks text with the same tokenizer Render substitutes with and
// returns the placeholder names in order of first appearance. Every "{{"
// must open a well-formed {{name}} placeholder.
func scan(text string) ([]string, error) {
	seen := map[string]bool{}
	vars := []string{}
	var malformed []string
	tags := 0

	_, err := fasttemplate.ExecuteFunc(text, openTag, closeTag, io.Discard, func(w io.Writer, tag string) (int, error) {
		tags++
		name := strings.TrimSpace(tag)
		if !varName.MatchString(name) {
			malformed = append(malformed, openTag+tag+closeTag)
			return 0, nil
		}
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}

	if strings.Count(text, openTag) > tags {
		malformed = append(malformed, "unclosed "+openTag)
	}
	if len(malformed) > 0 {
		return nil, apperr.Validation(map[string]string{
			"templateText": "malformed placeholder: " + strings.Join(malformed, ", "),
		})
	}
	return vars, nil
}

// ExtractVariables returns placeholder names in order of first appearance,
// or a VALIDATION error when the text has a malformed placeholder.
func ExtractVariables(text string) ([]string, error) {
	return scan(text)
}

// Render substitutes every placeholder. Any variable without a value fails
// the whole render with MISSING_VARIABLES naming each one.
func Render(text string, values map[string]string) (string, error) {
	vars, err := scan(text)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range vars {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", apperr.ErrMissingVariables.
			WithMessage("Missing template variables: %s", strings.Join(missing, ", ")).
			WithDetail("variables", strings.Join(missing, ","))
	}

	return fasttemplate.ExecuteFuncStringWithErr(text, openTag, closeTag, func(w io.Writer, tag string) (int, error) {
		return io.WriteString(w, values[strings.TrimSpace(tag)])
	})
}
