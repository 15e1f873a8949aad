package slash

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
)

//go:embed templates.yaml
var defaultTemplates []byte

var ErrUnknownTemplate = errors.New("unknown template")

// Template is a canned lesson snippet.
type Template struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	// Markdown content
	Content string `yaml:"content"`
}

// HTML returns the content converted for the editor.
func (t Template) HTML() string {
	return markdown.MarkdownToHTML(t.Content)
}

// Matches returns true when the title (or the ID) contains the filter, ignoring case.
func (t Template) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	return strings.Contains(strings.ToLower(t.Title), filter) || strings.Contains(t.ID, filter)
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() []Template {
	templates, err := ParseTemplates(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in templates: %v", err))
	}
	return templates
}

// ParseTemplates parses a YAML list of templates.
func ParseTemplates(content []byte) ([]Template, error) {
	var templates []Template
	if err := yaml.Unmarshal(content, &templates); err != nil {
		return nil, fmt.Errorf("invalid templates: %w", err)
	}
	seen := make(map[string]bool)
	for i, t := range templates {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("template #%d: missing id", i+1)
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("template %q: missing title", t.ID)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		seen[t.ID] = true
	}
	return templates, nil
}

// LoadTemplates reads a YAML list of templates.
func LoadTemplates(r io.Reader) ([]Template, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseTemplates(content)
}

// LoadTemplatesFile reads a YAML file of templates.
func LoadTemplatesFile(path string) ([]Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	templates, err := LoadTemplates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return templates, nil
}

// MergeTemplates appends extra templates to base ones. A template sharing an
// ID with a base template replaces it.
func MergeTemplates(base []Template, extra []Template) []Template {
	result := append([]Template(nil), base...)
	for _, t := range extra {
		replaced := false
		for i := range result {
			if result[i].ID == t.ID {
				result[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, t)
		}
	}
	return result
}
