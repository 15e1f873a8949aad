// Package course defines the course structure owned by the hosting
// application. Only the content of a single lesson is edited.
package course

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/remote"
)

type Course struct {
	ID      string    `yaml:"id"`
	Title   string    `yaml:"title"`
	Modules []*Module `yaml:"modules"`
}

type Module struct {
	Title   string    `yaml:"title"`
	Lessons []*Lesson `yaml:"lessons"`
}

type Lesson struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Content         string `yaml:"content,omitempty"` // HTML
	MarkdownContent string `yaml:"markdown_content,omitempty"`
	Duration        string `yaml:"duration,omitempty"`
	ContentRef      string `yaml:"content_ref,omitempty"` // fs:// or s3:// reference
}

// Source returns where the lesson content comes from.
// A reference takes precedence over inline Markdown.
func (l *Lesson) Source() remote.Source {
	if l.ContentRef != "" {
		return remote.Source(l.ContentRef)
	}
	return remote.Source(l.MarkdownContent)
}

// LessonID derives a stable identifier from a lesson title.
func LessonID(courseID string, title string) string {
	return markdown.Slug(courseID, title)
}

// Lessons returns all lessons in order.
func (c *Course) Lessons() []*Lesson {
	var result []*Lesson
	for _, module := range c.Modules {
		result = append(result, module.Lessons...)
	}
	return result
}

// FindLesson searches a lesson by ID.
func (c *Course) FindLesson(id string) (*Lesson, bool) {
	for _, lesson := range c.Lessons() {
		if lesson.ID == id {
			return lesson, true
		}
	}
	return nil, false
}

// Parse reads a course definition in YAML.
// Missing lesson IDs are derived from the titles.
func Parse(r io.Reader) (*Course, error) {
	var c Course
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid course: %w", err)
	}
	if c.ID == "" {
		c.ID = markdown.Slug(c.Title)
	}
	seen := make(map[string]bool)
	for _, lesson := range c.Lessons() {
		if lesson.ID == "" {
			lesson.ID = LessonID(c.ID, lesson.Title)
		}
		if seen[lesson.ID] {
			return nil, fmt.Errorf("invalid course: duplicate lesson %q", lesson.ID)
		}
		seen[lesson.ID] = true
	}
	return &c, nil
}

// ParseFile reads a course definition from a YAML file.
func ParseFile(path string) (*Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
