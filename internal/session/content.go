package session

import (
	"context"
	"fmt"

	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/normalize"
	"github.com/julien-sobczak/the-lessonwriter/internal/remote"
	pkgmarkdown "github.com/julien-sobczak/the-lessonwriter/pkg/markdown"
)

// Generator produces lesson text from a prompt (ex: an AI provider).
// Retries are the responsibility of the implementation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Generate replaces the document with the normalized output of the generator.
// The returned string is the normalized Markdown.
func (s *Session) Generate(ctx context.Context, generator Generator, prompt string) (string, error) {
	raw, err := generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("unable to generate lesson: %w", err)
	}
	md := normalize.Normalize(raw)
	html := markdown.Document(md).MustTransform(markdown.ToHTML())
	if err := s.SetContent(html.String()); err != nil {
		return "", err
	}
	logging.CurrentLogger().Info("Generated lesson", "lesson", s.lessonID, "length", len(md))
	return md, nil
}

// Load replaces the document with the content of a source.
// Markdown content looking like raw generated text is normalized first.
func (s *Session) Load(ctx context.Context, loader *remote.Loader, source remote.Source) error {
	md, err := loader.Load(ctx, source)
	if err != nil {
		return err
	}
	if normalize.NeedsNormalization(md) {
		logging.CurrentLogger().Debug("Normalizing loaded content", "lesson", s.lessonID)
		md = normalize.Normalize(md)
	}
	return s.SetContent(markdown.Document(md).MustTransform(markdown.ToHTML()).String())
}

// Outline returns the headings of the document.
func (s *Session) Outline() []pkgmarkdown.Heading {
	return pkgmarkdown.Outline(s.Markdown())
}

// Preview returns the sanitized HTML rendering of the document.
func (s *Session) Preview() (string, error) {
	html, err := s.exportHTML()
	if err != nil {
		return "", err
	}
	md := markdown.Document(html).MustTransform(markdown.FromHTML())
	return pkgmarkdown.ToHTML(md.String()), nil
}
