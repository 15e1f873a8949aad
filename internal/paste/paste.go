package paste

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

var (
	// Attributes and whitespace are tolerated (ex: "< SCRIPT type=...>")
	reScriptTag = regexp.MustCompile(`(?i)<\s*script\b`)
	// "•" may be directly followed by the text, "*" requires a space to not match emphasis
	reBulletLine = regexp.MustCompile(`^[ \t]*(?:•[ \t]*|\*[ \t]+)(.*)$`)
)

// Kind determines how the caller inserts the sanitized content.
type Kind int

const (
	// Rich content is inserted unmodified
	KindDefault Kind = iota
	// Content must be inserted as plain text
	KindLiteralText
	// Content is Markdown text whose bullets have been normalized
	KindNormalizedText
)

func (k Kind) String() string {
	switch k {
	case KindLiteralText:
		return "literal"
	case KindNormalizedText:
		return "normalized"
	default:
		return "default"
	}
}

// Payload is the clipboard content.
type Payload struct {
	HTML string
	Text string
}

// IsEmpty returns true when the clipboard contains nothing.
func (p Payload) IsEmpty() bool {
	return p.HTML == "" && p.Text == ""
}

// Result is the sanitized clipboard content.
type Result struct {
	Kind    Kind
	Content string
}

// Sanitize inspects a clipboard payload. Exactly one rule applies:
// scripts are stripped and the remaining text is returned as literal text,
// bullet lines are rewritten as Markdown list items, or the payload is
// returned unmodified.
func Sanitize(payload Payload) Result {
	if reScriptTag.MatchString(payload.HTML) {
		return Result{
			Kind:    KindLiteralText,
			Content: StripScripts(payload.HTML),
		}
	}

	if HasBullets(payload.Text) {
		return Result{
			Kind:    KindNormalizedText,
			Content: Bulletify(payload.Text),
		}
	}

	content := payload.HTML
	if content == "" {
		content = payload.Text
	}
	return Result{
		Kind:    KindDefault,
		Content: content,
	}
}

// HasBullets returns true when at least one line starts with a bullet character.
func HasBullets(txt string) bool {
	for _, line := range strings.Split(text.NormalizeLineEndings(txt), "\n") {
		if reBulletLine.MatchString(line) {
			return true
		}
	}
	return false
}

// Bulletify rewrites lines starting with a bullet character as Markdown list items.
func Bulletify(txt string) string {
	lines := strings.Split(text.NormalizeLineEndings(txt), "\n")
	for i, line := range lines {
		if match := reBulletLine.FindStringSubmatch(line); match != nil {
			lines[i] = "- " + match[1]
		}
	}
	return strings.Join(lines, "\n")
}

// StripScripts removes script elements (content included) and returns the
// visible text of the remaining HTML. Blocks are separated by newlines.
func StripScripts(src string) string {
	var sb strings.Builder

	z := html.NewTokenizer(strings.NewReader(src))
	skipping := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				logging.CurrentLogger().Debug("Unexpected error while tokenizing pasted HTML", "err", z.Err())
			}
			break
		}

		token := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if token.DataAtom == atom.Script {
				// The tokenizer reads script content as raw text until </script>
				skipping = tt == html.StartTagToken
				continue
			}
			if token.DataAtom == atom.Br {
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			if token.DataAtom == atom.Script {
				skipping = false
				continue
			}
			if isBlockTag(token.DataAtom) {
				sb.WriteString("\n")
			}
		case html.TextToken:
			if !skipping {
				sb.WriteString(token.Data)
			}
		}
	}

	content := text.CollapseNewlines(sb.String())
	// Never leave an opening script tag in the text, even unclosed
	content = reScriptTag.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

func isBlockTag(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Tr, atom.Section, atom.Article:
		return true
	}
	return false
}

// Target is the editor receiving pasted content.
type Target interface {
	Exec(ctx context.Context, cmd editor.Command) error
}

// Apply sanitizes the payload and inserts the result as a single mutation.
func Apply(ctx context.Context, target Target, payload Payload) (Result, error) {
	result := Sanitize(payload)
	logging.CurrentLogger().Debug("Paste sanitized", "kind", result.Kind.String(), "length", len(result.Content))

	if payload.IsEmpty() {
		return result, nil
	}

	var fragment editor.Fragment
	switch result.Kind {
	case KindLiteralText:
		fragment = editor.TextFragment(result.Content)
	case KindNormalizedText:
		fragment = editor.HTMLFragment(markdown.MarkdownToHTML(result.Content))
	default:
		if payload.HTML != "" {
			fragment = editor.HTMLFragment(payload.HTML)
		} else {
			fragment = editor.TextFragment(payload.Text)
		}
	}
	if fragment.IsEmpty() {
		return result, nil
	}

	if err := target.Exec(ctx, editor.InsertContent{Fragment: fragment}); err != nil {
		return result, err
	}
	return result, nil
}
