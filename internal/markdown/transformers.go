package markdown

import (
	"regexp"
	"strings"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// Transformer applies changes on a Markdown document
type Transformer func(document Document) (Document, error)

// Transform applies transformers successively to create a new Markdown document
func (m Document) Transform(transformers ...Transformer) (Document, error) {
	result := m
	for _, transformer := range transformers {
		resultTransformed, err := transformer(result)
		if err != nil {
			return m, err
		}
		result = resultTransformed
	}
	return result, nil
}

// MustTransform is similar to Transform but does not expect an error
func (m Document) MustTransform(transformers ...Transformer) Document {
	result, err := m.Transform(transformers...)
	if err != nil {
		panic(err)
	}
	return result
}

/*
 * Transformers
 */

var (
	reHTMLComment       = regexp.MustCompile(`(?s)<!--.*?-->`)
	reBoldAsterisks     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscores   = regexp.MustCompile(`__(.+?)__`)
	reItalicAsterisks   = regexp.MustCompile(`\*([^*\s][^*]*?)\*`)
	reItalicUnderscores = regexp.MustCompile(`\b_([^_]+?)_\b`)
	reStrikethrough     = regexp.MustCompile(`~~(.+?)~~`)
	reInlineCode        = regexp.MustCompile("`([^`]+?)`")
)

// ReplaceCharacters is a Markdown transformer to replace character sequences inside a document.
// Code blocks and inline code are left untouched.
func ReplaceCharacters(characterReplacements map[string]string) Transformer {
	return func(document Document) (Document, error) {
		var newLines []string

		insideCodeBlock := false
		for _, line := range document.Lines() {
			if strings.HasPrefix(line, "```") {
				insideCodeBlock = !insideCodeBlock
				newLines = append(newLines, line)
				continue
			}
			if insideCodeBlock {
				newLines = append(newLines, line)
				continue
			}

			// Do not substitute inside `code` block
			parts := strings.Split(line, "`")
			for i, part := range parts {
				if i%2 == 0 {
					for character, replacement := range characterReplacements {
						part = strings.ReplaceAll(part, character, replacement)
					}
					parts[i] = part
				}
			}
			newLines = append(newLines, strings.Join(parts, "`"))
		}

		return Document(strings.Join(newLines, "\n")), nil
	}
}

// StripHTMLComments transforms a Markdown document to remove HTML comments
func StripHTMLComments() Transformer {
	return func(document Document) (Document, error) {
		return Document(reHTMLComment.ReplaceAllString(string(document), "")), nil
	}
}

// CollapseNewlines replaces 3 or more successive newlines by exactly 2.
func CollapseNewlines() Transformer {
	return func(document Document) (Document, error) {
		return Document(text.CollapseNewlines(string(document))), nil
	}
}

// StripEmphasis remove Markdown emphasis characters.
func StripEmphasis() Transformer {
	return func(document Document) (Document, error) {
		md := string(document)
		md = reBoldAsterisks.ReplaceAllString(md, "$1")
		md = reBoldUnderscores.ReplaceAllString(md, "$1")
		md = reItalicAsterisks.ReplaceAllString(md, "$1")
		md = reItalicUnderscores.ReplaceAllString(md, "$1")
		md = reStrikethrough.ReplaceAllString(md, "$1")
		md = reInlineCode.ReplaceAllString(md, "$1")
		return Document(md), nil
	}
}

// FromHTML is a transformer considering the document as HTML and converting it to Markdown.
func FromHTML() Transformer {
	return func(document Document) (Document, error) {
		return Document(HTMLToMarkdown(string(document))), nil
	}
}
