package markdown

import (
	"bytes"
	"strings"
)

// CodeBlock represents a code block inside a Markdown document
type CodeBlock struct {
	Line     int
	Language string
	Source   string
}

// ExtractCodeBlocks extracts all code blocks present in a Markdown document
func (m Document) ExtractCodeBlocks() []*CodeBlock {
	var results []*CodeBlock

	insideCodeBlock := false
	var currentSource bytes.Buffer
	var currentLine int
	var currentLanguage string

	md := string(m)
	for i, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "```") {
			if !insideCodeBlock {
				// start of code block
				currentLine = i + 1 // lines start at 1
				currentLanguage = strings.TrimPrefix(line, "```")
				index := strings.Index(currentLanguage, " ")
				if index > -1 {
					currentLanguage = currentLanguage[:index]
				}
				insideCodeBlock = true
			} else {
				// end of code block
				results = append(results, &CodeBlock{
					Line:     currentLine,
					Source:   currentSource.String(),
					Language: currentLanguage,
				})
				insideCodeBlock = false
				currentSource.Reset()
				currentLine = 0
				currentLanguage = ""
			}
		} else if insideCodeBlock {
			currentSource.WriteString(line)
			currentSource.WriteRune('\n')
		}
	}

	return results
}

// StripCodeBlocks replaces the lines of fenced code blocks by blank lines.
// Line numbers are preserved.
func StripCodeBlocks() Transformer {
	return func(document Document) (Document, error) {
		lines := document.Lines()
		insideCodeBlock := false
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				insideCodeBlock = !insideCodeBlock
				lines[i] = ""
				continue
			}
			if insideCodeBlock {
				lines[i] = ""
			}
		}
		return Document(strings.Join(lines, "\n")), nil
	}
}
