package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Regex to match links
const regexLinkRaw = `\[(.*?)\][(](\S*)?(?:\s+"(.*?)")?[)]`

var regexLink = regexp.MustCompile(`(?:^|[^!])` + regexLinkRaw) // Golang doesn't support negative lookbehind
var regexEmbeddedLink = regexp.MustCompile(`!` + regexLinkRaw)

// Link is a Markdown link (or image when embedded) found in a lesson.
type Link struct {
	Text  string
	URL   string
	Title string
	Line  int
}

// External returns true when the link targets another site.
func (l Link) External() bool {
	return strings.HasPrefix(l.URL, "http://") || strings.HasPrefix(l.URL, "https://")
}

// Blank returns true for links without a target, usually left by an
// incomplete edit or a generated placeholder.
func (l Link) Blank() bool {
	return strings.TrimSpace(l.URL) == "" || l.URL == "#"
}

func (l Link) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`[%s](%s`, l.Text, l.URL))
	if l.Title != "" {
		sb.WriteString(fmt.Sprintf(` "%s"`, l.Title))
	}
	sb.WriteString(")")
	return sb.String()
}

/*
 * Document
 */

// Links returns the links present in the document (images excluded).
func (m Document) Links() []Link {
	return m.extractLinks(regexLink)
}

// Images returns the images present in the document.
func (m Document) Images() []Link {
	return m.extractLinks(regexEmbeddedLink)
}

func (m Document) extractLinks(r *regexp.Regexp) []Link {
	var results []Link

	// Ignore links inside code blocks (ex: a sample Markdown code block)
	text := m.MustTransform(StripCodeBlocks()).String()

	matches := r.FindAllStringSubmatchIndex(text, -1)
	for _, match := range matches {
		linkText := text[match[2]:match[3]]
		linkURL := ""
		if match[4] != -1 {
			linkURL = text[match[4]:match[5]]
		}
		linkTitle := ""
		if match[6] != -1 {
			linkTitle = text[match[6]:match[7]]
		}
		linkLine := len(strings.Split(text[:match[0]+1], "\n")) // Add +1 as the regex matches the previous character

		results = append(results, Link{
			Text:  linkText,
			URL:   linkURL,
			Title: linkTitle,
			Line:  linkLine,
		})
	}

	return results
}
