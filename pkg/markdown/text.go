package markdown

import (
	"html"
	"math"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// Average reading speed used to estimate durations
const wordsPerMinute = 200

var stripTagsPolicy = bluemonday.StrictPolicy()

// ToText returns the plain text of a Markdown document.
func ToText(md string) string {
	rendered := ToHTML(md)
	// Preserve block boundaries before removing tags
	for _, tag := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>", "</li>", "</pre>", "<br>", "<br/>"} {
		rendered = strings.ReplaceAll(rendered, tag, tag+"\n")
	}
	txt := html.UnescapeString(stripTagsPolicy.Sanitize(rendered))

	var lines []string
	for _, line := range strings.Split(txt, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.TrimSpace(text.SquashBlankLines(strings.Join(lines, "\n")))
}

// WordCount returns the number of words of a Markdown document.
func WordCount(md string) int {
	return len(strings.FieldsFunc(ToText(md), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) && r != '\'' && r != '-'
	}))
}

// ReadingTime estimates the number of minutes to read a Markdown document.
func ReadingTime(md string) int {
	words := WordCount(md)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}
