package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// DefaultTitle is used when no title can be found.
const DefaultTitle = "Untitled Lesson"

// Section is a recognized part of a lesson.
type Section int

const (
	SectionObjectives Section = iota
	SectionContent
	SectionActivity
	SectionCheck
)

// Heading returns the Markdown heading text of the section.
func (s Section) Heading() string {
	switch s {
	case SectionObjectives:
		return "Learning Objectives"
	case SectionContent:
		return "Lesson Content"
	case SectionActivity:
		return "Practice Activity"
	case SectionCheck:
		return "Knowledge Check"
	}
	return ""
}

// Sections in output order
var allSections = []Section{SectionObjectives, SectionContent, SectionActivity, SectionCheck}

// Header patterns, tested in order on a line stripped of its markup
var sectionPatterns = []struct {
	section Section
	re      *regexp.Regexp
}{
	{SectionObjectives, regexp.MustCompile(`(?i)^(?:learning\s+objectives?|objectives?|learning\s+goals?)$`)},
	{SectionContent, regexp.MustCompile(`(?i)^(?:lesson\s+content|content|introduction|demonstration|lesson)$`)},
	{SectionActivity, regexp.MustCompile(`(?i)^(?:practice\s+activit(?:y|ies)|activit(?:y|ies)|exercises?|practice)$`)},
	{SectionCheck, regexp.MustCompile(`(?i)^(?:reflection(?:\s+questions)?|knowledge\s+check|quiz|assessment)$`)},
}

// Headers introducing a subsection of a canonical section
var subsectionHeaders = map[string]bool{
	"introduction":         true,
	"demonstration":        true,
	"exercise":             true,
	"exercises":            true,
	"reflection":           true,
	"reflection questions": true,
	"quiz":                 true,
	"assessment":           true,
}

// header is a line recognized as a section header.
type header struct {
	section Section
	name    string // header text as written
	rest    string // text following "Header:" on the same line
}

// MatchSection recognizes a section header line.
// Ex: "## Learning Objectives", "**Quiz:**", "Activity: Build a form"
func MatchSection(line string) (Section, bool) {
	h, ok := matchHeader(line)
	return h.section, ok
}

func matchHeader(line string) (header, bool) {
	stripped := StripMarkup(line)
	name, rest, _ := strings.Cut(stripped, ":")
	name = strings.TrimSpace(name)
	rest = strings.Trim(strings.TrimSpace(rest), "*_")
	for _, pattern := range sectionPatterns {
		if pattern.re.MatchString(name) {
			return header{
				section: pattern.section,
				name:    name,
				rest:    strings.TrimSpace(rest),
			}, true
		}
	}
	return header{}, false
}

var (
	reDurationLine      = regexp.MustCompile(`(?i)^[\W_]*(?:estimated\s+)?duration\s*\**\s*:\s*\**\s*(.+)$`)
	reDurationMinutes   = regexp.MustCompile(`(?i)\b(\d+)\s*(?:minutes?|mins?)\b`)
	reDurationOnlyLine  = regexp.MustCompile(`(?i)^[\W_]*\d+\s*(?:minutes?|mins?)[\W_]*$`)
	reDurationEmoji     = regexp.MustCompile(`[⏱⏰⌛⏳🕐🕒]\x{FE0F}?\s*(\d+\s*\p{L}*)`)
	reDurationEmojiLine = regexp.MustCompile(`^\s*[⏱⏰⌛⏳🕐🕒]\x{FE0F}?\s*\d+\s*\p{L}*\s*$`)
	reTitlePrefix       = regexp.MustCompile(`(?i)^(?:lesson\s+)?title\s*:\s*`)
	reStepLine          = regexp.MustCompile(`(?i)^[\W_]*step\s+(\d+)\s*[:.)\-–]\s*(.*)$`)
	reBulletPrefix      = regexp.MustCompile(`^\s*(?:•\s*|[-*]\s+|\d+[.)]\s+)`)
)

// Normalize repairs malformed lesson text into structured Markdown:
//
//	# Title
//
//	*Duration: X*
//
//	## Learning Objectives
//	## Lesson Content
//	## Practice Activity
//	## Knowledge Check
//
// Missing sections are omitted. Normalize never panics: in the worst case,
// the original text is returned as the content of an untitled lesson.
func Normalize(raw string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logging.CurrentLogger().Warn("Failed to normalize lesson text", "err", fmt.Sprint(r))
			result = fallback(raw)
		}
	}()
	return normalize(raw)
}

func normalize(raw string) string {
	doc := markdown.Document(raw).MustTransform(
		markdown.StripHTMLComments(),
		CleanCharacters(),
		RepairArtifacts(),
	)
	lines := doc.Lines()

	duration, lines := ExtractDuration(lines)
	title, lines := extractTitle(lines)

	bodies := make(map[Section][]string)
	current := SectionContent // Text before the first header is lesson content
	it := markdown.Document(strings.Join(lines, "\n")).Iterator()
	it.SkipBlankLines()
	for it.HasNext() {
		line := it.Next().Text
		if IsHeadingLine(line) {
			if h, ok := matchHeader(line); ok {
				current = startSection(bodies, h)
				continue
			}
			bodies[current] = append(bodies[current], line)
			continue
		}
		if h, ok := matchHeader(line); ok {
			current = startSection(bodies, h)
			continue
		}
		bodies[current] = append(bodies[current], line)
	}

	var sb strings.Builder
	sb.WriteString("# " + title + "\n\n")
	if duration != "" {
		sb.WriteString("*Duration: " + duration + "*\n\n")
	}
	for _, section := range allSections {
		body := formatBody(bodies[section])
		if body == "" {
			continue
		}
		sb.WriteString("## " + section.Heading() + "\n\n")
		sb.WriteString(body + "\n\n")
	}

	return string(markdown.Document(sb.String()).MustTransform(Finalize()).ToCleanMarkdown())
}

func startSection(bodies map[Section][]string, h header) Section {
	if subsectionHeaders[strings.ToLower(h.name)] {
		bodies[h.section] = append(bodies[h.section], "", "### "+cases.Title(language.English).String(strings.ToLower(h.name)), "")
	}
	if h.rest != "" {
		// A lone keyword after the colon would be read as another header
		if _, ok := matchHeader(h.rest); !ok {
			bodies[h.section] = append(bodies[h.section], h.rest)
		}
	}
	return h.section
}

func formatBody(lines []string) string {
	var result []string
	for _, line := range Bulletify(lines) {
		if match := reStepLine.FindStringSubmatch(line); match != nil && !IsHeadingLine(line) {
			heading := "## Step " + match[1]
			if rest := StripMarkup(match[2]); rest != "" {
				heading += ": " + rest
			}
			result = append(result, "", heading, "")
			continue
		}
		result = append(result, line)
	}
	body := strings.Join(result, "\n")
	body = text.SquashBlankLines(body)
	return strings.TrimSpace(body)
}

// Bulletify rewrites lines starting with "•", "-", "*", "N." or "N)" as
// Markdown list items ("- text").
func Bulletify(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if loc := reBulletPrefix.FindStringIndex(line); loc != nil && !reStepLine.MatchString(line) {
			content := strings.TrimSpace(line[loc[1]:])
			if content == "" {
				continue
			}
			result = append(result, "- "+content)
			continue
		}
		result = append(result, line)
	}
	return result
}

// ExtractDuration searches the lesson duration and removes the lines
// dedicated to it. The first rule matching wins:
// "Duration: X", then "N minutes", then an emoji-prefixed duration ("⏱ 1 hour").
func ExtractDuration(lines []string) (string, []string) {
	duration := ""
	for _, line := range lines {
		if IsHeadingLine(line) {
			continue
		}
		if match := reDurationLine.FindStringSubmatch(line); match != nil {
			duration = StripMarkup(match[1])
			if duration != "" {
				break
			}
		}
	}
	if duration == "" {
		for _, line := range lines {
			if match := reDurationMinutes.FindStringSubmatch(line); match != nil {
				duration = match[1] + " minutes"
				break
			}
		}
	}
	if duration == "" {
		for _, line := range lines {
			if match := reDurationEmoji.FindStringSubmatch(line); match != nil {
				duration = strings.TrimSpace(match[1])
				break
			}
		}
	}

	var remaining []string
	for _, line := range lines {
		if !IsHeadingLine(line) && (reDurationLine.MatchString(line) ||
			reDurationOnlyLine.MatchString(line) ||
			reDurationEmojiLine.MatchString(line)) {
			continue
		}
		remaining = append(remaining, line)
	}
	return duration, remaining
}

// extractTitle returns the title and the remaining lines. The first
// non-blank line is the title unless it is a section header.
func extractTitle(lines []string) (string, []string) {
	for i, line := range lines {
		if text.IsBlank(line) {
			continue
		}
		if h, ok := matchHeader(line); ok && h.rest == "" {
			return DefaultTitle, lines
		}
		title := StripMarkup(line)
		title = reTitlePrefix.ReplaceAllString(title, "")
		title = strings.TrimSpace(strings.TrimRight(title, ":"))
		title = RepairHeading(title)
		if title == "" {
			return DefaultTitle, lines[i+1:]
		}
		return title, lines[i+1:]
	}
	return DefaultTitle, nil
}

// Finalize ensures the document no longer needs normalization. Headings are
// repaired in place, other lines are repaired and split, raw section headers
// become subheadings, and bullets use Markdown syntax.
func Finalize() markdown.Transformer {
	return func(document markdown.Document) (markdown.Document, error) {
		var result []string
		for _, line := range document.Lines() {
			line = nbspReplacer.Replace(line)
			if IsEmojiLine(line) {
				continue
			}
			if IsHeadingLine(line) {
				result = append(result, RepairHeading(line))
				continue
			}
			for _, l := range strings.Split(RepairText(line), "\n") {
				if IsEmojiLine(l) {
					continue
				}
				if _, ok := matchHeader(l); ok {
					l = "### " + StripMarkup(l)
				} else if strings.HasPrefix(strings.TrimSpace(l), "•") {
					l = "- " + strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "•"))
				}
				result = append(result, l)
			}
		}
		return markdown.Document(strings.Join(result, "\n")).MustTransform(markdown.CollapseNewlines()), nil
	}
}

// NeedsNormalization detects text that would be changed by Normalize:
// non-breaking spaces, emoji decoration lines, concatenation artifacts, raw
// bullets, and section keywords not formatted as Markdown headings.
func NeedsNormalization(txt string) bool {
	for _, line := range strings.Split(text.NormalizeLineEndings(txt), "\n") {
		if containsNonBreakingSpace(line) || IsEmojiLine(line) {
			return true
		}
		if IsHeadingLine(line) {
			if RepairHeading(line) != line {
				return true
			}
			continue
		}
		if RepairText(line) != line {
			return true
		}
		if strings.HasPrefix(strings.TrimSpace(line), "•") {
			return true
		}
		if _, ok := matchHeader(line); ok {
			return true
		}
	}
	return false
}

// fallback wraps the text as the content of an untitled lesson.
func fallback(raw string) string {
	content := strings.TrimSpace(text.NormalizeLineEndings(raw))
	if content == "" {
		return "# " + DefaultTitle
	}
	return "# " + DefaultTitle + "\n\n## " + SectionContent.Heading() + "\n\n" + content
}
