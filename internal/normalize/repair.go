package normalize

import (
	"regexp"
	"strings"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
)

// Max number of passes before giving up on overlapping artifacts
const maxRepairPasses = 5

// A repair is a targeted substitution. The separator is inserted between
// the two glued parts: a newline in text, a space inside headings.
type repair struct {
	re          *regexp.Regexp
	replacement string // "%s" is replaced by the separator
}

var repairs = []repair{
	// "key techniques30 minutes" => "key techniques" / "30 minutes"
	{regexp.MustCompile(`([\p{L}.!?)])(\d+\s*(?:minutes?|mins?)\b)`), "${1}%s${2}"},
	// "Learning ObjectivesBy the end" => "Learning Objectives" / "By the end"
	{regexp.MustCompile(`(Objectives?|Goals|Content|Introduction|Demonstration|Activity|Activities|Exercises?|Practice|Reflection|Questions|Check|Quiz|Assessment)(:?)(\p{Lu}\p{Ll})`), "${1}${2}%s${3}"},
	// "• one • two" => "• one" / "• two"
	{regexp.MustCompile(`(\S)[ \t]*(•)[ \t]*`), "${1}%s${2} "},
	// "done.Step 2: ..." => "done." / "Step 2: ..."
	{regexp.MustCompile(`([.!?:;)\p{L}\p{N}])[ \t]*(Step \d+:)`), "${1}%s${2}"},
}

// Missing space after a colon ("Note:Read" => "Note: Read")
var reMissingSpaceAfterColon = regexp.MustCompile(`([\p{L})]):(\p{L})`)

// RepairText repairs concatenation artifacts, splitting glued parts on new lines.
func RepairText(s string) string {
	return applyRepairs(s, "\n")
}

// RepairHeading repairs concatenation artifacts inside a heading, keeping a single line.
func RepairHeading(s string) string {
	return applyRepairs(s, " ")
}

func applyRepairs(s string, separator string) string {
	for i := 0; i < maxRepairPasses; i++ {
		repaired := s
		for _, r := range repairs {
			replacement := strings.ReplaceAll(r.replacement, "%s", separator)
			repaired = r.re.ReplaceAllString(repaired, replacement)
		}
		repaired = reMissingSpaceAfterColon.ReplaceAllString(repaired, "$1: $2")
		if repaired == s {
			break
		}
		s = repaired
	}
	return s
}

// RepairArtifacts is a transformer repairing concatenation artifacts.
// Headings are repaired without being split.
func RepairArtifacts() markdown.Transformer {
	return func(document markdown.Document) (markdown.Document, error) {
		lines := document.Lines()
		for i, line := range lines {
			if IsHeadingLine(line) {
				lines[i] = RepairHeading(line)
				continue
			}
			lines[i] = RepairText(line)
		}
		return markdown.Document(strings.Join(lines, "\n")), nil
	}
}
