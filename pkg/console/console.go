package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// ProgressLog displays the progress of a batch command on a single line.
type ProgressLog struct {
	output        io.Writer
	showBar       bool
	showPercent   bool
	maxSteps      int
	maxCharacters int
	current       int
	failures      int
}

func NewProgressLog(maxSteps int, options ...func(*ProgressLog)) *ProgressLog {
	result := &ProgressLog{
		output:        os.Stderr,
		showPercent:   false,
		showBar:       true,
		maxSteps:      max(maxSteps, 1),
		maxCharacters: 80,
	}
	for _, option := range options {
		option(result)
	}
	return result
}

func ToWriter(w io.Writer) func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.output = w
	}
}

func HideBar() func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.showBar = false
	}
}

func ShowPercent() func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.showPercent = true
	}
}

func LineLength(characters int) func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.maxCharacters = characters
	}
}

// Step advances the progress by one and displays the message.
func (l *ProgressLog) Step(message string) {
	l.current = min(l.current+1, l.maxSteps)
	l.Log(l.current, message)
}

// Fail records a failed step. The message is printed on its own line.
func (l *ProgressLog) Fail(message string) {
	l.failures++
	l.Clear(message)
}

// Failures returns the number of failed steps.
func (l *ProgressLog) Failures() int {
	return l.failures
}

func (l *ProgressLog) Log(currentStep int, message string) {
	i100 := currentStep * 100 / l.maxSteps

	// Between 0 and 10 '#' depending on the percent
	i10 := i100 / 10

	var sb strings.Builder

	if l.showBar {
		sb.WriteString(strings.Repeat("#", i10))
		sb.WriteString(strings.Repeat(" ", 10-i10))
		sb.WriteRune(' ')
	}

	if l.showPercent {
		sb.WriteString(fmt.Sprintf("(%3d%%) ", i100))
	} else {
		sb.WriteString(fmt.Sprintf("(%d/%d) ", currentStep, l.maxSteps))
	}

	sb.WriteString(message)

	fmt.Fprint(l.output, l.fit(sb.String()), "\r")
}

// Clear replaces the progress line by a message.
// An empty message erases the line.
func (l *ProgressLog) Clear(newMessage string) {
	fmt.Fprint(l.output, l.fit(newMessage))

	if newMessage == "" {
		fmt.Fprint(l.output, "\r")
	} else {
		fmt.Fprint(l.output, "\n")
	}
}

// fit truncates or pads a line to the line length. File names may contain
// multibyte characters.
func (l *ProgressLog) fit(line string) string {
	length := utf8.RuneCountInString(line)
	if length > l.maxCharacters {
		return string([]rune(line)[:l.maxCharacters])
	}
	return line + strings.Repeat(" ", l.maxCharacters-length)
}
