package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/pkg/markdown"
)

func init() {
	rootCmd.AddCommand(outlineCmd)
}

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Show lesson outline",
	Long:  `Print the headings of a Markdown lesson with its estimated reading time.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		md, err := readInput(args[0])
		exitOnError(err)
		fmt.Print(formatOutline(markdown.Outline(md)))
		fmt.Printf("\n%d words, %d min read\n", markdown.WordCount(md), markdown.ReadingTime(md))
	},
}

// formatOutline indents headings according to their level.
func formatOutline(headings []markdown.Heading) string {
	var sb strings.Builder
	for _, heading := range headings {
		sb.WriteString(strings.Repeat("  ", heading.Level-1))
		fmt.Fprintf(&sb, "%s (line %d)\n", heading.Title, heading.Line)
	}
	return sb.String()
}
