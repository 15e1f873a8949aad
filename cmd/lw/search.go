package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/search"
	"github.com/julien-sobczak/the-lessonwriter/internal/session"
)

var searchCaseSensitive bool
var searchPartial bool
var searchReplace string
var searchWrite bool

func init() {
	searchCmd.Flags().BoolVarP(&searchCaseSensitive, "case-sensitive", "s", false, "match case")
	searchCmd.Flags().BoolVarP(&searchPartial, "partial", "p", false, "match inside words")
	searchCmd.Flags().StringVarP(&searchReplace, "replace", "r", "", "replace all matches")
	searchCmd.Flags().BoolVarP(&searchWrite, "write", "w", false, "rewrite the file after replacing")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query> <file>",
	Short: "Find and replace",
	Long:  `Search a lesson using whole-word, case-insensitive matching by default.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		query, path := args[0], args[1]
		options := search.Options{
			CaseSensitive: searchCaseSensitive,
			WholeWord:     !searchPartial,
		}
		var replacement *string
		if cmd.Flags().Changed("replace") {
			replacement = &searchReplace
		}
		exitOnError(runSearch(os.Stdout, os.Stderr, path, query, options, replacement, searchWrite))
	},
}

// runSearch lists the matches of the query, or replaces them when a
// replacement is given. The session is closed before returning.
func runSearch(out, errOut io.Writer, path, query string, options search.Options, replacement *string, write bool) (err error) {
	md, err := readInput(path)
	if err != nil {
		return err
	}

	s := session.New("search", session.WithContent(markdown.MarkdownToHTML(md)))
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	count := s.Find(query, options)
	if replacement == nil {
		fmt.Fprint(out, formatMatches(s.Text(), search.FindAll(s.Text(), query, options)))
		fmt.Fprintf(out, "%d match(es)\n", count)
		return nil
	}

	n, err := s.ReplaceAll(*replacement)
	if err != nil {
		return err
	}
	fmt.Fprintf(errOut, "%d match(es) replaced\n", n)
	if write && path != "-" {
		return os.WriteFile(path, []byte(s.Markdown()+"\n"), 0644)
	}
	fmt.Fprintln(out, s.Markdown())
	return nil
}

// formatMatches prints every line containing a match, matches in color.
func formatMatches(txt string, matches []search.Match) string {
	runes := []rune(txt)
	var sb strings.Builder
	lineStart := 0
	lineNumber := 1
	i := 0
	for pos := 0; pos <= len(runes); pos++ {
		if pos < len(runes) && runes[pos] != '\n' {
			continue
		}
		var line strings.Builder
		cursor := lineStart
		found := false
		for ; i < len(matches) && matches[i].Start < pos; i++ {
			m := matches[i]
			line.WriteString(string(runes[cursor:m.Start]))
			line.WriteString(color.YellowString(string(runes[m.Start:m.End])))
			cursor = m.End
			found = true
		}
		if found {
			line.WriteString(string(runes[cursor:pos]))
			fmt.Fprintf(&sb, "%4d: %s\n", lineNumber, line.String())
		}
		lineStart = pos + 1
		lineNumber++
	}
	return sb.String()
}
