package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/normalize"
	"github.com/julien-sobczak/the-lessonwriter/pkg/console"
)

var normalizeWrite bool

func init() {
	normalizeCmd.Flags().BoolVarP(&normalizeWrite, "write", "w", false, "rewrite files in place instead of printing the result")
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(checkCmd)
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file...]",
	Short: "Normalize lessons",
	Long:  `Repair raw generated lesson text into structured Markdown.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !normalizeWrite {
			for _, path := range args {
				raw, err := readInput(path)
				exitOnError(err)
				fmt.Println(normalize.Normalize(raw))
			}
			return
		}

		progress := console.NewProgressLog(len(args))
		for _, path := range args {
			progress.Step(fmt.Sprintf("Normalizing %s...", filepath.Base(path)))
			if err := normalizeFile(path); err != nil {
				progress.Fail(fmt.Sprintf("%s: %v", path, err))
				continue
			}
		}
		progress.Clear(fmt.Sprintf("%d file(s) normalized, %d failure(s)", len(args)-progress.Failures(), progress.Failures()))
		if progress.Failures() > 0 {
			os.Exit(1)
		}
	},
}

func normalizeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !normalize.NeedsNormalization(string(raw)) {
		logging.CurrentLogger().Debug("File already normalized", "path", path)
		return nil
	}
	return os.WriteFile(path, []byte(normalize.Normalize(string(raw))+"\n"), 0644)
}

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Check lessons",
	Long:  `Report the lessons needing normalization or containing links without target.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var results []checkResult
		failed := false
		for _, path := range args {
			raw, err := readInput(path)
			exitOnError(err)
			result := checkLesson(path, raw)
			failed = failed || !result.OK()
			results = append(results, result)
		}
		fmt.Print(formatCheck(results))
		if failed {
			os.Exit(1)
		}
	},
}

type checkResult struct {
	Path               string
	NeedsNormalization bool
	BlankLinks         []markdown.Link
	// Reported but not an error
	UntaggedCode []*markdown.CodeBlock
}

func (r checkResult) OK() bool {
	return !r.NeedsNormalization && len(r.BlankLinks) == 0
}

func checkLesson(path string, md string) checkResult {
	result := checkResult{
		Path:               path,
		NeedsNormalization: normalize.NeedsNormalization(md),
	}
	doc := markdown.Document(md)
	for _, link := range append(doc.Links(), doc.Images()...) {
		if link.Blank() {
			result.BlankLinks = append(result.BlankLinks, link)
		}
	}
	for _, block := range doc.ExtractCodeBlocks() {
		if block.Language == "" {
			result.UntaggedCode = append(result.UntaggedCode, block)
		}
	}
	return result
}

// formatCheck lists the files in the given order with their status.
func formatCheck(results []checkResult) string {
	var sb strings.Builder
	for _, result := range results {
		if result.OK() {
			sb.WriteString(color.GreenString("%13s", "ok"))
			sb.WriteString(": " + result.Path + "\n")
		}
		if result.NeedsNormalization {
			sb.WriteString(color.RedString("%13s", "needs-repair"))
			sb.WriteString(": " + result.Path + "\n")
		}
		for _, link := range result.BlankLinks {
			sb.WriteString(color.YellowString("%13s", "blank-link"))
			fmt.Fprintf(&sb, ": %s:%d %s\n", result.Path, link.Line, link)
		}
		for _, block := range result.UntaggedCode {
			sb.WriteString(color.YellowString("%13s", "untagged-code"))
			fmt.Fprintf(&sb, ": %s:%d\n", result.Path, block.Line)
		}
	}
	return sb.String()
}
