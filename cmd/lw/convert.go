package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
)

var convertTo string

func init() {
	convertCmd.Flags().StringVarP(&convertTo, "to", "", "", "target format: md or html (default is deduced from the file extension)")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert between HTML and Markdown",
	Long:  `Convert editor HTML to lesson Markdown, or lesson Markdown to editor HTML.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := readInput(args[0])
		exitOnError(err)

		target, err := conversionTarget(args[0], convertTo)
		exitOnError(err)
		switch target {
		case "md":
			fmt.Println(markdown.HTMLToMarkdown(content))
		case "html":
			fmt.Println(markdown.MarkdownToHTML(content))
		}
	},
}

// conversionTarget determines the output format.
func conversionTarget(path string, to string) (string, error) {
	switch to {
	case "md", "html":
		return to, nil
	case "":
		// Deduce from the input
	default:
		return "", fmt.Errorf("unsupported format %q", to)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "md", nil
	case ".md", ".markdown", ".txt":
		return "html", nil
	}
	fmt.Fprintln(os.Stderr, "Unable to deduce format, use --to")
	return "", fmt.Errorf("unknown format for %q", path)
}
