package main

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/pkg/markdown"
)

var previewOpen bool
var previewOutput string

func init() {
	previewCmd.Flags().BoolVarP(&previewOpen, "open", "", false, "open the preview in the browser")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "file to write the preview to")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Preview a lesson",
	Long:  `Render a Markdown lesson to sanitized HTML.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		md, err := readInput(args[0])
		exitOnError(err)
		page := previewPage(md)

		output := previewOutput
		if output == "" && previewOpen {
			output = filepath.Join(os.TempDir(), "lw-preview.html")
		}
		if output == "" {
			fmt.Println(page)
			return
		}
		exitOnError(os.WriteFile(output, []byte(page), 0644))
		if previewOpen {
			exitOnError(browser.OpenFile(output))
		}
	},
}

// previewPage wraps the rendered lesson in a standalone page.
func previewPage(md string) string {
	title := "Preview"
	if headings := markdown.Outline(md); len(headings) > 0 {
		title = headings[0].Title
	}
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(markdown.ToHTML(md))
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String()
}
