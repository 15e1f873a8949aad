package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/paste"
	"github.com/julien-sobczak/the-lessonwriter/internal/session"
)

var pasteHTML string
var pasteText string
var pasteInto string

func init() {
	pasteCmd.Flags().StringVarP(&pasteHTML, "html", "", "", "file containing the HTML flavor of the clipboard")
	pasteCmd.Flags().StringVarP(&pasteText, "text", "", "", "file containing the plain-text flavor of the clipboard")
	pasteCmd.Flags().StringVarP(&pasteInto, "into", "", "", "Markdown lesson receiving the content (default is an empty lesson)")
	rootCmd.AddCommand(pasteCmd)
}

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Simulate a paste",
	Long:  `Sanitize clipboard content and print the resulting lesson in Markdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		var payload paste.Payload
		if pasteHTML != "" {
			content, err := readInput(pasteHTML)
			exitOnError(err)
			payload.HTML = content
		}
		if pasteText != "" {
			content, err := readInput(pasteText)
			exitOnError(err)
			payload.Text = content
		}

		var opts []session.Option
		if pasteInto != "" {
			md, err := readInput(pasteInto)
			exitOnError(err)
			opts = append(opts, session.WithContent(markdown.MarkdownToHTML(md)))
		}
		s := session.New("paste", opts...)
		defer s.Close()

		result, err := s.Paste(context.Background(), payload)
		exitOnError(err)
		fmt.Fprintf(os.Stderr, "Pasted as %s content\n", result.Kind)
		fmt.Println(s.Markdown())
	},
}
