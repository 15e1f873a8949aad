package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/slash"
)

func init() {
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates [filter]",
	Short: "List slash templates",
	Long:  `List the templates available in the slash menu, optionally filtered.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		for _, t := range currentTemplates() {
			if t.Matches(filter) {
				fmt.Printf("%-20s %s\n", t.ID, t.Title)
			}
		}
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range currentTemplates() {
			if t.ID == args[0] {
				fmt.Println(t.Content)
				return
			}
		}
		exitOnError(fmt.Errorf("%w: %q", slash.ErrUnknownTemplate, args[0]))
	},
}

func currentTemplates() []slash.Template {
	cfg := config.CurrentConfig()
	templates := slash.DefaultTemplates()
	if cfg.ConfigFile.Slash.Templates == "" {
		return templates
	}
	extra, err := slash.LoadTemplatesFile(cfg.Path(cfg.ConfigFile.Slash.Templates))
	exitOnError(err)
	return slash.MergeTemplates(templates, extra)
}
