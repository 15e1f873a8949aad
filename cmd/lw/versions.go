package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/version"
)

func init() {
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsSaveCmd)
	versionsCmd.AddCommand(versionsRestoreCmd)
	versionsCmd.AddCommand(versionsDiffCmd)
	versionsCmd.AddCommand(versionsClearCmd)
	rootCmd.AddCommand(versionsCmd)
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage local versions",
	Long:  `Manage the local snapshots of the lesson being edited.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := currentVersionStore()
		defer closeStore()
		versions, err := store.List(context.Background())
		exitOnError(err)
		if len(versions) == 0 {
			fmt.Println("No version")
			return
		}
		for i, v := range versions {
			fmt.Printf("%d  %s  %s  %s\n", i, v.ID.Short(), v.Timestamp.Format("2006-01-02 15:04:05"), firstLine(v.Markdown))
		}
	},
}

var versionsSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a version",
	Long:  `Save a Markdown lesson as a new local version.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		md, err := readInput(args[0])
		exitOnError(err)
		store, closeStore := currentVersionStore()
		defer closeStore()
		v, saved, err := store.Save(context.Background(), markdown.MarkdownToHTML(md))
		exitOnError(err)
		if !saved {
			fmt.Println("Content unchanged since the last version")
			return
		}
		fmt.Printf("Saved version %s\n", v.ID.Short())
	},
}

var versionsRestoreCmd = &cobra.Command{
	Use:   "restore <index>",
	Short: "Restore a version",
	Long:  `Print the Markdown of a version (0 is the newest).`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		index, err := strconv.Atoi(args[0])
		exitOnError(err)
		store, closeStore := currentVersionStore()
		defer closeStore()
		v, err := store.Restore(context.Background(), index)
		exitOnError(err)
		fmt.Println(v.Markdown)
	},
}

var versionsDiffCmd = &cobra.Command{
	Use:   "diff [<from> <to>]",
	Short: "Show changes between versions",
	Long:  `Show changes between two versions (default is the previous and the newest).`,
	Args:  cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		from, to := 1, 0
		if len(args) == 2 {
			var err error
			from, err = strconv.Atoi(args[0])
			exitOnError(err)
			to, err = strconv.Atoi(args[1])
			exitOnError(err)
		}
		store, closeStore := currentVersionStore()
		defer closeStore()
		diff, err := store.Diff(context.Background(), from, to)
		exitOnError(err)
		printDiff(diff)
	},
}

var versionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, closeStore := currentVersionStore()
		defer closeStore()
		exitOnError(store.Clear(context.Background()))
	},
}

func currentVersionStore() (*version.Store, func()) {
	cfg := config.CurrentConfig()
	local, err := version.NewLocalStoreFromConfig(cfg)
	exitOnError(err)
	closeStore := func() {}
	if c, ok := local.(io.Closer); ok {
		closeStore = func() {
			_ = c.Close()
		}
	}
	return version.NewStore(local, cfg.ConfigFile.Versions.Namespace), closeStore
}

func printDiff(diff string) {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			color.Red(line)
		} else if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			color.Green(line)
		} else {
			fmt.Fprintln(os.Stdout, line)
		}
	}
}

func firstLine(txt string) string {
	line, _, _ := strings.Cut(txt, "\n")
	return line
}
