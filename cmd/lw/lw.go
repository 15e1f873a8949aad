package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
)

var verboseInfo bool
var verboseDebug bool
var verboseTrace bool

var rootCmd = &cobra.Command{
	Use:   "lw",
	Short: "The LessonWriter prepares lesson content",
	Long:  `A toolbox to normalize, convert, search and version lesson content written in Markdown.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "init" {
			CheckConfig()
		}

		// Enable verbose output. The most verbose level wins when multiple flags are passsed.
		if verboseInfo {
			logging.CurrentLogger().SetVerboseLevel(logging.VerboseInfo)
		}
		if verboseDebug {
			logging.CurrentLogger().SetVerboseLevel(logging.VerboseDebug)
		}
		if verboseTrace {
			logging.CurrentLogger().SetVerboseLevel(logging.VerboseTrace)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CurrentLogger().Sync()
	},
}

func init() {
	// Use PersistentFlags to make flags accessible to sub-commands
	rootCmd.PersistentFlags().BoolVarP(&verboseInfo, "v", "", false, "enable verbose info output")
	rootCmd.PersistentFlags().BoolVarP(&verboseDebug, "vv", "", false, "enable verbose debug output")
	rootCmd.PersistentFlags().BoolVarP(&verboseTrace, "vvv", "", false, "enable verbose trace output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func CheckConfig() {
	cfg := config.CurrentConfig()
	if err := cfg.ConfigFile.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	editor.Strict = cfg.ConfigFile.Editor.Strict
}

// readInput reads a file, or the standard input when the path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// exitOnError prints the error and exits.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
