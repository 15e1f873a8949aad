package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Init workspace",
	Long:  `Set up local directory as the root of a new lesson workspace.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current working directory: %v", err)
			os.Exit(1)
		}
		path, err := config.Init(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error while initializing configuration: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", path)
	},
}
