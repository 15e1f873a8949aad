package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/course"
	"github.com/julien-sobczak/the-lessonwriter/internal/remote"
	"github.com/julien-sobczak/the-lessonwriter/internal/session"
	"github.com/julien-sobczak/the-lessonwriter/pkg/console"
)

func init() {
	courseCmd.AddCommand(courseLessonsCmd)
	courseCmd.AddCommand(coursePublishCmd)
	rootCmd.AddCommand(courseCmd)
}

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Work on a course definition",
}

var courseLessonsCmd = &cobra.Command{
	Use:   "lessons <course.yaml>",
	Short: "List lessons",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := course.ParseFile(args[0])
		exitOnError(err)
		fmt.Println(c.Title)
		for _, module := range c.Modules {
			fmt.Printf("  %s\n", module.Title)
			for _, lesson := range module.Lessons {
				origin := "inline"
				if !lesson.Source().IsInline() {
					origin = lesson.ContentRef
				}
				fmt.Printf("    %-30s %-30s %s\n", lesson.ID, lesson.Title, origin)
			}
		}
	},
}

var coursePublishCmd = &cobra.Command{
	Use:   "publish <course.yaml>",
	Short: "Publish lessons",
	Long:  `Load the content of every lesson, normalize it when needed, and save it to the persistence backend.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := course.ParseFile(args[0])
		exitOnError(err)

		cfg := config.CurrentConfig()
		r, err := remote.NewFromConfig(cfg)
		exitOnError(err)
		loader := remote.NewLoader(r)

		lessons := c.Lessons()
		progress := console.NewProgressLog(len(lessons))
		for _, lesson := range lessons {
			progress.Step(fmt.Sprintf("Publishing %s...", lesson.ID))
			if err := publishLesson(cfg, loader, lesson); err != nil {
				progress.Fail(fmt.Sprintf("%s: %v", lesson.ID, err))
			}
		}
		progress.Clear(fmt.Sprintf("%d lesson(s) published, %d failure(s)", len(lessons)-progress.Failures(), progress.Failures()))
		if progress.Failures() > 0 {
			os.Exit(1)
		}
	},
}

func publishLesson(cfg *config.Config, loader *remote.Loader, lesson *course.Lesson) error {
	ctx := context.Background()
	s, err := session.NewFromConfig(ctx, cfg, lesson.ID)
	if err != nil {
		return err
	}
	if lesson.ContentRef == "" && lesson.MarkdownContent == "" {
		err = s.SetContent(lesson.Content)
	} else {
		err = s.Load(ctx, loader, lesson.Source())
	}
	if err != nil {
		_ = s.Close()
		return err
	}
	if _, _, err := s.Snapshot(ctx); err != nil {
		_ = s.Close()
		return err
	}
	// Pending changes are saved on close
	return s.Close()
}
