package slash_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/slash"
)

func TestDefaultTemplates(t *testing.T) {
	templates := slash.DefaultTemplates()
	var titles []string
	for _, template := range templates {
		titles = append(titles, template.Title)
		// Every template starts with its own section heading
		assert.True(t, strings.HasPrefix(template.HTML(), "<h2>"+template.Title+"</h2>"), template.ID)
	}
	assert.Equal(t, []string{
		"Learning Objectives",
		"Lesson Content",
		"Practice Activity",
		"Reflection Questions",
		"Knowledge Check",
	}, titles)
}

func TestParseTemplates(t *testing.T) {

	t.Run("Valid", func(t *testing.T) {
		templates, err := slash.ParseTemplates([]byte(`
- id: summary
  title: Summary
  content: |
    ## Summary

    - Key point
`))
		require.NoError(t, err)
		require.Len(t, templates, 1)
		assert.Equal(t, "<h2>Summary</h2><ul><li>Key point</li></ul>", templates[0].HTML())
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := slash.ParseTemplates([]byte(`- title: No ID`))
		assert.ErrorContains(t, err, "missing id")
		_, err = slash.ParseTemplates([]byte(`- id: no-title`))
		assert.ErrorContains(t, err, "missing title")
		_, err = slash.ParseTemplates([]byte("- id: a\n  title: A\n- id: a\n  title: B\n"))
		assert.ErrorContains(t, err, "duplicate id")
		_, err = slash.ParseTemplates([]byte(`{not a list`))
		assert.Error(t, err)
	})
}

func TestLoadTemplatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	err := os.WriteFile(path, []byte(`
- id: knowledge-check
  title: Quiz
  content: "## Quiz"
- id: summary
  title: Summary
  content: "## Summary"
`), 0644)
	require.NoError(t, err)

	extra, err := slash.LoadTemplatesFile(path)
	require.NoError(t, err)

	templates := slash.MergeTemplates(slash.DefaultTemplates(), extra)
	require.Len(t, templates, 6)
	assert.Equal(t, "Quiz", templates[4].Title)
	assert.Equal(t, "summary", templates[5].ID)

	_, err = slash.LoadTemplatesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
