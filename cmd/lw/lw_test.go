package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/search"
	"github.com/julien-sobczak/the-lessonwriter/pkg/markdown"
)

func disableColors(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = previous
	})
}

func TestFormatCheck(t *testing.T) {
	disableColors(t)
	results := []checkResult{
		checkLesson("b.md", "# Lesson\n\nSee [the docs](https://go.dev)."),
		checkLesson("a.md", "Objectives: learn\n\nSee [this]()."),
		checkLesson("c.md", "# Lesson\n\n```go\nx := 1\n```\n\n```\n[not a link]()\n```"),
	}
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	require.Len(t, results[2].UntaggedCode, 1)
	actual := formatCheck(results)
	assert.Equal(t, ""+
		"           ok: b.md\n"+
		" needs-repair: a.md\n"+
		"   blank-link: a.md:3 [this]()\n"+
		"           ok: c.md\n"+
		"untagged-code: c.md:7\n", actual)
}

func TestFormatOutline(t *testing.T) {
	actual := formatOutline([]markdown.Heading{
		{Level: 1, Title: "Grid", Line: 1},
		{Level: 2, Title: "Objectives", Line: 3},
		{Level: 3, Title: "Quiz", Line: 7},
	})
	assert.Equal(t, "Grid (line 1)\n  Objectives (line 3)\n    Quiz (line 7)\n", actual)
}

func TestFormatMatches(t *testing.T) {
	disableColors(t)
	txt := "foo bar\nnothing\nbar foo foo"
	actual := formatMatches(txt, search.FindAll(txt, "foo", search.DefaultOptions()))
	assert.Equal(t, "   1: foo bar\n   3: bar foo foo\n", actual)
}

func TestRunSearch(t *testing.T) {
	disableColors(t)

	t.Run("List matches", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lesson.md")
		require.NoError(t, os.WriteFile(path, []byte("# Grid\n\nfoo bar foo\n"), 0644))
		var out, errOut bytes.Buffer
		err := runSearch(&out, &errOut, path, "foo", search.DefaultOptions(), nil, false)
		require.NoError(t, err)
		assert.Equal(t, "   2: foo bar foo\n2 match(es)\n", out.String())
	})

	t.Run("Replace and write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lesson.md")
		require.NoError(t, os.WriteFile(path, []byte("# Grid\n\nfoo bar foo\n"), 0644))
		replacement := "baz"
		var out, errOut bytes.Buffer
		err := runSearch(&out, &errOut, path, "foo", search.DefaultOptions(), &replacement, true)
		require.NoError(t, err)
		assert.Equal(t, "2 match(es) replaced\n", errOut.String())
		assert.Empty(t, out.String())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "# Grid\n\nbaz bar baz\n", string(data))
	})

	t.Run("Missing file", func(t *testing.T) {
		var out, errOut bytes.Buffer
		err := runSearch(&out, &errOut, filepath.Join(t.TempDir(), "missing.md"), "foo", search.DefaultOptions(), nil, false)
		assert.Error(t, err)
	})
}

func TestConversionTarget(t *testing.T) {
	var tests = []struct {
		name     string // name
		path     string // input file
		to       string // flag value
		expected string // format
	}{
		{"HTML file", "lesson.html", "", "md"},
		{"Markdown file", "lesson.MD", "", "html"},
		{"Explicit format", "-", "html", "html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := conversionTarget(tt.path, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}

	_, err := conversionTarget("lesson.md", "pdf")
	assert.Error(t, err)
}

func TestPreviewPage(t *testing.T) {
	page := previewPage("# Grid & Layout\n\nHello<script>alert(1)</script>")
	assert.Contains(t, page, "<title>Grid &amp; Layout</title>")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "Hello")
}
