package course_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/course"
	"github.com/julien-sobczak/the-lessonwriter/internal/remote"
)

func TestParseFile(t *testing.T) {
	c, err := course.ParseFile("testdata/web-design.yaml")
	require.NoError(t, err)

	assert.Equal(t, "web-design-101", c.ID)
	require.Len(t, c.Modules, 2)

	lessons := c.Lessons()
	require.Len(t, lessons, 3)
	assert.Equal(t, "web-design-101-css-grid", lessons[0].ID)
	assert.Equal(t, "flexbox", lessons[1].ID)
	assert.Equal(t, "web-design-101-color-theory", lessons[2].ID)

	assert.Equal(t, remote.Source("# CSS Grid\n"), lessons[0].Source())
	assert.Equal(t, remote.Source("s3://lessons/flexbox.md"), lessons[1].Source())

	lesson, ok := c.FindLesson("flexbox")
	require.True(t, ok)
	assert.Equal(t, "Flexbox", lesson.Title)
	_, ok = c.FindLesson("missing")
	assert.False(t, ok)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := course.Parse(strings.NewReader(`
id: c
modules:
  - title: M
    lessons:
      - title: Intro
      - title: intro
`))
	assert.ErrorContains(t, err, "duplicate lesson")
}
