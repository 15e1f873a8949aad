package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/paste"
	"github.com/julien-sobczak/the-lessonwriter/internal/persist"
	"github.com/julien-sobczak/the-lessonwriter/internal/remote"
	"github.com/julien-sobczak/the-lessonwriter/internal/search"
	"github.com/julien-sobczak/the-lessonwriter/internal/session"
	"github.com/julien-sobczak/the-lessonwriter/internal/slash"
	"github.com/julien-sobczak/the-lessonwriter/internal/version"
)

// failingSaver rejects every save.
type failingSaver struct{}

func (failingSaver) Save(ctx context.Context, lessonID string, content persist.Content) error {
	return errors.New("backend unavailable")
}

func (failingSaver) Load(ctx context.Context, lessonID string) (persist.Content, error) {
	return persist.Content{}, persist.ErrLessonNotFound
}

func newSession(t *testing.T, opts ...session.Option) *session.Session {
	s := session.New("lesson-1", opts...)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSaveStatus(t *testing.T) {
	assert.Equal(t, "idle", session.SaveIdle.String())
	assert.Equal(t, "saving", session.SaveInProgress.String())
	assert.Equal(t, "saved", session.SaveSucceeded.String())
	assert.Equal(t, "failed", session.SaveFailed.String())
}

func TestSessionEditing(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, session.WithContent(`<p>hello</p>`))

	assert.Equal(t, "lesson-1", s.LessonID())
	assert.False(t, s.ID().IsNil())
	assert.False(t, s.Dirty())

	require.NoError(t, s.Exec(ctx, editor.ReplaceText{From: 5, To: 5, Text: " world"}))
	assert.Equal(t, "hello world", s.Text())
	assert.Equal(t, "hello world", s.Markdown())
	assert.True(t, s.Dirty())

	assert.True(t, s.Undo())
	assert.Equal(t, "hello", s.Text())
	assert.True(t, s.Redo())
	assert.Equal(t, "hello world", s.Text())
}

func TestSessionPaste(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.Paste(ctx, paste.Payload{Text: "plain text"})
	require.NoError(t, err)
	assert.Contains(t, s.Text(), "plain text")

	_, err = s.Paste(ctx, paste.Payload{HTML: `<p>safe</p><script>alert(1)</script>`})
	require.NoError(t, err)
	assert.NotContains(t, s.HTML(), "script")
}

func TestSessionSlash(t *testing.T) {
	ctx := context.Background()
	templates := []slash.Template{
		{ID: "tip", Title: "Tip", Content: "> A useful tip"},
		{ID: "quiz", Title: "Quiz", Content: "## Quiz"},
	}
	s := newSession(t, session.WithTemplates(templates))
	cursor := slash.CursorRect{Top: 10, Bottom: 30, Left: 10}
	viewport := slash.Viewport{Width: 1024, Height: 768}

	consumed, err := s.HandleKey(ctx, slash.KeyEvent{Key: "/"}, cursor, viewport)
	require.NoError(t, err)
	assert.True(t, consumed)
	state, items := s.SlashMenu()
	assert.Equal(t, slash.MenuOpen, state)
	assert.Len(t, items, 2)

	for _, key := range []string{"q", "u"} {
		_, err := s.HandleKey(ctx, slash.KeyEvent{Key: key}, cursor, viewport)
		require.NoError(t, err)
	}
	_, items = s.SlashMenu()
	require.Len(t, items, 1)
	assert.Equal(t, "quiz", items[0].ID)

	consumed, err = s.HandleKey(ctx, slash.KeyEvent{Key: slash.KeyEnter}, cursor, viewport)
	require.NoError(t, err)
	assert.True(t, consumed)
	state, _ = s.SlashMenu()
	assert.Equal(t, slash.Idle, state)
	assert.Contains(t, s.HTML(), "<h2>Quiz</h2>")

	require.NoError(t, s.InsertTemplate(ctx, "tip"))
	assert.Contains(t, s.Text(), "A useful tip")
	assert.ErrorIs(t, s.InsertTemplate(ctx, "missing"), slash.ErrUnknownTemplate)

	// Losing the focus closes the menu without touching the document
	s.Focus()
	assert.True(t, s.Focused())
	before := s.HTML()
	_, err = s.HandleKey(ctx, slash.KeyEvent{Key: "/"}, cursor, viewport)
	require.NoError(t, err)
	state, _ = s.SlashMenu()
	require.Equal(t, slash.MenuOpen, state)
	s.Blur()
	assert.False(t, s.Focused())
	state, _ = s.SlashMenu()
	assert.Equal(t, slash.Idle, state)
	assert.Equal(t, before, s.HTML())
}

func TestSessionFindReplace(t *testing.T) {
	s := newSession(t, session.WithContent(`<p>foo bar <strong>foo</strong></p>`))

	assert.Equal(t, 2, s.Find("foo", search.DefaultOptions()))
	assert.Equal(t, 1, s.FindNext())
	assert.Equal(t, 0, s.FindNext())
	assert.Equal(t, 1, s.FindPrevious())

	highlighted, err := s.Highlighted()
	require.NoError(t, err)
	assert.Contains(t, highlighted, `data-search="current"`)
	assert.NotContains(t, s.HTML(), "data-search")

	n, err := s.ReplaceAll("baz")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "baz bar baz", s.Text())
	count, _ := s.Matches()
	assert.Equal(t, 0, count)

	// Replace all is a single change
	assert.True(t, s.Undo())
	assert.Equal(t, "foo bar foo", s.Text())

	// Matches follow the content
	count, _ = s.Matches()
	assert.Equal(t, 2, count)
	require.NoError(t, s.Replace("qux"))
	assert.Equal(t, "qux bar foo", s.Text())

	s.ClearSearch()
	count, _ = s.Matches()
	assert.Equal(t, 0, count)
	assert.ErrorIs(t, s.Replace("qux"), search.ErrNoMatch)
}

func TestSessionAutosave(t *testing.T) {
	ctx := context.Background()

	t.Run("Debounced save", func(t *testing.T) {
		saver := persist.NewMemorySaver()
		s := newSession(t,
			session.WithContent(`<p>hello</p>`),
			session.WithSaver(saver),
			session.WithSaveDebounce(50*time.Millisecond))

		status, err := s.Status()
		assert.Equal(t, session.SaveIdle, status)
		assert.NoError(t, err)

		for _, word := range []string{" a", " b", " c"} {
			require.NoError(t, s.Exec(ctx, editor.ReplaceText{From: len(s.Text()), To: len(s.Text()), Text: word}))
		}

		assert.Eventually(t, func() bool {
			status, _ := s.Status()
			return status == session.SaveSucceeded
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, saver.Saves())
		assert.False(t, s.Dirty())

		content, err := saver.Load(ctx, "lesson-1")
		require.NoError(t, err)
		assert.Equal(t, "<p>hello a b c</p>", content.HTML)
		assert.Equal(t, "hello a b c", content.Markdown)
	})

	t.Run("Failed save", func(t *testing.T) {
		s := newSession(t,
			session.WithContent(`<p>hello</p>`),
			session.WithSaver(failingSaver{}),
			session.WithSaveDebounce(10*time.Millisecond))

		require.NoError(t, s.Exec(ctx, editor.ReplaceText{From: 5, To: 5, Text: "!"}))
		assert.Eventually(t, func() bool {
			status, _ := s.Status()
			return status == session.SaveFailed
		}, time.Second, 5*time.Millisecond)
		_, err := s.Status()
		assert.ErrorContains(t, err, "backend unavailable")

		// Editing continues
		require.NoError(t, s.Exec(ctx, editor.ReplaceText{From: 6, To: 6, Text: "!"}))
		assert.Equal(t, "hello!!", s.Text())
		assert.True(t, s.Dirty())
	})

	t.Run("Save skips unchanged content", func(t *testing.T) {
		saver := persist.NewMemorySaver()
		s := newSession(t, session.WithContent(`<p>hello</p>`), session.WithSaver(saver), session.WithSaveDebounce(time.Hour))

		require.NoError(t, s.Save(ctx))
		assert.Equal(t, 0, saver.Saves())
		require.NoError(t, s.SetContent(`<p>changed</p>`))
		require.NoError(t, s.Save(ctx))
		require.NoError(t, s.Save(ctx))
		assert.Equal(t, 1, saver.Saves())
	})

	t.Run("Interval snapshots", func(t *testing.T) {
		store := version.NewStore(version.NewMemoryStore(), "test")
		s := newSession(t,
			session.WithContent(`<p>first</p>`),
			session.WithVersions(store),
			session.WithSnapshotInterval(10*time.Millisecond))

		assert.Eventually(t, func() bool {
			versions, err := s.Versions(ctx)
			return err == nil && len(versions) == 1
		}, time.Second, 5*time.Millisecond)

		// Identical content is not saved twice
		time.Sleep(50 * time.Millisecond)
		versions, err := s.Versions(ctx)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
		assert.Equal(t, "<p>first</p>", versions[0].HTML)
	})

	t.Run("Empty document is not snapshotted", func(t *testing.T) {
		store := version.NewStore(version.NewMemoryStore(), "test")
		s := newSession(t, session.WithVersions(store), session.WithSnapshotInterval(5*time.Millisecond))

		time.Sleep(50 * time.Millisecond)
		versions, err := s.Versions(ctx)
		require.NoError(t, err)
		assert.Empty(t, versions)
	})
}

func TestSessionVersions(t *testing.T) {
	ctx := context.Background()
	store := version.NewStore(version.NewMemoryStore(), "test")
	s := newSession(t, session.WithContent(`<p>one</p>`), session.WithVersions(store), session.WithSnapshotInterval(time.Hour))

	_, saved, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	_, saved, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, s.SetContent(`<p>two</p>`))
	_, _, err = s.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.RestoreVersion(ctx, 1))
	assert.Equal(t, "one", s.Text())
	assert.True(t, s.Undo())
	assert.Equal(t, "two", s.Text())

	assert.ErrorIs(t, s.RestoreVersion(ctx, 5), version.ErrVersionNotFound)
}

func TestSessionGenerate(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	generator := session.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "**Title:** Color Theory\nDuration: 30 min\nObjectives: Learn the color wheel\nIntroduction\nColors mix.", nil
	})
	md, err := s.Generate(ctx, generator, "color theory")
	require.NoError(t, err)
	assert.Equal(t, "# Color Theory\n\n*Duration: 30 min*\n\n## Learning Objectives\n\nLearn the color wheel\n\n## Lesson Content\n\n### Introduction\n\nColors mix.", md)

	outline := s.Outline()
	require.NotEmpty(t, outline)
	assert.Equal(t, 1, outline[0].Level)
	assert.Equal(t, "Color Theory", outline[0].Title)

	preview, err := s.Preview()
	require.NoError(t, err)
	assert.Contains(t, preview, "Color Theory</h1>")

	failing := session.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	_, err = s.Generate(ctx, failing, "color theory")
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Contains(t, s.Text(), "Color Theory")
}

func TestSessionLoad(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	loader := remote.NewLoader(nil)

	require.NoError(t, s.Load(ctx, loader, remote.Source("# Grid\n\n## Lesson Content\n\nGrids are great.")))
	assert.Equal(t, "Grid\nLesson Content\nGrids are great.", s.Text())

	require.NoError(t, s.Load(ctx, loader, remote.Source("Learning Objectives\n- Read a chart")))
	assert.Contains(t, s.HTML(), "<h2>Learning Objectives</h2>")
	assert.Contains(t, s.HTML(), "Untitled Lesson")

	err := s.Load(ctx, loader, remote.Source("s3://lessons/missing.md"))
	assert.Error(t, err)
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	saver := persist.NewMemorySaver()
	s := session.New("lesson-1", session.WithContent(`<p>draft</p>`), session.WithSaver(saver), session.WithSaveDebounce(time.Hour))

	require.NoError(t, s.Exec(ctx, editor.ReplaceText{From: 5, To: 5, Text: "!"}))
	require.NoError(t, s.Close())

	// Pending changes are saved on close
	assert.Equal(t, 1, saver.Saves())
	content, err := saver.Load(ctx, "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "draft!", content.Markdown)

	assert.ErrorIs(t, s.Exec(ctx, editor.ReplaceText{From: 0, To: 0, Text: "x"}), session.ErrClosed)
	assert.NoError(t, s.Close())
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		RootDirectory: t.TempDir(),
		ConfigFile:    *config.DefaultConfigFile(),
	}
	cfg.ConfigFile.Versions.Store = "memory"
	cfg.ConfigFile.Persist.Type = "file"
	cfg.ConfigFile.Persist.Dir = "lessons"

	s, err := session.NewFromConfig(ctx, cfg, "intro")
	require.NoError(t, err)
	require.NoError(t, s.SetContent(`<h1>Intro</h1><p>Welcome</p>`))
	require.NoError(t, s.Close())

	saver, err := persist.NewFileSaver(filepath.Join(cfg.RootDirectory, "lessons"))
	require.NoError(t, err)
	content, err := saver.Load(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Intro\n\nWelcome", content.Markdown)

	cfg.ConfigFile.Persist.Type = "unknown"
	_, err = session.NewFromConfig(ctx, cfg, "intro")
	assert.Error(t, err)
}
