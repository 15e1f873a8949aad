package version_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/version"
	"github.com/julien-sobczak/the-lessonwriter/pkg/clock"
	"github.com/julien-sobczak/the-lessonwriter/pkg/oid"
)

// localStores returns every implementation of LocalStore.
func localStores(t *testing.T) map[string]version.LocalStore {
	fileStore, err := version.NewFileStore(t.TempDir())
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]version.LocalStore{
		"memory": version.NewMemoryStore(),
		"file":   fileStore,
		"redis":  version.NewRedisStoreFromClient(client),
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	for name, store := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "lessonwriter.versions", `[{"id":"1"}]`))
			value, ok, err := store.Get(ctx, "lessonwriter.versions")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"1"}]`, value)

			require.NoError(t, store.Delete(ctx, "lessonwriter.versions"))
			_, ok, err = store.Get(ctx, "lessonwriter.versions")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting twice is not an error
			require.NoError(t, store.Delete(ctx, "lessonwriter.versions"))
		})
	}
}

func TestStore(t *testing.T) {
	oid.UseSequence(t)
	testClock := clock.FreezeAt(time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC))
	defer clock.Unfreeze()
	ctx := context.Background()

	for name, local := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			store := version.NewStore(local, "")
			assert.Equal(t, version.DefaultNamespace, store.Namespace())

			versions, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, versions)

			// Only the 5 most recent versions are kept
			for i := 1; i <= 7; i++ {
				testClock.FastForward(10 * time.Second)
				_, saved, err := store.Save(ctx, fmt.Sprintf("<p>Draft %d</p>", i))
				require.NoError(t, err)
				assert.True(t, saved)
			}
			versions, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, versions, version.MaxVersions)
			for i, v := range versions {
				assert.Equal(t, fmt.Sprintf("<p>Draft %d</p>", 7-i), v.HTML)
				assert.Equal(t, fmt.Sprintf("Draft %d", 7-i), v.Markdown)
				assert.False(t, v.ID.IsNil())
			}
			assert.True(t, versions[0].Timestamp.After(versions[1].Timestamp))

			// Identical content is not saved twice
			latest, saved, err := store.Save(ctx, "<p>Draft 7</p>")
			require.NoError(t, err)
			assert.False(t, saved)
			assert.Equal(t, versions[0].ID, latest.ID)

			restored, err := store.Restore(ctx, 4)
			require.NoError(t, err)
			assert.Equal(t, "<p>Draft 3</p>", restored.HTML)

			_, err = store.Restore(ctx, 5)
			assert.ErrorIs(t, err, version.ErrVersionNotFound)
			_, err = store.Restore(ctx, -1)
			assert.ErrorIs(t, err, version.ErrVersionNotFound)

			require.NoError(t, store.Clear(ctx))
			versions, err = store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, versions)
			_, err = store.Restore(ctx, 0)
			assert.ErrorIs(t, err, version.ErrVersionNotFound)
		})
	}
}

func TestStoreSharedNamespace(t *testing.T) {
	ctx := context.Background()
	local := version.NewMemoryStore()
	a := version.NewStore(local, "shared")
	b := version.NewStore(local, "shared")
	other := version.NewStore(local, "other")

	_, _, err := a.Save(ctx, "<p>From A</p>")
	require.NoError(t, err)

	versions, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "<p>From A</p>", versions[0].HTML)

	versions, err = other.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestStoreIgnoresInvalidContent(t *testing.T) {
	ctx := context.Background()
	local := version.NewMemoryStore()
	require.NoError(t, local.Set(ctx, version.DefaultNamespace, "{not json"))

	store := version.NewStore(local, version.DefaultNamespace)
	versions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, saved, err := store.Save(ctx, "<p>Hello</p>")
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestStoreDiff(t *testing.T) {
	ctx := context.Background()
	store := version.NewStore(version.NewMemoryStore(), "")
	_, _, err := store.Save(ctx, "<h1>Title</h1><p>Hello</p>")
	require.NoError(t, err)
	_, _, err = store.Save(ctx, "<h1>Title</h1><p>Hello world</p>")
	require.NoError(t, err)

	diff, err := store.Diff(ctx, 1, 0)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/lesson.md\n")
	assert.Contains(t, diff, "+++ b/lesson.md\n")
	assert.Contains(t, diff, "-Hello\n")
	assert.Contains(t, diff, "+Hello world\n")
	assert.Contains(t, diff, " # Title\n")

	_, err = store.Diff(ctx, 0, 2)
	assert.ErrorIs(t, err, version.ErrVersionNotFound)
}
