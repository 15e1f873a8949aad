package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	godiffpatch "github.com/sourcegraph/go-diff-patch"

	"github.com/julien-sobczak/the-lessonwriter/internal/helpers"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/pkg/clock"
	"github.com/julien-sobczak/the-lessonwriter/pkg/oid"
)

// MaxVersions is the number of snapshots kept. Older ones are discarded.
const MaxVersions = 5

// DefaultNamespace is the key under which snapshots are stored.
const DefaultNamespace = "lessonwriter.versions"

// ErrVersionNotFound is returned when restoring an unknown version.
var ErrVersionNotFound = errors.New("version not found")

// Version is a snapshot of the editor content.
type Version struct {
	ID        oid.OID   `json:"id"`
	HTML      string    `json:"html"`
	Markdown  string    `json:"markdown"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// NewVersion creates a snapshot of the given HTML.
func NewVersion(html string) Version {
	return Version{
		ID:        oid.New(),
		HTML:      html,
		Markdown:  markdown.HTMLToMarkdown(html),
		Hash:      helpers.Hash([]byte(html)),
		Timestamp: clock.Now(),
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%s (%s)", v.ID.Short(), v.Timestamp.Format(time.RFC3339))
}

// Store keeps the latest snapshots, newest first.
//
// All snapshots are saved under a single namespace key. Editors sharing
// the same namespace share the same history.
type Store struct {
	mu        sync.Mutex
	local     LocalStore
	namespace string
}

// NewStore creates a store saving snapshots in the local store under the namespace key.
func NewStore(local LocalStore, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		local:     local,
		namespace: namespace,
	}
}

// Namespace returns the key used in the local store.
func (s *Store) Namespace() string {
	return s.namespace
}

// Save prepends a snapshot of the HTML and discards the oldest ones.
// A snapshot identical to the latest one is not saved again, in which
// case the latest version is returned with false.
func (s *Store) Save(ctx context.Context, html string) (Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.load(ctx)
	if err != nil {
		return Version{}, false, err
	}

	version := NewVersion(html)
	if len(versions) > 0 && versions[0].Hash == version.Hash {
		logging.CurrentLogger().Trace("Skipping identical snapshot", "version", versions[0].ID.Short())
		return versions[0], false, nil
	}

	versions = append([]Version{version}, versions...)
	if len(versions) > MaxVersions {
		versions = versions[:MaxVersions]
	}
	if err := s.save(ctx, versions); err != nil {
		return Version{}, false, err
	}
	logging.CurrentLogger().Debug("Saved version", "version", version.ID.Short(), "count", len(versions))
	return version, true, nil
}

// List returns the snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Restore returns the snapshot at the given index (0 is the newest).
func (s *Store) Restore(ctx context.Context, index int) (Version, error) {
	versions, err := s.List(ctx)
	if err != nil {
		return Version{}, err
	}
	if index < 0 || index >= len(versions) {
		return Version{}, fmt.Errorf("%w: index %d (%d available)", ErrVersionNotFound, index, len(versions))
	}
	return versions[index], nil
}

// Clear removes all snapshots.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Delete(ctx, s.namespace); err != nil {
		return fmt.Errorf("unable to clear versions: %w", err)
	}
	return nil
}

// Diff returns the unified diff between the Markdown of two snapshots.
func (s *Store) Diff(ctx context.Context, from, to int) (string, error) {
	versions, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	for _, index := range []int{from, to} {
		if index < 0 || index >= len(versions) {
			return "", fmt.Errorf("%w: index %d (%d available)", ErrVersionNotFound, index, len(versions))
		}
	}
	return godiffpatch.GeneratePatch("lesson.md", versions[from].Markdown+"\n", versions[to].Markdown+"\n"), nil
}

func (s *Store) load(ctx context.Context) ([]Version, error) {
	value, ok, err := s.local.Get(ctx, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("unable to read versions: %w", err)
	}
	if !ok || value == "" {
		return nil, nil
	}
	var versions []Version
	if err := json.Unmarshal([]byte(value), &versions); err != nil {
		// Corrupted history is discarded rather than blocking the editor
		logging.CurrentLogger().Warn("Ignoring invalid versions", "namespace", s.namespace, "err", err)
		return nil, nil
	}
	return versions, nil
}

func (s *Store) save(ctx context.Context, versions []Version) error {
	value, err := json.Marshal(versions)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, s.namespace, string(value)); err != nil {
		return fmt.Errorf("unable to write versions: %w", err)
	}
	return nil
}
