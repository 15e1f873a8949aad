package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/pkg/clock"
)

// ErrLessonNotFound is returned when loading a lesson never saved.
var ErrLessonNotFound = errors.New("lesson not found")

// Content is the saved representation of a lesson.
type Content struct {
	HTML      string
	Markdown  string
	UpdatedAt time.Time
}

// Saver pushes lesson content to a persistence backend.
type Saver interface {
	Save(ctx context.Context, lessonID string, content Content) error
	Load(ctx context.Context, lessonID string) (Content, error)
}

// NewSaverFromConfig creates the saver declared in the configuration.
func NewSaverFromConfig(ctx context.Context, cfg *config.Config) (Saver, error) {
	settings := cfg.ConfigFile.Persist
	switch settings.Type {
	case "memory":
		return NewMemorySaver(), nil
	case "file":
		dir := settings.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.RootDirectory, dir)
		}
		return NewFileSaver(dir)
	case "firestore":
		return NewFirestoreSaverForProject(ctx, settings.Project, settings.Collection)
	}
	return nil, fmt.Errorf("unsupported persist type %q", settings.Type)
}

/*
 * Memory
 */

// MemorySaver keeps lessons in memory.
type MemorySaver struct {
	mu      sync.RWMutex
	lessons map[string]Content
	saves   int
}

func NewMemorySaver() *MemorySaver {
	return &MemorySaver{
		lessons: make(map[string]Content),
	}
}

func (m *MemorySaver) Save(ctx context.Context, lessonID string, content Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if content.UpdatedAt.IsZero() {
		content.UpdatedAt = clock.Now()
	}
	m.lessons[lessonID] = content
	m.saves++
	return nil
}

func (m *MemorySaver) Load(ctx context.Context, lessonID string) (Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.lessons[lessonID]
	if !ok {
		return Content{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	return content, nil
}

// Saves returns the number of successful saves.
func (m *MemorySaver) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

/*
 * File
 */

// FileSaver writes <id>.html and <id>.md files in a directory.
type FileSaver struct {
	Dir string
}

func NewFileSaver(dir string) (*FileSaver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create lessons directory %q: %w", dir, err)
	}
	return &FileSaver{Dir: dir}, nil
}

func (f *FileSaver) Save(ctx context.Context, lessonID string, content Content) error {
	if err := validateID(lessonID); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(f.Dir, lessonID+".html"), []byte(content.HTML), 0644); err != nil {
		return fmt.Errorf("unable to save lesson %q: %w", lessonID, err)
	}
	if err := os.WriteFile(filepath.Join(f.Dir, lessonID+".md"), []byte(content.Markdown), 0644); err != nil {
		return fmt.Errorf("unable to save lesson %q: %w", lessonID, err)
	}
	return nil
}

func (f *FileSaver) Load(ctx context.Context, lessonID string) (Content, error) {
	if err := validateID(lessonID); err != nil {
		return Content{}, err
	}
	htmlPath := filepath.Join(f.Dir, lessonID+".html")
	html, err := os.ReadFile(htmlPath)
	if errors.Is(err, os.ErrNotExist) {
		return Content{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	if err != nil {
		return Content{}, err
	}
	md, err := os.ReadFile(filepath.Join(f.Dir, lessonID+".md"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Content{}, err
	}
	stat, err := os.Stat(htmlPath)
	if err != nil {
		return Content{}, err
	}
	return Content{
		HTML:      string(html),
		Markdown:  string(md),
		UpdatedAt: stat.ModTime(),
	}, nil
}

func validateID(lessonID string) error {
	if lessonID == "" || lessonID != filepath.Base(lessonID) || lessonID == "." || lessonID == ".." {
		return fmt.Errorf("invalid lesson ID %q", lessonID)
	}
	return nil
}
