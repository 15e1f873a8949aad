package session

import (
	"context"
	"fmt"
	"io"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/persist"
	"github.com/julien-sobczak/the-lessonwriter/internal/slash"
	"github.com/julien-sobczak/the-lessonwriter/internal/version"
)

// NewFromConfig starts a session using the stores declared in the configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, lessonID string, opts ...Option) (*Session, error) {
	local, err := version.NewLocalStoreFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create version store: %w", err)
	}
	saver, err := persist.NewSaverFromConfig(ctx, cfg)
	if err != nil {
		closeIfCloser(local)
		return nil, fmt.Errorf("unable to create saver: %w", err)
	}

	templates := slash.DefaultTemplates()
	if cfg.ConfigFile.Slash.Templates != "" {
		extra, err := slash.LoadTemplatesFile(cfg.Path(cfg.ConfigFile.Slash.Templates))
		if err != nil {
			closeIfCloser(local)
			closeIfCloser(saver)
			return nil, err
		}
		templates = slash.MergeTemplates(templates, extra)
	}

	defaults := []Option{
		WithVersions(version.NewStore(local, cfg.ConfigFile.Versions.Namespace)),
		WithSaver(saver),
		WithTemplates(templates),
		WithTrigger(cfg.ConfigFile.Slash.Trigger),
		WithHistoryDepth(cfg.ConfigFile.Editor.HistoryDepth),
		WithSnapshotInterval(cfg.ConfigFile.SnapshotInterval()),
		WithSaveDebounce(cfg.ConfigFile.SaveDebounce()),
	}
	if c, ok := local.(io.Closer); ok {
		defaults = append(defaults, withCloser(c))
	}
	if c, ok := saver.(io.Closer); ok {
		defaults = append(defaults, withCloser(c))
	}
	return New(lessonID, append(defaults, opts...)...), nil
}

func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
