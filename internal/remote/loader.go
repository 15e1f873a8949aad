package remote

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
)

// Supported reference schemes
const (
	SchemeFS = "fs://"
	SchemeS3 = "s3://"
)

// Source is the content of a lesson, either inline or referenced.
type Source string

// Reference returns the scheme and key of a referenced source.
func (s Source) Reference() (scheme string, key string, ok bool) {
	for _, prefix := range []string{SchemeFS, SchemeS3} {
		if rest, found := strings.CutPrefix(string(s), prefix); found {
			return prefix, rest, true
		}
	}
	return "", "", false
}

// IsInline returns true when the source is the content itself.
func (s Source) IsInline() bool {
	_, _, ok := s.Reference()
	return !ok
}

// Loader resolves sources to their content.
// References are fetched only when loaded.
type Loader struct {
	remote Remote
}

// NewLoader creates a loader. The remote resolves s3:// references and can
// be nil when only inline and fs:// sources are used.
func NewLoader(remote Remote) *Loader {
	return &Loader{remote: remote}
}

// Load returns the content of the source.
func (l *Loader) Load(ctx context.Context, source Source) (string, error) {
	scheme, key, ok := source.Reference()
	if !ok {
		return string(source), nil
	}
	logging.CurrentLogger().Debug("Loading lesson content", "source", string(source))

	switch scheme {
	case SchemeFS:
		data, err := os.ReadFile(key)
		if err != nil {
			return "", fmt.Errorf("unable to load %q: %w", source, err)
		}
		return string(data), nil
	case SchemeS3:
		if l.remote == nil {
			return "", fmt.Errorf("unable to load %q: no remote configured", source)
		}
		data, err := l.remote.GetObject(ctx, key)
		if err != nil {
			return "", fmt.Errorf("unable to load %q: %w", source, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported source %q", source)
}
