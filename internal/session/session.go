// Package session binds the editing pipeline together: a session owns the
// editor of one lesson and schedules its snapshots and external saves.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/julien-sobczak/the-lessonwriter/internal/autosave"
	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/helpers"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
	"github.com/julien-sobczak/the-lessonwriter/internal/paste"
	"github.com/julien-sobczak/the-lessonwriter/internal/persist"
	"github.com/julien-sobczak/the-lessonwriter/internal/search"
	"github.com/julien-sobczak/the-lessonwriter/internal/slash"
	"github.com/julien-sobczak/the-lessonwriter/internal/version"
	"github.com/julien-sobczak/the-lessonwriter/pkg/oid"
)

// ErrClosed is returned when using a closed session.
var ErrClosed = errors.New("session closed")

// SaveStatus reports the state of the external save.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveInProgress
	SaveSucceeded
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveInProgress:
		return "saving"
	case SaveSucceeded:
		return "saved"
	case SaveFailed:
		return "failed"
	}
	return "unknown"
}

// Session is the editing session of a single lesson.
//
// Every document mutation is serialized behind a mutex. Timers run on
// their own goroutines and call back into the session.
type Session struct {
	mu sync.Mutex

	id       oid.OID
	lessonID string

	editor   *editor.Editor
	slash    *slash.Engine
	search   *search.Engine
	versions *version.Store
	saver    persist.Saver

	snapshots *autosave.Ticker
	debouncer *autosave.Debouncer

	status    SaveStatus
	lastErr   error
	savedHash string
	dirty     bool
	closed    bool

	// Resources owned by the session
	closers []io.Closer
}

type options struct {
	content          string
	versions         *version.Store
	saver            persist.Saver
	templates        []slash.Template
	trigger          string
	prompter         editor.Prompter
	historyDepth     int
	snapshotInterval time.Duration
	saveDebounce     time.Duration
	closers          []io.Closer
}

// Option configures a session.
type Option func(*options)

// WithContent sets the initial HTML content.
func WithContent(html string) Option {
	return func(o *options) {
		o.content = html
	}
}

// WithVersions sets the store receiving periodic snapshots.
func WithVersions(store *version.Store) Option {
	return func(o *options) {
		o.versions = store
	}
}

// WithSaver sets the persistence backend.
func WithSaver(saver persist.Saver) Option {
	return func(o *options) {
		o.saver = saver
	}
}

// WithTemplates sets the templates of the slash menu.
func WithTemplates(templates []slash.Template) Option {
	return func(o *options) {
		o.templates = templates
	}
}

// WithTrigger sets the key opening the slash menu.
func WithTrigger(trigger string) Option {
	return func(o *options) {
		o.trigger = trigger
	}
}

// WithPrompter sets the collaborator answering editor questions (ex: link URL).
func WithPrompter(prompter editor.Prompter) Option {
	return func(o *options) {
		o.prompter = prompter
	}
}

// WithHistoryDepth bounds the undo history.
func WithHistoryDepth(depth int) Option {
	return func(o *options) {
		o.historyDepth = depth
	}
}

// WithSnapshotInterval sets the interval between local snapshots.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(o *options) {
		o.snapshotInterval = interval
	}
}

// WithSaveDebounce sets the pause after which content is saved externally.
// The value is not clamped, making short delays possible in tests.
func WithSaveDebounce(delay time.Duration) Option {
	return func(o *options) {
		o.saveDebounce = delay
	}
}

// withCloser registers a resource closed with the session.
func withCloser(c io.Closer) Option {
	return func(o *options) {
		o.closers = append(o.closers, c)
	}
}

// New starts a session editing the given lesson.
func New(lessonID string, opts ...Option) *Session {
	o := options{
		snapshotInterval: autosave.DefaultSnapshotInterval,
		saveDebounce:     autosave.DefaultSaveDebounce,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		id:       oid.New(),
		lessonID: lessonID,
		versions: o.versions,
		saver:    o.saver,
		closers:  o.closers,
	}

	editorOpts := []editor.Option{
		editor.WithOnUpdate(s.onUpdate),
		editor.WithHistoryDepth(o.historyDepth),
	}
	if o.content != "" {
		editorOpts = append(editorOpts, editor.WithContent(o.content))
	}
	if o.prompter != nil {
		editorOpts = append(editorOpts, editor.WithPrompter(o.prompter))
	}
	s.editor = editor.New(editorOpts...)
	s.savedHash = helpers.HashString(s.editor.HTML())

	var slashOpts []slash.Option
	if o.trigger != "" {
		slashOpts = append(slashOpts, slash.WithTrigger(o.trigger))
	}
	if o.templates != nil {
		slashOpts = append(slashOpts, slash.WithTemplates(o.templates))
	}
	s.slash = slash.NewEngine(s.editor, slashOpts...)
	s.search = search.NewEngine(s.editor)

	if s.versions != nil {
		s.snapshots = autosave.NewTicker(o.snapshotInterval, s.autoSnapshot, autosave.WithEmptyCheck(s.IsEmpty))
	}
	if s.saver != nil {
		s.debouncer = autosave.NewDebouncer(o.saveDebounce, s.autoSave, autosave.WithEmptyCheck(s.IsEmpty))
	}

	logging.CurrentLogger().Debug("Session started", "session", s.id.Short(), "lesson", lessonID)
	return s
}

// ID returns the unique identifier of the session.
func (s *Session) ID() oid.OID {
	return s.id
}

// LessonID returns the identifier of the edited lesson.
func (s *Session) LessonID() string {
	return s.lessonID
}

// onUpdate is called by the editor after each change, the lock being held.
func (s *Session) onUpdate(doc editor.Document) {
	s.dirty = true
	if s.search.Query() != "" {
		s.search.Refresh()
	}
	if s.debouncer != nil {
		s.debouncer.Touch()
	}
}

/*
 * Editing
 */

// Exec runs an editor command.
func (s *Session) Exec(ctx context.Context, cmd editor.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.editor.Exec(ctx, cmd)
}

// Select moves the selection.
func (s *Session) Select(anchor, head int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Select(anchor, head)
}

// Undo reverts the last change.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Undo()
}

// Redo reapplies the last reverted change.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Redo()
}

// SetContent replaces the whole document.
func (s *Session) SetContent(html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.editor.SetContent(html)
}

// Paste inserts clipboard content after sanitization.
func (s *Session) Paste(ctx context.Context, payload paste.Payload) (paste.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return paste.Result{}, ErrClosed
	}
	return paste.Apply(ctx, s.editor, payload)
}

// HandleKey forwards a key to the slash menu. It returns true when the key
// was consumed by the menu.
func (s *Session) HandleKey(ctx context.Context, event slash.KeyEvent, cursor slash.CursorRect, viewport slash.Viewport) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	return s.slash.HandleKey(ctx, event, cursor, viewport)
}

// InsertTemplate inserts a slash template by ID.
func (s *Session) InsertTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.slash.SelectID(ctx, id)
}

// Focus gives the focus to the editor.
func (s *Session) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Focus()
}

// Blur removes the focus from the editor and closes the slash menu.
func (s *Session) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Blur()
	s.slash.Blur()
}

// Focused returns true when the editor has the focus.
func (s *Session) Focused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Focused()
}

// SlashMenu returns the state of the slash menu and its visible entries.
func (s *Session) SlashMenu() (slash.State, []slash.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slash.State(), s.slash.Items()
}

/*
 * Content
 */

// HTML returns the document content.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.HTML()
}

// Text returns the plain text of the document.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Text()
}

// Markdown returns the document converted to Markdown.
func (s *Session) Markdown() string {
	return markdown.HTMLToMarkdown(s.HTML())
}

// IsEmpty returns true when the document has no meaningful content.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.IsEmpty()
}

// Dirty returns true when the content changed since the last external save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

/*
 * Find & Replace
 */

// Find searches the query and returns the number of matches.
func (s *Session) Find(query string, opts search.Options) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetOptions(opts)
	return s.search.SetQuery(query)
}

// FindNext moves to the next match and returns its index.
func (s *Session) FindNext() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search.Next()
}

// FindPrevious moves to the previous match and returns its index.
func (s *Session) FindPrevious() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search.Previous()
}

// Matches returns the number of matches and the index of the current one.
func (s *Session) Matches() (count int, current int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search.Count(), s.search.Current()
}

// Replace replaces the current match.
func (s *Session) Replace(replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.search.SetReplacement(replacement)
	return s.search.ReplaceOne()
}

// ReplaceAll replaces every match in a single change.
func (s *Session) ReplaceAll(replacement string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.search.SetReplacement(replacement)
	return s.search.ReplaceAll()
}

// Highlighted returns the document HTML with the matches highlighted.
// The result is meant for display only.
func (s *Session) Highlighted() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search.Highlight()
}

// ClearSearch removes the query.
func (s *Session) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Clear()
}

/*
 * Versions
 */

// Snapshot saves a local version of the document.
func (s *Session) Snapshot(ctx context.Context) (version.Version, bool, error) {
	if s.versions == nil {
		return version.Version{}, false, errors.New("no version store")
	}
	html, err := s.exportHTML()
	if err != nil {
		return version.Version{}, false, err
	}
	return s.versions.Save(ctx, html)
}

// Versions returns the local versions, newest first.
func (s *Session) Versions(ctx context.Context) ([]version.Version, error) {
	if s.versions == nil {
		return nil, nil
	}
	return s.versions.List(ctx)
}

// RestoreVersion replaces the document by a local version.
// The restoration can be undone.
func (s *Session) RestoreVersion(ctx context.Context, index int) error {
	if s.versions == nil {
		return version.ErrVersionNotFound
	}
	v, err := s.versions.Restore(ctx, index)
	if err != nil {
		return err
	}
	return s.SetContent(v.HTML)
}

func (s *Session) autoSnapshot() {
	if _, _, err := s.Snapshot(context.Background()); err != nil {
		logging.CurrentLogger().Warn("Failed to save local version", "session", s.id.Short(), "err", err)
	}
}

/*
 * External save
 */

// Status returns the state of the external save and the last error.
func (s *Session) Status() (SaveStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

// Save pushes the content to the persistence backend now.
// Unchanged content is not saved again.
func (s *Session) Save(ctx context.Context) error {
	if s.saver == nil {
		return errors.New("no saver")
	}

	s.mu.Lock()
	// Highlights are never part of the document: the hash uses the raw content
	current := s.editor.HTML()
	hash := helpers.HashString(current)
	if hash == s.savedHash && s.status != SaveFailed {
		s.dirty = false
		s.mu.Unlock()
		return nil
	}
	html, err := search.StripHighlights(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.status = SaveInProgress
	s.mu.Unlock()

	content := persist.Content{
		HTML:     html,
		Markdown: markdown.HTMLToMarkdown(html),
	}
	err = s.saver.Save(ctx, s.lessonID, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = SaveFailed
		s.lastErr = err
		logging.CurrentLogger().Error("Failed to save lesson", "lesson", s.lessonID, "err", err)
		return fmt.Errorf("unable to save lesson %q: %w", s.lessonID, err)
	}
	s.status = SaveSucceeded
	s.lastErr = nil
	s.savedHash = hash
	if helpers.HashString(s.editor.HTML()) == hash {
		s.dirty = false
	}
	logging.CurrentLogger().Debug("Saved lesson", "lesson", s.lessonID)
	return nil
}

func (s *Session) autoSave() {
	// Errors are exposed through Status()
	_ = s.Save(context.Background())
}

func (s *Session) exportHTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.StripHighlights(s.editor.HTML())
}

/*
 * Lifecycle
 */

// Close stops the schedulers, waits for a running save, saves pending
// changes, and releases the resources owned by the session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// Schedulers call back into the session: stop them without the lock
	if s.snapshots != nil {
		s.snapshots.Stop()
	}
	if s.debouncer != nil {
		s.debouncer.Stop()
	}

	var err error
	if s.saver != nil && s.Dirty() && !s.IsEmpty() {
		err = multierr.Append(err, s.Save(context.Background()))
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	logging.CurrentLogger().Debug("Session closed", "session", s.id.Short())
	return err
}
