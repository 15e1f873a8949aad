// Package autosave schedules the two kinds of saves performed while editing:
// periodic local snapshots and debounced external saves.
package autosave

import (
	"sync"
	"time"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
)

// DefaultSnapshotInterval is the default interval between two local snapshots.
const DefaultSnapshotInterval = 10 * time.Second

// DefaultSaveDebounce is the default pause after which content is saved externally.
const DefaultSaveDebounce = config.MinSaveDebounce

// Option configures a Ticker or a Debouncer.
type Option func(*scheduler)

// WithEmptyCheck skips the callback while the function returns true.
func WithEmptyCheck(isEmpty func() bool) Option {
	return func(s *scheduler) {
		s.isEmpty = isEmpty
	}
}

// ClampDebounce bounds a debounce delay to the accepted range.
func ClampDebounce(d time.Duration) time.Duration {
	return min(max(d, config.MinSaveDebounce), config.MaxSaveDebounce)
}

// scheduler contains the logic shared by Ticker and Debouncer.
type scheduler struct {
	name     string
	callback func()
	isEmpty  func() bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newScheduler(name string, callback func(), opts ...Option) *scheduler {
	s := &scheduler{
		name:     name,
		callback: callback,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *scheduler) fire() {
	if s.isEmpty != nil && s.isEmpty() {
		logging.CurrentLogger().Trace("Skipping autosave of empty document", "scheduler", s.name)
		return
	}
	s.callback()
}

// Stop stops the scheduler and waits for a running callback to complete.
// No callback fires after Stop returns.
func (s *scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

/*
 * Ticker
 */

// Ticker fires a callback at regular intervals.
type Ticker struct {
	*scheduler
	interval time.Duration
}

// NewTicker starts a ticker calling the callback every interval.
func NewTicker(interval time.Duration, callback func(), opts ...Option) *Ticker {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	t := &Ticker{
		scheduler: newScheduler("ticker", callback, opts...),
		interval:  interval,
	}
	go t.loop()
	return t
}

// Interval returns the duration between two callbacks.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

func (t *Ticker) loop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	defer close(t.done)

	for {
		select {
		case <-ticker.C:
			// Stop may have been requested while waiting
			select {
			case <-t.stop:
				return
			default:
			}
			t.fire()
		case <-t.stop:
			return
		}
	}
}

/*
 * Debouncer
 */

// Debouncer fires a callback once activity pauses for a given delay.
type Debouncer struct {
	*scheduler
	delay time.Duration
	touch chan struct{}
}

// NewDebouncer starts a debouncer. The callback fires once after each
// series of Touch calls separated by less than the delay.
func NewDebouncer(delay time.Duration, callback func(), opts ...Option) *Debouncer {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	d := &Debouncer{
		scheduler: newScheduler("debouncer", callback, opts...),
		delay:     delay,
		touch:     make(chan struct{}, 1),
	}
	go d.loop()
	return d
}

// Delay returns the pause after which the callback fires.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Touch signals an activity and postpones the callback.
func (d *Debouncer) Touch() {
	select {
	case d.touch <- struct{}{}:
	default:
		// A touch is already pending
	}
}

func (d *Debouncer) loop() {
	timer := time.NewTimer(d.delay)
	timer.Stop()
	defer timer.Stop()
	defer close(d.done)

	for {
		select {
		case <-d.touch:
			timer.Reset(d.delay)
		case <-timer.C:
			select {
			case <-d.stop:
				return
			default:
			}
			d.fire()
		case <-d.stop:
			return
		}
	}
}
