package app

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/stagehand/internal/logging"
	"github.com/dshills/stagehand/internal/stage"
)

// DefaultQueueSize is the task buffer of a Loop.
const DefaultQueueSize = 64

// Loop runs posted tasks one at a time on the goroutine calling Run. The
// scene is only touched from inside loop tasks.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	once    sync.Once
	running atomic.Bool
	log     *logging.Logger
}

// NewLoop creates a loop buffering up to size tasks.
func NewLoop(size int, log *logging.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = logging.Null()
	}
	return &Loop{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
		log:   log.WithComponent("loop"),
	}
}

// Post queues fn. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do runs fn on the loop and waits for its result. A panic in fn is
// returned as a *RecoveredPanicError.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			}
			result <- err
		}()
		err = fn()
	}
	if err := l.Post(task); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

// Stop ends Run and rejects further tasks.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Scheduler returns a stage.Scheduler whose callbacks run on the loop.
func (l *Loop) Scheduler() stage.Scheduler {
	return func(d time.Duration, fn func()) func() {
		t := time.AfterFunc(d, func() {
			if err := l.Post(fn); err != nil {
				l.log.Debug("drop timer task: %v", err)
			}
		})
		return func() { t.Stop() }
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
			l.log.Error("task panicked: %v", err.Value)
			l.log.Debug("%s", err.Stack)
		}
	}()
	fn()
}
