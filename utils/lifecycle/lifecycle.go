// Package lifecycle runs an instance's Step loop on its own goroutine and shuts it down once.
package lifecycle

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/ugparu/mp4mux/utils/logger"
)

type Instance interface {
	Close_() //nolint:revive
	String() string
}

type AsyncInstance interface {
	Instance
	Step(stopChan <-chan struct{}) error
}

type AsyncManager[T AsyncInstance] interface {
	Start(func(T) error) error
	Close()
	Done() <-chan struct{}
	Err() error // error that ended the loop, nil after a clean break
}

type BreakError struct{}

func (*BreakError) Error() string {
	return "break"
}

type StartedAlreadyError struct{}

func (*StartedAlreadyError) Error() string {
	return "started already"
}

type StartedAfterCloseError struct{}

func (*StartedAfterCloseError) Error() string {
	return "start after close"
}

var errBreak = &BreakError{}

type asyncLifecycleManager[T AsyncInstance] struct {
	instance             T
	stopChan, doneChan   chan struct{}
	startOnce, closeOnce *sync.Once
	errMu                sync.Mutex
	err                  error
}

func NewAsyncManager[T AsyncInstance](instance T) AsyncManager[T] {
	return &asyncLifecycleManager[T]{
		instance:  instance,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
		errMu:     sync.Mutex{},
		err:       nil,
	}
}

func (m *asyncLifecycleManager[T]) Start(startFunc func(T) error) (err error) {
	select {
	case <-m.stopChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	m.startOnce.Do(func() {
		logger.Debugf(m.instance, "Starting async")
		if err = startFunc(m.instance); err != nil {
			m.setErr(err)
			close(m.doneChan)
			return
		}
		go m.process()
	})
	return err
}

func (m *asyncLifecycleManager[T]) process() {
	logger.Debug(m.instance, "Entering main loop")

	defer close(m.doneChan)
	for m.step() {
	}
}

func (m *asyncLifecycleManager[T]) step() (running bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(m.instance, "Panic detected! Recovering from: %v", r)
			logger.Errorf(m.instance, "%s", debug.Stack())
			m.setErr(fmt.Errorf("panic: %v", r))
			running = false
		}
	}()
	if err := m.instance.Step(m.stopChan); err != nil {
		if !errors.As(err, &errBreak) {
			logger.Warningf(m.instance, "Detected error: %s", err.Error())
			m.setErr(err)
		}
		return false
	}
	return true
}

func (m *asyncLifecycleManager[T]) setErr(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.err == nil {
		m.err = err
	}
}

func (m *asyncLifecycleManager[T]) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

func (m *asyncLifecycleManager[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.startOnce.Do(func() {
			close(m.doneChan)
		})
		<-m.doneChan
		m.instance.Close_()
	})
}

func (m *asyncLifecycleManager[T]) Done() <-chan struct{} {
	return m.doneChan
}
