package capture

import (
	"context"
	"sync"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// Selector probes capture paths in preference order and drives the
// recording lifecycle: idle, capturing, finalizing, idle. Stop while
// idle is a no-op, so a double stop cannot fail a recording.
type Selector struct {
	recorders []Recorder

	mu      sync.Mutex
	state   State
	active  Recorder
	lastErr string
}

// NewSelector creates a selector over the given recorders. Order is
// preference order, server path first.
func NewSelector(recorders ...Recorder) *Selector {
	return &Selector{recorders: recorders, state: StateIdle}
}

// State reports the lifecycle position.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Method reports the active capture path, MethodNone while idle.
func (s *Selector) Method() Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return MethodNone
	}
	return s.active.Method()
}

// LastError reports why the most recent start attempt failed, empty
// after a successful start.
func (s *Selector) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start probes each recorder in order and begins capturing on the first
// that starts. When every path fails the selector stays idle and the
// combined failure is returned and retained for observers.
func (s *Selector) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return errors.Newf("recording already in progress").
			Category(errors.CategoryState).
			Build()
	}

	var firstErr error
	for _, recorder := range s.recorders {
		err := recorder.Start(ctx)
		if err == nil {
			s.state = StateCapturing
			s.active = recorder
			s.lastErr = ""
			logger.Info("capture path selected", "method", string(recorder.Method()))
			return nil
		}
		logger.Warn("capture path unavailable",
			"method", string(recorder.Method()),
			"error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = errors.Newf("no capture path configured").
			Category(errors.CategoryCapture).
			Build()
	}
	err := errors.Wrap(firstErr).
		Category(errors.CategoryCapture).
		Context("operation", "start_recording").
		Build()
	s.lastErr = err.Error()
	return err
}

// Stop finalizes the active recording. While idle it returns an empty
// result without error.
func (s *Selector) Stop(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return Result{}, nil
	}
	s.state = StateFinalizing
	recorder := s.active
	s.mu.Unlock()

	result, err := recorder.Stop(ctx)

	s.mu.Lock()
	s.state = StateIdle
	s.active = nil
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()

	return result, err
}
