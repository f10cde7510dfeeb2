package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// Recognizer is a local speech recognition engine emitting finalized
// utterances while listening.
type Recognizer interface {
	// Start begins recognition. onFinal is called once per finalized
	// utterance, in order.
	Start(ctx context.Context, onFinal func(text string)) error
	Stop() error
}

// OnDeviceRecorder records through a local recognizer. Finalized
// utterances are concatenated with single spaces into one raw
// transcript.
type OnDeviceRecorder struct {
	recognizer Recognizer

	mu        sync.Mutex
	capturing bool
	parts     []string
	startedAt time.Time
}

// NewOnDeviceRecorder creates a recorder over the given recognizer.
func NewOnDeviceRecorder(recognizer Recognizer) *OnDeviceRecorder {
	return &OnDeviceRecorder{recognizer: recognizer}
}

func (r *OnDeviceRecorder) Method() Method { return MethodOnDevice }

// Start begins local recognition.
func (r *OnDeviceRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capturing {
		return errors.Newf("recorder already capturing").
			Category(errors.CategoryState).
			Build()
	}
	r.parts = r.parts[:0]

	if err := r.recognizer.Start(ctx, r.collect); err != nil {
		return err
	}
	r.capturing = true
	r.startedAt = time.Now()
	logger.Info("on-device capture started")
	return nil
}

// Stop ends recognition and assembles the transcript.
func (r *OnDeviceRecorder) Stop(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return Result{}, errors.Newf("recorder not capturing").
			Category(errors.CategoryState).
			Build()
	}
	r.capturing = false
	duration := time.Since(r.startedAt).Seconds()
	r.mu.Unlock()

	if err := r.recognizer.Stop(); err != nil {
		return Result{}, errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "stop_recognizer").
			Build()
	}

	r.mu.Lock()
	transcript := strings.Join(r.parts, " ")
	r.mu.Unlock()

	logger.Info("on-device capture finished",
		"utterances", len(r.parts),
		"duration_sec", duration)
	return Result{
		Transcript:  transcript,
		DurationSec: duration,
		Method:      MethodOnDevice,
	}, nil
}

func (r *OnDeviceRecorder) collect(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.mu.Lock()
	r.parts = append(r.parts, text)
	r.mu.Unlock()
}
