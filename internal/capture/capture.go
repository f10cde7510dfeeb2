// Package capture records consultation audio and turns it into a raw
// transcript. Two capture paths exist: the server path streams PCM from
// the soundcard and sends it to the scribe transcription service, the
// on-device path uses a local speech recognizer. A selector probes the
// server path first and falls back to on-device.
package capture

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/deeperscribe/deeperscribe/internal/logging"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "capture.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "capture", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize capture file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "capture")
		closeLogger = func() error { return nil }
	}
}

// Method identifies which capture path produced a transcript.
type Method string

const (
	MethodNone     Method = "none"
	MethodServer   Method = "server"
	MethodOnDevice Method = "on-device"
)

// State is the recording lifecycle position of the selector.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateFinalizing State = "finalizing"
)

// Result is a finished recording.
type Result struct {
	Transcript  string
	DurationSec float64
	Method      Method
}

// Recorder is one capture path. Start begins capturing, Stop finalizes
// and returns the transcript.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (Result, error)
	Method() Method
}
