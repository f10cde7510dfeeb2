package capture

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/scribe"
)

// fakeSource hands the data callback to the test so it can inject PCM.
type fakeSource struct {
	startErr error
	onData   func([]byte)
	stopped  bool
}

func (f *fakeSource) start(onData func([]byte)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.onData = onData
	return nil
}

func (f *fakeSource) stop() error {
	f.stopped = true
	return nil
}

type fakeTranscriber struct {
	gotAudio []byte
	gotMime  string
	result   *scribe.TranscribeResult
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioData []byte, mimeType string) (*scribe.TranscribeResult, error) {
	f.gotAudio = audioData
	f.gotMime = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServerRecorder(source pcmSource, transcriber Transcriber) *ServerRecorder {
	return &ServerRecorder{
		settings:    conf.CaptureSettings{SampleRate: conf.DefaultSampleRate, Channels: conf.DefaultChannels},
		source:      source,
		transcriber: transcriber,
	}
}

func TestServerRecorderRoundTrip(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	transcriber := &fakeTranscriber{
		result: &scribe.TranscribeResult{Transcript: " Doctor: hello. ", DurationSec: 12.5},
	}
	r := newTestServerRecorder(source, transcriber)

	require.NoError(t, r.Start(context.Background()))
	source.onData(make([]byte, 32000))

	result, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.True(t, source.stopped)
	assert.Equal(t, "Doctor: hello.", result.Transcript)
	assert.InDelta(t, 12.5, result.DurationSec, 1e-9, "service-reported duration wins")
	assert.Equal(t, MethodServer, result.Method)
	assert.Equal(t, "audio/wav", transcriber.gotMime)

	// RIFF/WAVE container around the PCM.
	require.Greater(t, len(transcriber.gotAudio), 44)
	assert.Equal(t, "RIFF", string(transcriber.gotAudio[:4]))
	assert.Equal(t, "WAVE", string(transcriber.gotAudio[8:12]))
}

func TestServerRecorderComputesDurationFromPCM(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	transcriber := &fakeTranscriber{result: &scribe.TranscribeResult{Transcript: "hi"}}
	r := newTestServerRecorder(source, transcriber)

	require.NoError(t, r.Start(context.Background()))
	// One second of 16kHz mono S16.
	source.onData(make([]byte, 2*conf.DefaultSampleRate))

	result, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.DurationSec, 1e-9)
}

func TestServerRecorderRejectsEmptyRecording(t *testing.T) {
	t.Parallel()

	r := newTestServerRecorder(&fakeSource{}, &fakeTranscriber{})
	require.NoError(t, r.Start(context.Background()))

	_, err := r.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCapture))
}

func TestByteSliceToIntsDecodesLittleEndian(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 4)
	positive := int16(1000)
	negative := int16(-1000)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(positive))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(negative))

	samples := byteSliceToInts(pcm)
	require.Len(t, samples, 2)
	assert.Equal(t, 1000, samples[0])
	assert.Equal(t, -1000, samples[1])
}

type fakeRecognizer struct {
	startErr error
	onFinal  func(string)
	stopped  bool
}

func (f *fakeRecognizer) Start(ctx context.Context, onFinal func(string)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.onFinal = onFinal
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.stopped = true
	return nil
}

func TestOnDeviceRecorderJoinsUtterances(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{}
	r := NewOnDeviceRecorder(rec)

	require.NoError(t, r.Start(context.Background()))
	rec.onFinal("I have been")
	rec.onFinal(" feeling tired ")
	rec.onFinal("")
	rec.onFinal("for two weeks")

	result, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.stopped)
	assert.Equal(t, "I have been feeling tired for two weeks", result.Transcript)
	assert.Equal(t, MethodOnDevice, result.Method)
}

func TestOnDeviceRecorderStopWithoutStart(t *testing.T) {
	t.Parallel()

	r := NewOnDeviceRecorder(&fakeRecognizer{})
	_, err := r.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

// scriptedRecorder is a Recorder the selector tests control directly.
type scriptedRecorder struct {
	method   Method
	startErr error
	result   Result
	started  bool
	stopped  bool
}

func (s *scriptedRecorder) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *scriptedRecorder) Stop(ctx context.Context) (Result, error) {
	s.stopped = true
	return s.result, nil
}

func (s *scriptedRecorder) Method() Method { return s.method }

func captureError(msg string) error {
	return errors.Newf("%s", msg).Category(errors.CategoryCapture).Build()
}

func TestSelectorPrefersFirstWorkingPath(t *testing.T) {
	t.Parallel()

	server := &scriptedRecorder{method: MethodServer, result: Result{Transcript: "hi", Method: MethodServer}}
	onDevice := &scriptedRecorder{method: MethodOnDevice}
	s := NewSelector(server, onDevice)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateCapturing, s.State())
	assert.Equal(t, MethodServer, s.Method())
	assert.False(t, onDevice.started, "fallback path never probed")

	result, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Transcript)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, MethodNone, s.Method())
}

func TestSelectorFallsBackToOnDevice(t *testing.T) {
	t.Parallel()

	server := &scriptedRecorder{method: MethodServer, startErr: captureError("service unreachable")}
	onDevice := &scriptedRecorder{method: MethodOnDevice}
	s := NewSelector(server, onDevice)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, MethodOnDevice, s.Method())
	assert.Empty(t, s.LastError())
}

func TestSelectorStaysIdleWhenAllPathsFail(t *testing.T) {
	t.Parallel()

	server := &scriptedRecorder{method: MethodServer, startErr: captureError("service unreachable")}
	onDevice := &scriptedRecorder{method: MethodOnDevice, startErr: captureError("no recognizer")}
	s := NewSelector(server, onDevice)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, MethodNone, s.Method())
	assert.NotEmpty(t, s.LastError())
}

func TestSelectorStopWhileIdleIsNoOp(t *testing.T) {
	t.Parallel()

	s := NewSelector(&scriptedRecorder{method: MethodServer})
	result, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Transcript)
}

func TestSelectorRejectsDoubleStart(t *testing.T) {
	t.Parallel()

	s := NewSelector(&scriptedRecorder{method: MethodServer})
	require.NoError(t, s.Start(context.Background()))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}
