package capture

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/scribe"
)

// Transcriber is the slice of the scribe client the server recorder
// needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audioData []byte, mimeType string) (*scribe.TranscribeResult, error)
}

// pcmSource abstracts the soundcard so tests can feed synthetic PCM.
type pcmSource interface {
	start(onData func([]byte)) error
	stop() error
}

// ServerRecorder captures S16LE PCM from the soundcard and sends the
// finished recording to the transcription service as WAV.
type ServerRecorder struct {
	settings    conf.CaptureSettings
	source      pcmSource
	transcriber Transcriber

	mu        sync.Mutex
	capturing bool
	pcm       []byte
}

// NewServerRecorder creates a soundcard-backed recorder.
func NewServerRecorder(settings conf.CaptureSettings, transcriber Transcriber) *ServerRecorder {
	if settings.SampleRate == 0 {
		settings.SampleRate = conf.DefaultSampleRate
	}
	if settings.Channels == 0 {
		settings.Channels = conf.DefaultChannels
	}
	return &ServerRecorder{
		settings:    settings,
		source:      &malgoSource{settings: settings},
		transcriber: transcriber,
	}
}

func (r *ServerRecorder) Method() Method { return MethodServer }

// Start opens the capture device and begins buffering PCM.
func (r *ServerRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capturing {
		return errors.Newf("recorder already capturing").
			Category(errors.CategoryState).
			Build()
	}
	r.pcm = r.pcm[:0]

	if err := r.source.start(r.append); err != nil {
		return err
	}
	r.capturing = true
	logger.Info("server capture started",
		"sample_rate", r.settings.SampleRate,
		"channels", r.settings.Channels)
	return nil
}

// Stop closes the device, encodes the buffered PCM as WAV and sends it
// for transcription.
func (r *ServerRecorder) Stop(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return Result{}, errors.Newf("recorder not capturing").
			Category(errors.CategoryState).
			Build()
	}
	r.capturing = false
	r.mu.Unlock()

	// The device data callback also locks, so the device must stop
	// outside the lock.
	stopErr := r.source.stop()

	r.mu.Lock()
	pcm := make([]byte, len(r.pcm))
	copy(pcm, r.pcm)
	r.mu.Unlock()

	if stopErr != nil {
		return Result{}, errors.Wrap(stopErr).
			Category(errors.CategoryCapture).
			Context("operation", "stop_device").
			Build()
	}
	if len(pcm) == 0 {
		return Result{}, errors.Newf("no audio captured").
			Category(errors.CategoryCapture).
			Build()
	}

	wavData, err := encodeWAV(pcm, r.settings.SampleRate, r.settings.Channels)
	if err != nil {
		return Result{}, err
	}
	duration := float64(len(pcm)) / float64(2*r.settings.Channels*r.settings.SampleRate)

	resp, err := r.transcriber.Transcribe(ctx, wavData, "audio/wav")
	if err != nil {
		return Result{}, err
	}
	if resp.DurationSec > 0 {
		duration = resp.DurationSec
	}
	logger.Info("server capture transcribed",
		"pcm_bytes", len(pcm),
		"duration_sec", duration)
	return Result{
		Transcript:  strings.TrimSpace(resp.Transcript),
		DurationSec: duration,
		Method:      MethodServer,
	}, nil
}

// append is the device data callback. It runs on the audio thread, so
// it only copies bytes.
func (r *ServerRecorder) append(data []byte) {
	r.mu.Lock()
	if r.capturing {
		r.pcm = append(r.pcm, data...)
	}
	r.mu.Unlock()
}

// encodeWAV wraps 16-bit PCM in a WAV container. The encoder needs a
// seekable writer to patch the header, so a temp file stands in.
func encodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	tmp, err := os.CreateTemp("", "capture-*.wav")
	if err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "create_temp_wav").
			Build()
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := wav.NewEncoder(tmp, sampleRate, 16, channels, 1)
	samples := byteSliceToInts(pcm)
	buf := &audio.IntBuffer{
		Data:   samples,
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}
	if err := enc.Write(buf); err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "wav_encode").
			Build()
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "wav_close").
			Build()
	}
	return os.ReadFile(tmp.Name())
}

// byteSliceToInts decodes little-endian S16 samples.
func byteSliceToInts(pcm []byte) []int {
	samples := make([]int, 0, len(pcm)/2)
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		samples = append(samples, int(sample))
	}
	return samples
}

// malgoSource is the soundcard-backed pcmSource.
type malgoSource struct {
	settings conf.CaptureSettings

	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func (s *malgoSource) start(onData func([]byte)) error {
	malgoCtx, err := malgo.InitContext([]malgo.Backend{platformBackend()}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("backend", runtime.GOOS).
			Context("operation", "init_context").
			Build()
	}
	s.ctx = malgoCtx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(s.settings.Channels)
	deviceConfig.SampleRate = uint32(s.settings.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if s.settings.Device != "" {
		info, err := s.findDevice()
		if err != nil {
			s.teardownContext()
			return err
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			copied := make([]byte, len(samples))
			copy(copied, samples)
			onData(copied)
		},
	}
	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		s.teardownContext()
		return errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("device_name", s.settings.Device).
			Context("operation", "init_device").
			Build()
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		s.teardownContext()
		return errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "start_device").
			Build()
	}
	return nil
}

func (s *malgoSource) stop() error {
	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	s.teardownContext()
	return nil
}

func (s *malgoSource) teardownContext() {
	if s.ctx != nil {
		_ = s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
}

// findDevice matches the configured device name against the capture
// device list, case-insensitive substring.
func (s *malgoSource) findDevice() (*malgo.DeviceInfo, error) {
	devices, err := s.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryCapture).
			Context("operation", "enumerate_devices").
			Build()
	}
	want := strings.ToLower(s.settings.Device)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name()), want) {
			return &devices[i], nil
		}
	}
	return nil, errors.Newf("capture device %q not found", s.settings.Device).
		Category(errors.CategoryNotFound).
		Context("device_name", s.settings.Device).
		Build()
}

func platformBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}
