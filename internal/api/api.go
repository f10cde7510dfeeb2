// Package api exposes the core operations over HTTP: patient listing and
// state, transcript submission, sample loading, reset, trial fetching,
// recording control and operator settings. Handlers are thin JSON
// adapters over the store and the pipeline orchestrator.
package api

import (
	"context"
	"crypto/rand"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deeperscribe/deeperscribe/internal/capture"
	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/pipeline"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/store"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "api.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "api", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize api file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "api")
		closeLogger = func() error { return nil }
	}
}

// Orchestrator is the slice of the pipeline the handlers need.
type Orchestrator interface {
	Process(ctx context.Context, patientID, rawTranscript string, durationSec float64) error
	LoadSample(ctx context.Context, patientID, sampleKey string) error
	Reset(ctx context.Context, patientID string) error
	FetchTrials(ctx context.Context, patientID string, nctIDs []string, maxResults int) (*trials.Response, error)
	Status(patientID string) pipeline.Status
	Profile(patientID string) (*profile.PatientProfile, float64)
	StartTranscribing(patientID string)
	FinishTranscribing(patientID string)
}

// RecordingSelector is the slice of the capture selector the handlers
// need.
type RecordingSelector interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (capture.Result, error)
	State() capture.State
	Method() capture.Method
	LastError() string
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Store    store.Interface
	Pipeline Orchestrator
	Recorder RecordingSelector
	Settings *conf.Settings
}

// New creates the controller and registers all routes under /api/v1.
func New(st store.Interface, orch Orchestrator, recorder RecordingSelector, settings *conf.Settings) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:     e,
		Store:    st,
		Pipeline: orch,
		Recorder: recorder,
		Settings: settings,
	}
	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	g := c.Group

	g.GET("/health", c.Health)

	g.GET("/patients", c.ListPatients)
	g.POST("/patients", c.CreatePatient)
	g.GET("/patients/:id", c.GetPatientState)

	g.POST("/patients/:id/transcript", c.SubmitTranscript)
	g.POST("/patients/:id/sample", c.LoadSample)
	g.POST("/patients/:id/reset", c.ResetPatient)

	g.POST("/patients/:id/trials", c.FetchTrials)
	g.GET("/patients/:id/trialsets", c.GetTrialSets)

	g.POST("/record/start", c.StartRecording)
	g.POST("/record/stop", c.StopRecording)
	g.GET("/record/status", c.RecordingStatus)

	g.GET("/settings", c.GetSettings)
	g.PUT("/settings", c.SaveSettings)
}

// Start runs the HTTP server. It blocks until the server stops.
func (c *Controller) Start(address string) error {
	logger.Info("api server starting", "address", address)
	return c.Echo.Start(address)
}

// Shutdown stops the HTTP server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Echo.Shutdown(ctx)
}

// Health reports liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ErrorResponse is the API error shape.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs the error and sends a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := &ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
	logger.Error("api error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", err.Error(),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method)
	return ctx.JSON(code, resp)
}

func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "err-rand"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
