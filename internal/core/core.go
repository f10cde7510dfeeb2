// Package core wires the application services together for the CLI
// entry points: settings, event bus, store, service clients, pipeline
// orchestrator and the recording selector.
package core

import (
	"time"

	"github.com/deeperscribe/deeperscribe/internal/capture"
	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/events"
	"github.com/deeperscribe/deeperscribe/internal/pipeline"
	"github.com/deeperscribe/deeperscribe/internal/retry"
	"github.com/deeperscribe/deeperscribe/internal/scribe"
	"github.com/deeperscribe/deeperscribe/internal/statesync"
	"github.com/deeperscribe/deeperscribe/internal/store"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

// Core holds the wired application services.
type Core struct {
	Settings *conf.Settings
	Bus      *events.Bus
	Store    store.Interface
	Scribe   *scribe.Client
	Trials   *trials.Client
	Pipeline *pipeline.Orchestrator
	Selector *capture.Selector

	synchronizers []*statesync.Synchronizer
}

// New builds the service graph from settings and opens the store.
func New(settings *conf.Settings) (*Core, error) {
	bus := events.NewBus(nil)

	st := store.New(settings.Output.SQLitePath, bus)
	if err := st.Open(); err != nil {
		return nil, err
	}

	scribeClient, err := scribe.NewClient(scribe.Config{
		BaseURL: settings.Scribe.BaseURL,
		APIKey:  settings.Scribe.APIKey,
		Timeout: time.Duration(settings.Scribe.Timeout) * time.Second,
		Retry:   retry.DefaultConfig(),
		Debug:   settings.Debug,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	trialsClient := trials.NewClient(trials.Config{
		BaseURL:         settings.Trials.BaseURL,
		CacheTTL:        time.Duration(settings.Trials.CacheTTLMinutes) * time.Minute,
		FallbackEnabled: settings.Trials.FallbackEnabled,
		Debug:           settings.Debug,
	})

	orchestrator := pipeline.New(st, scribeClient, trialsClient)
	selector := capture.NewSelector(
		capture.NewServerRecorder(settings.Capture, scribeClient),
	)

	c := &Core{
		Settings: settings,
		Bus:      bus,
		Store:    st,
		Scribe:   scribeClient,
		Trials:   trialsClient,
		Pipeline: orchestrator,
		Selector: selector,
	}

	// One synchronizer per patient keeps session state converged across
	// views and materializes legacy unscoped fields into sessions.
	patients, err := st.Patients()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	for _, p := range patients {
		sync, err := statesync.NewSynchronizer(p.ID, st, bus, nil)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.synchronizers = append(c.synchronizers, sync)
		if err := sync.Refresh(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close releases the synchronizers, store, clients and bus.
func (c *Core) Close() error {
	for _, sync := range c.synchronizers {
		sync.Close()
	}
	err := c.Store.Close()
	c.Scribe.Close()
	_ = c.Bus.Shutdown(5 * time.Second)
	return err
}
