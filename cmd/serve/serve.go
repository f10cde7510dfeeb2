// Package serve implements the serve subcommand: the HTTP API server
// over the wired application services.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deeperscribe/deeperscribe/internal/api"
	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/core"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DeeperScribe API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings)
		},
	}
	cmd.Flags().StringVar(&settings.Web.Address, "address", settings.Web.Address, "Listen address")
	return cmd
}

func runServe(settings *conf.Settings) error {
	c, err := core.New(settings)
	if err != nil {
		return err
	}
	defer c.Close()

	controller := api.New(c.Store, c.Pipeline, c.Selector, settings)

	errChan := make(chan error, 1)
	go func() {
		if err := controller.Start(settings.Web.Address); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		fmt.Printf("received %v, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return controller.Shutdown(ctx)
}
