// Package record implements the record subcommand: capture a visit from
// the microphone, transcribe it and run the pipeline.
package record

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/core"
)

// Command creates the record command.
func Command(settings *conf.Settings) *cobra.Command {
	var patientID string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a visit and process the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(settings, patientID)
		},
	}
	cmd.Flags().StringVarP(&patientID, "patient", "p", "p001", "Patient id to attach the session to")
	cmd.Flags().StringVar(&settings.Capture.Device, "device", settings.Capture.Device, "Capture device name")
	return cmd
}

func runRecord(settings *conf.Settings, patientID string) error {
	c, err := core.New(settings)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Selector.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("recording via %s, press Enter or Ctrl-C to stop\n", c.Selector.Method())

	stop := make(chan struct{})
	go func() {
		reader := bufio.NewReader(os.Stdin)
		_, _ = reader.ReadString('\n')
		close(stop)
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case <-quit:
	}

	c.Pipeline.StartTranscribing(patientID)
	result, err := c.Selector.Stop(ctx)
	c.Pipeline.FinishTranscribing(patientID)
	if err != nil {
		return err
	}
	fmt.Printf("captured %.1fs of audio\n", result.DurationSec)

	if err := c.Pipeline.Process(ctx, patientID, result.Transcript, result.DurationSec); err != nil {
		return err
	}
	status := c.Pipeline.Status(patientID)
	fmt.Printf("session: %s\n", status.CurrentSessionID)
	return nil
}
