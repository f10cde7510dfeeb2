// Package process implements the process subcommand: run the full
// pipeline once on a transcript file.
package process

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/core"
)

// Command creates the process command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		patientID   string
		fetchTrials bool
		sample      string
	)

	cmd := &cobra.Command{
		Use:   "process [transcript.txt]",
		Short: "Process a transcript file through the pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && sample == "" {
				return fmt.Errorf("either a transcript file or --sample is required")
			}
			var file string
			if len(args) > 0 {
				file = args[0]
			}
			return runProcess(settings, patientID, file, sample, fetchTrials)
		},
	}
	cmd.Flags().StringVarP(&patientID, "patient", "p", "p001", "Patient id to attach the session to")
	cmd.Flags().StringVar(&sample, "sample", "", "Process a built-in sample transcript instead of a file")
	cmd.Flags().BoolVar(&fetchTrials, "trials", false, "Fetch matching clinical trials after processing")
	return cmd
}

func runProcess(settings *conf.Settings, patientID, file, sample string, fetchTrials bool) error {
	c, err := core.New(settings)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	if sample != "" {
		if err := c.Pipeline.LoadSample(ctx, patientID, sample); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading transcript file: %w", err)
		}
		if err := c.Pipeline.Process(ctx, patientID, string(data), 0); err != nil {
			return err
		}
	}

	status := c.Pipeline.Status(patientID)
	fmt.Printf("session: %s\n", status.CurrentSessionID)

	if p, confidence := c.Pipeline.Profile(patientID); p != nil {
		fmt.Printf("diagnosis: %s\n", p.Diagnosis)
		if len(p.Conditions) > 0 {
			fmt.Printf("conditions: %s\n", strings.Join(p.Conditions, ", "))
		}
		fmt.Printf("confidence: %.2f\n", confidence)
	}

	if fetchTrials {
		resp, err := c.Pipeline.FetchTrials(ctx, patientID, nil, settings.Trials.MaxResults)
		if err != nil {
			return err
		}
		fmt.Printf("trials: %d of %d\n", len(resp.Trials), resp.TotalCount)
		for i := range resp.Trials {
			fmt.Printf("  %s  %s\n", resp.Trials[i].NCTID, resp.Trials[i].Title)
		}
	}
	return nil
}
