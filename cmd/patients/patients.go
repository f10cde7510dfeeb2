// Package patients implements the patients subcommand: list patients
// with session and trial-set counts.
package patients

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deeperscribe/deeperscribe/internal/conf"
	"github.com/deeperscribe/deeperscribe/internal/core"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

// Command creates the patients command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "patients",
		Short: "List patients with their session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatients(settings)
		},
	}
}

func runPatients(settings *conf.Settings) error {
	c, err := core.New(settings)
	if err != nil {
		return err
	}
	defer c.Close()

	list, err := c.Store.Patients()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAPPOINTMENT\tSESSIONS\tTRIAL SETS")
	for _, p := range list {
		sessions, err := c.Store.Sessions(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			p.ID, p.Name, p.Appointment, len(sessions), len(trials.Sets(sessions)))
	}
	return w.Flush()
}
