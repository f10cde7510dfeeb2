package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deeperscribe/deeperscribe/cmd/patients"
	"github.com/deeperscribe/deeperscribe/cmd/process"
	"github.com/deeperscribe/deeperscribe/cmd/record"
	"github.com/deeperscribe/deeperscribe/cmd/serve"
	"github.com/deeperscribe/deeperscribe/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deeperscribe",
		Short: "DeeperScribe CLI",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		process.Command(settings),
		record.Command(settings),
		patients.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Parse the command line flags so they take precedence over the
		// config file and environment.
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		conf.SetSettings(settings)
		return nil
	}

	return rootCmd
}

// setupFlags defines the flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Scribe.BaseURL, "scribe-url", viper.GetString("scribe.baseurl"), "Base URL of the scribe services")
	rootCmd.PersistentFlags().StringVar(&settings.Scribe.APIKey, "scribe-key", viper.GetString("scribe.apikey"), "API key for the scribe services")
	rootCmd.PersistentFlags().StringVar(&settings.Trials.BaseURL, "trials-url", viper.GetString("trials.baseurl"), "Clinical trial registry base URL")
	rootCmd.PersistentFlags().IntVar(&settings.Trials.MaxResults, "max-trials", viper.GetInt("trials.maxresults"), "Default trial result cap")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLitePath, "db", viper.GetString("output.sqlitepath"), "Path of the sqlite database file")
	rootCmd.PersistentFlags().StringVar(&settings.Operator.DoctorName, "doctor", viper.GetString("operator.doctorname"), "Doctor display name for speaker labels")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
