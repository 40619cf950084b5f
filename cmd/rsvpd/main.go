// Command rsvpd serves the RSVP API.
//
//	rsvpd serve                  start the HTTP server
//	rsvpd init [--seed file]     create or validate the stores, optionally seeding events
//
// Configuration is read from the environment and an optional .env file; see
// the config package for the variables.
package main

import (
	"fmt"
	"os"

	"github.com/jlim0255-workship/AWS-EventBookingApp/config"
	"github.com/jlim0255-workship/AWS-EventBookingApp/logging"
	"github.com/spf13/cobra"
)

var (
	envFile string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "rsvpd <command>",
	Short:         "RSVP tracking backend for public events",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		l, err := logging.New(os.Stderr, c.LogLevel, c.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		cfg = c
		logger = l

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rsvpd:", err)
		os.Exit(1)
	}
}
