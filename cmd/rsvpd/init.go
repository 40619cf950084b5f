package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedFile string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the events table, validate the DynamoDB table and optionally seed events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st := newStores(cfg, logger)
		defer st.Close(ctx) //nolint:errcheck

		if _, err := st.Attendance(ctx); err != nil {
			return err
		}

		events, err := st.Events(ctx)
		if err != nil {
			return err
		}

		if seedFile == "" {
			return nil
		}

		seed, err := loadSeedFile(seedFile)
		if err != nil {
			return err
		}

		if err := events.SaveEvents(ctx, seed...); err != nil {
			return fmt.Errorf("failed to seed events: %w", err)
		}

		logger.WithField("count", len(seed)).Infof("Seeded events from %s", seedFile)

		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&seedFile, "seed", "", "JSON file with an array of events to upsert")
}
