package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

// loadSeedFile reads a JSON array of events. Every event needs an ID, a title
// and a start time.
func loadSeedFile(path string) ([]*types.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var events []*types.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, e := range events {
		switch {
		case e == nil:
			return nil, fmt.Errorf("seed event %d is null", i)
		case e.EventID == "":
			return nil, fmt.Errorf("seed event %d has no event_id", i)
		case e.Title == "":
			return nil, fmt.Errorf("seed event %s has no title", e.EventID)
		case e.StartAt.IsZero():
			return nil, fmt.Errorf("seed event %s has no start_at", e.EventID)
		}
	}

	return events, nil
}
