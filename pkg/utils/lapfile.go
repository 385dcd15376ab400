package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/pitwall-racing/pitwall/pkg/model"
)

type lapFileEntry struct {
	VehicleID string `json:"vehicleId"`
	LapNumber int    `json:"lapNumber"`
	Timestamp string `json:"timestamp"`
}

// ReadLapFile loads lap crossing records from a JSON file.
// Timestamps must be RFC 3339.
func ReadLapFile(path string) ([]model.LapRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []lapFileEntry
	if err := oj.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("could not parse lap file %s: %w", path, err)
	}
	records := make([]model.LapRecord, 0, len(entries))
	for i := range entries {
		ts, err := time.Parse(time.RFC3339, entries[i].Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q for vehicle %s: %w",
				entries[i].Timestamp, entries[i].VehicleID, err)
		}
		records = append(records, model.LapRecord{
			VehicleID: entries[i].VehicleID,
			LapNumber: entries[i].LapNumber,
			Timestamp: ts,
		})
	}
	return records, nil
}
