//nolint:thelper // ok for tests
package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-racing/pitwall/pkg/model"
)

func writeTempFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "laps.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadLapFile(t *testing.T) {
	path := writeTempFile(t, `[
		{"vehicleId": "12", "lapNumber": 0, "timestamp": "2025-06-01T14:00:00Z"},
		{"vehicleId": "12", "lapNumber": 1, "timestamp": "2025-06-01T14:01:40Z"}
	]`)

	records, err := ReadLapFile(path)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "12", records[0].VehicleID)
	assert.Equal(t, 1, records[1].LapNumber)
	assert.Equal(t, 100.0, records[1].Timestamp.Sub(records[0].Timestamp).Seconds())
}

func TestReadLapFile_InvalidTimestamp(t *testing.T) {
	path := writeTempFile(t,
		`[{"vehicleId": "12", "lapNumber": 0, "timestamp": "yesterday"}]`)

	_, err := ReadLapFile(path)
	assert.Error(t, err)
}

func TestReadLapFile_Missing(t *testing.T) {
	_, err := ReadLapFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLapDataHash(t *testing.T) {
	ts := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	records := []model.LapRecord{
		{VehicleID: "12", LapNumber: 1, Timestamp: ts},
		{VehicleID: "12", LapNumber: 2, Timestamp: ts.Add(100 * time.Second)},
	}

	assert.Equal(t, LapDataHash(records), LapDataHash(records))

	changed := []model.LapRecord{
		{VehicleID: "12", LapNumber: 1, Timestamp: ts},
		{VehicleID: "12", LapNumber: 2, Timestamp: ts.Add(101 * time.Second)},
	}
	assert.NotEqual(t, LapDataHash(records), LapDataHash(changed))
	assert.NotEqual(t, LapDataHash(records), LapDataHash(records[:1]))
}
