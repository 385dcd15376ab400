package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/pitwall-racing/pitwall/pkg/model"
)

// LapDataHash identifies a lap-data snapshot of one vehicle.
// Fitted models are cached per (vehicle, snapshot) pair; a changed lap
// sequence yields a new hash and therefore a fresh fit.
func LapDataHash(records []model.LapRecord) string {
	hasher := sha256.New()
	buf := make([]byte, 8)
	for i := range records {
		hasher.Write([]byte(records[i].VehicleID))
		binary.LittleEndian.PutUint64(buf, uint64(records[i].LapNumber))
		hasher.Write(buf)
		binary.LittleEndian.PutUint64(buf, uint64(records[i].Timestamp.UnixNano()))
		hasher.Write(buf)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
