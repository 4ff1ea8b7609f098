package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"BullionSentinel/internal/model"
)

// LoadState reads a history snapshot from a JSON file. Returns an empty snapshot if the file doesn't exist.
func LoadState(filePath string) (*model.HistorySnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.HistorySnapshot{Series: map[model.Instrument][]model.PricePoint{}}, nil
		}
		return nil, err
	}
	var snap model.HistorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Series == nil {
		snap.Series = map[model.Instrument][]model.PricePoint{}
	}
	return &snap, nil
}

// SaveState writes the snapshot to a JSON file via a temp file and rename.
func SaveState(filePath string, snap *model.HistorySnapshot) error {
	snap.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
