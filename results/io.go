package results

import (
	"encoding/json"
	"fmt"
	"os"
)

// ToJSON renders a run record as indented JSON, the form the CLI prints
// and WriteJSON persists.
func ToJSON(run *Run) (string, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	return string(data), nil
}

// WriteJSON writes a run record to a JSON file.
func WriteJSON(run *Run, filename string) error {
	str, err := ToJSON(run)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(str+"\n"), 0644); err != nil {
		return fmt.Errorf("write run file: %w", err)
	}
	return nil
}

// ReadJSON loads a run record back from a file WriteJSON produced.
func ReadJSON(filename string) (*Run, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", filename, err)
	}
	return &run, nil
}
