package signals

import (
	"encoding/json"
	"fmt"
	"os"
)

// Transcript mirrors the speech-to-text output file.
type Transcript struct {
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Segments []TranscriptCue `json:"segments"`
}

// LoadTranscript reads a transcript JSON file and returns its normalized cues.
func LoadTranscript(path string) ([]TranscriptCue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	return NormalizeCues(tr.Segments, tr.Duration), nil
}
