package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Profile is the learner context passed through to the analysis service.
// The engine never interprets it; it only attaches it to snapshots.
type Profile struct {
	WeakConcepts   []string           `json:"weak_concepts"`
	StrongConcepts []string           `json:"strong_concepts"`
	Mastery        map[string]float64 `json:"mastery,omitempty"`
}

// LoadFile reads a profile from a JSON file. A missing path returns an empty
// profile, not an error; hosts without profile data still get observations.
func LoadFile(path string) (Profile, error) {
	var p Profile

	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read profile: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}

	return p, nil
}
