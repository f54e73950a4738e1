package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/reflux/internal/domain"
)

// StorageKey is the single key the whole journal is written under.
const StorageKey = "reflux-storage"

// SnapshotVersion is written into every persisted envelope.
const SnapshotVersion = 0

var ErrEmptySnapshot = errors.New("empty snapshot")

// envelope mirrors the layout the mobile app persisted, so an exported
// record loads unchanged.
type envelope struct {
	State struct {
		Entries domain.Entries `json:"entries"`
	} `json:"state"`
	Version int `json:"version"`
}

// Encode serializes the full collection. Nil symptom lists are written as
// empty arrays.
func Encode(entries domain.Entries) (string, error) {
	var env envelope
	env.Version = SnapshotVersion
	env.State.Entries = make(domain.Entries, len(entries))
	for i, e := range entries {
		if e.Symptoms == nil {
			e.Symptoms = []string{}
		}
		env.State.Entries[i] = e
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return string(data), nil
}

// Decode parses a persisted snapshot. It does not validate entries.
func Decode(raw string) (domain.Entries, error) {
	if len(bytes.TrimSpace([]byte(raw))) == 0 {
		return nil, ErrEmptySnapshot
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to unmarshal snapshot: trailing data")
	}
	if env.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", env.Version)
	}
	if env.State.Entries == nil {
		return domain.Entries{}, nil
	}
	return env.State.Entries, nil
}
