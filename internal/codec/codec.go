// Package codec converts snapshots to and from their stored JSON form.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"arena/internal/game"
)

// Marshal checks the envelope and encodes s. Equal snapshots always give
// equal bytes.
func Marshal(s game.Snapshot) ([]byte, error) {
	if err := checkEnvelope(s); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Unmarshal decodes a snapshot and checks its envelope. Unknown fields and
// unknown schema versions are rejected rather than guessed at. The variant
// body is checked by the rule module.
func Unmarshal(data []byte) (game.Snapshot, error) {
	var probe struct {
		Variant game.Variant `json:"variant"`
		Schema  *int         `json:"schema"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return game.Snapshot{}, fmt.Errorf("%w: %v", game.ErrCorruptSnapshot, err)
	}
	if probe.Schema == nil {
		return game.Snapshot{}, fmt.Errorf("%w: missing schema version", game.ErrUnsupportedSnapshot)
	}
	if *probe.Schema != game.SchemaVersion {
		return game.Snapshot{}, fmt.Errorf("%w: schema version %d", game.ErrUnsupportedSnapshot, *probe.Schema)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s game.Snapshot
	if err := dec.Decode(&s); err != nil {
		return game.Snapshot{}, fmt.Errorf("%w: %v", game.ErrCorruptSnapshot, err)
	}
	if err := checkEnvelope(s); err != nil {
		return game.Snapshot{}, err
	}
	return s, nil
}

func checkEnvelope(s game.Snapshot) error {
	switch s.Variant {
	case game.Chess:
		if s.Chess == nil {
			return fmt.Errorf("%w: chess snapshot without chess body", game.ErrUnsupportedSnapshot)
		}
		if s.Poker != nil {
			return fmt.Errorf("%w: chess snapshot with poker body", game.ErrCorruptSnapshot)
		}
	case game.Poker:
		if s.Poker == nil {
			return fmt.Errorf("%w: poker snapshot without poker body", game.ErrUnsupportedSnapshot)
		}
		if s.Chess != nil {
			return fmt.Errorf("%w: poker snapshot with chess body", game.ErrCorruptSnapshot)
		}
	default:
		return fmt.Errorf("%w: unknown variant %q", game.ErrUnsupportedSnapshot, s.Variant)
	}
	if s.Schema != game.SchemaVersion {
		return fmt.Errorf("%w: schema version %d", game.ErrUnsupportedSnapshot, s.Schema)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", game.ErrCorruptSnapshot, s.Status)
	}
	if s.Terminal != (s.Status == game.StatusCompleted) {
		return fmt.Errorf("%w: terminal=%v with status %s", game.ErrCorruptSnapshot, s.Terminal, s.Status)
	}
	if !s.Winner.Valid() {
		return fmt.Errorf("%w: invalid winner", game.ErrCorruptSnapshot)
	}
	return nil
}
