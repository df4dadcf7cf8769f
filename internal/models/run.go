package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is an archived scheduling run: the input document and the result it produced
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Horizon   Horizon         `json:"horizon"`
	InputHash string          `json:"input_hash"`
	Stats     Stats           `json:"stats"`
	Input     json.RawMessage `json:"input,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// NewRun stamps a run with a fresh ID and the hash of its input
func NewRun(horizon Horizon, stats Stats, input, result []byte) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Horizon:   horizon,
		InputHash: HashInput(input),
		Stats:     stats,
		Input:     input,
		Result:    result,
	}
}

// HashInput fingerprints an input document
func HashInput(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
