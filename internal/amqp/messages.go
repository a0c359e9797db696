package amqp

import (
	"encoding/json"
	"time"
)

// RecomputeMessage asks the worker to recompute one owner's wallet.
// It carries only the owner id; the worker derives everything else from the
// ledger, so a stale or duplicated message is harmless.
type RecomputeMessage struct {
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecomputeMessage creates a recompute request for the given owner
func NewRecomputeMessage(ownerID string) *RecomputeMessage {
	return &RecomputeMessage{
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecomputeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecomputeMessageFromJSON creates a message from JSON bytes
func RecomputeMessageFromJSON(data []byte) (*RecomputeMessage, error) {
	var msg RecomputeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
