package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoutingKeyImportCompleted routes ImportCompletedMessage deliveries.
const RoutingKeyImportCompleted = "sms.import.completed"

// ImportCompletedMessage announces that an SMS batch was written to the
// database. Consumers reload or fetch rows FirstID..LastID themselves.
type ImportCompletedMessage struct {
	BatchID   string    `json:"batch_id"`
	Processed int       `json:"processed"`
	Rejected  int       `json:"rejected"`
	FirstID   int64     `json:"first_id,omitempty"`
	LastID    int64     `json:"last_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(batchID string, processed, rejected int, firstID, lastID int64) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		BatchID:   batchID,
		Processed: processed,
		Rejected:  rejected,
		FirstID:   firstID,
		LastID:    lastID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON decodes and validates a delivery body.
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BatchID == "" {
		return nil, fmt.Errorf("import message without batch_id")
	}
	if msg.LastID < msg.FirstID {
		return nil, fmt.Errorf("import message %s: last_id %d before first_id %d", msg.BatchID, msg.LastID, msg.FirstID)
	}
	return &msg, nil
}
