package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces a stored transaction. The worker
// loads the full row from the database by ID.
type TransactionRecordedMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id, userID int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
