package amqp

import (
	"encoding/json"
	"time"
)

// DayExportMessage asks the worker to push one day's records to the
// export destination. It carries only the day key; the worker reads the
// current records from the database, so a stale message still exports
// the latest state.
type DayExportMessage struct {
	Day       string    `json:"day"` // YYYY-MM-DD
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDayExportMessage creates a new export message for a day
func NewDayExportMessage(day, owner string) *DayExportMessage {
	return &DayExportMessage{
		Day:       day,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DayExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DayExportMessageFromJSON creates a message from JSON bytes
func DayExportMessageFromJSON(data []byte) (*DayExportMessage, error) {
	var msg DayExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
