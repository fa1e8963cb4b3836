package amqp

import (
	"encoding/json"
	"time"
)

// StatementIngestedMessage announces a successful ingestion. It carries the
// headline numbers only; consumers that need rows call the HTTP API.
type StatementIngestedMessage struct {
	Source      string    `json:"source"`
	Entry       string    `json:"entry"`
	Rows        int       `json:"rows"`
	Dropped     int       `json:"dropped"`
	Total       int       `json:"total"`
	Version     int64     `json:"version"`
	TotalSpend  string    `json:"total_spend"`
	TotalIncome string    `json:"total_income"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewStatementIngestedMessage(source, entry string, rows int) *StatementIngestedMessage {
	return &StatementIngestedMessage{
		Source:    source,
		Entry:     entry,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StatementIngestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StatementIngestedMessageFromJSON(data []byte) (*StatementIngestedMessage, error) {
	var msg StatementIngestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
