package amqp

import (
	"encoding/json"
	"time"
)

// PeriodChangedMessage announces that a month of the ledger changed. It
// carries the headline figures so consumers rarely need to read the store.
type PeriodChangedMessage struct {
	Period        string    `json:"period"`
	Revision      int64     `json:"revision"`
	Reason        string    `json:"reason"`
	Income        float64   `json:"income"`
	TotalExpenses float64   `json:"totalExpenses"`
	Savings       float64   `json:"savings"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewPeriodChangedMessage(period string, revision int64, reason string) *PeriodChangedMessage {
	return &PeriodChangedMessage{
		Period:    period,
		Revision:  revision,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *PeriodChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
