package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Stock ledger events
	EventStockRestocked = "ledger.stock.restocked"
	EventStockConsumed  = "ledger.stock.consumed"
	EventStockDamaged   = "ledger.stock.damaged"
	EventStockReversed  = "ledger.stock.reversed"
	EventLotExpired     = "ledger.lot.expired"

	// Reminder events
	EventReminderDue = "ledger.reminder.due"
)

// Exchange names
const (
	ExchangeLedgerEvents = "ledger.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID returns a unique event identifier
func GenerateEventID() string {
	return uuid.New().String()
}

// Stock ledger events

// StockRestockedEvent is published when a new lot is added to an item
type StockRestockedEvent struct {
	ItemID     string    `json:"item_id"`
	LotID      string    `json:"lot_id"`
	Quantity   int       `json:"quantity"`
	Expiration time.Time `json:"expiration"`
	StaffEmail string    `json:"staff_email"`
	NewTotal   int       `json:"new_total"`
}

// StockConsumedEvent is published when stock is drawn from a lot
type StockConsumedEvent struct {
	ItemID     string    `json:"item_id"`
	LotID      string    `json:"lot_id"`
	Quantity   int       `json:"quantity"`
	Expiration time.Time `json:"expiration"`
	StaffEmail string    `json:"staff_email"`
	NewTotal   int       `json:"new_total"`
}

// StockDamagedEvent is published when damage is recorded against a lot
type StockDamagedEvent struct {
	ItemID   string `json:"item_id"`
	LotID    string `json:"lot_id"`
	Quantity int    `json:"quantity"`
	NewTotal int    `json:"new_total"`
}

// StockReversedEvent is published when a history entry is undone
type StockReversedEvent struct {
	ItemID      string `json:"item_id"`
	HistoryType string `json:"history_type"`
	Index       int    `json:"index"`
	Quantity    int    `json:"quantity"`
	StaffEmail  string `json:"staff_email"`
	NewTotal    int    `json:"new_total"`
}

// LotExpiredEvent is published for each lot removed by the expiration sweep
type LotExpiredEvent struct {
	ItemID     string    `json:"item_id"`
	LotID      string    `json:"lot_id"`
	Quantity   int       `json:"quantity"`
	Expiration time.Time `json:"expiration"`
}

// ReminderDueEvent is published when the daily-consumption reminder fires
type ReminderDueEvent struct {
	FiredAt time.Time `json:"fired_at"`
}
