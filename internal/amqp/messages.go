package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mealplanner/internal/core"
)

// ShoppingListExportMessage asks the worker to rebuild a user's shopping
// list for [From, To] and write it to the spreadsheet. It carries only the
// request; the worker reloads everything from the database.
type ShoppingListExportMessage struct {
	UserID      int64     `json:"user_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewShoppingListExportMessage creates an export request stamped now.
func NewShoppingListExportMessage(userID int64, from, to core.Date) *ShoppingListExportMessage {
	return &ShoppingListExportMessage{
		UserID:      userID,
		From:        from.String(),
		To:          to.String(),
		RequestedAt: time.Now().UTC(),
	}
}

// Range parses the message dates.
func (m *ShoppingListExportMessage) Range() (from, to core.Date, err error) {
	if from, err = core.ParseDate(m.From); err != nil {
		return from, to, fmt.Errorf("from: %w", err)
	}
	if to, err = core.ParseDate(m.To); err != nil {
		return from, to, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}

// Validate rejects messages no retry could ever process.
func (m *ShoppingListExportMessage) Validate() error {
	if m.UserID <= 0 {
		return errors.New("missing user_id")
	}
	from, to, err := m.Range()
	if err != nil {
		return err
	}
	if to.Before(from.Time) {
		return fmt.Errorf("range %s..%s is reversed", m.From, m.To)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ShoppingListExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ShoppingListExportMessageFromJSON decodes and validates a message body.
func ShoppingListExportMessageFromJSON(data []byte) (*ShoppingListExportMessage, error) {
	var msg ShoppingListExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
