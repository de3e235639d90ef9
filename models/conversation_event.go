package models

// ConversationEvent is one message in a customer's conversation history.
// Events are append-only per customer: source messages never mutate, so
// the type carries no identity and duplicates are tolerated downstream.
type ConversationEvent struct {
	Role         string `json:"role"`
	Message      string `json:"message"`
	Date         string `json:"date"` // YYYY-MM-DD
	Time         string `json:"time"` // HH:MM
	CustomerName string `json:"customer_name,omitempty"`
}
