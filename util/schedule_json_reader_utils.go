package util

import (
	"encoding/json"
	"fmt"
	"os"

	"sched-server/models"
)

// ReadReservationsFromJSON loads a reservations-by-customer map from JSON on disk.
func ReadReservationsFromJSON(filePath string) (map[string][]models.Reservation, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	var result map[string][]models.Reservation
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reservations: %w", err)
	}
	return result, nil
}

// ReadConversationEventsFromJSON loads a conversations-by-customer map from JSON on disk.
func ReadConversationEventsFromJSON(filePath string) (map[string][]models.ConversationEvent, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	var result map[string][]models.ConversationEvent
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation events: %w", err)
	}
	return result, nil
}
