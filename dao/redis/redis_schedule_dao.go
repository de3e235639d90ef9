package redis

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"sched-server/db"
	"sched-server/models"
	"sched-server/period"
)

// Day documents: one JSON map (wa_id -> records) per calendar day.
const RESERVATIONS_DAY_KEY_FORMAT = "reservations_v1:%s"
const CONVERSATIONS_DAY_KEY_FORMAT = "conversations_v1:%s"

// RedisScheduleDAO stores reservations and conversation events in Redis as
// per-day documents. It doubles as the BookingAPI data source when the
// server itself is the source of truth, and absorbs webhook upserts so a
// later refetch of a period is authoritative.
type RedisScheduleDAO struct {
	client db.RedisClient
}

// NewRedisScheduleDAO initializes a RedisScheduleDAO with the Redis client.
func NewRedisScheduleDAO(client db.RedisClient) *RedisScheduleDAO {
	return &RedisScheduleDAO{client: client}
}

// UpsertReservation writes a reservation into its day document, replacing
// any record with the same identity.
func (dao *RedisScheduleDAO) UpsertReservation(r models.Reservation) error {
	if r.Date == "" {
		return fmt.Errorf("[RedisScheduleDAO] reservation without a date cannot be stored")
	}
	doc, err := dao.loadReservationDay(r.Date)
	if err != nil {
		return err
	}

	identity := r.IdentityKey()
	for customer, records := range doc {
		kept := records[:0]
		for _, existing := range records {
			if existing.IdentityKey() == identity || (r.ID != 0 && existing.ID == r.ID) {
				continue
			}
			kept = append(kept, existing)
		}
		if len(kept) == 0 {
			delete(doc, customer)
		} else {
			doc[customer] = kept
		}
	}
	doc[r.CustomerID] = append(doc[r.CustomerID], r)

	return dao.storeReservationDay(r.Date, doc)
}

// RemoveCustomerReservations deletes every reservation of a customer on a day.
func (dao *RedisScheduleDAO) RemoveCustomerReservations(customerID, date string) error {
	doc, err := dao.loadReservationDay(date)
	if err != nil {
		return err
	}
	if _, ok := doc[customerID]; !ok {
		return nil
	}
	delete(doc, customerID)
	log.Printf("[RedisScheduleDAO] Removed reservations for customer %s on %s", customerID, date)
	return dao.storeReservationDay(date, doc)
}

// AppendConversationEvent appends one message to its day document.
// Conversation history is append-only; no dedup is attempted.
func (dao *RedisScheduleDAO) AppendConversationEvent(customerID string, e models.ConversationEvent) error {
	if e.Date == "" {
		return fmt.Errorf("[RedisScheduleDAO] conversation event without a date cannot be stored")
	}
	key := fmt.Sprintf(CONVERSATIONS_DAY_KEY_FORMAT, e.Date)
	doc := make(map[string][]models.ConversationEvent)
	str, err := dao.client.Get(key)
	if err == nil {
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			return fmt.Errorf("failed to unmarshal conversations for %s: %w", e.Date, err)
		}
	} else if !isMissingKey(err) {
		return fmt.Errorf("failed to get conversations from redis: %w", err)
	}

	doc[customerID] = append(doc[customerID], e)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations for %s: %w", e.Date, err)
	}
	if err := dao.client.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to set conversations in redis: %w", err)
	}
	return nil
}

// FetchReservations implements booking.BookingAPI over the day documents.
func (dao *RedisScheduleDAO) FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error) {
	result := make(map[string][]models.Reservation)
	for day := period.StartOfDay(rng.Start); !day.After(rng.End); day = day.AddDate(0, 0, 1) {
		doc, err := dao.loadReservationDay(day.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		for customer, records := range doc {
			for _, r := range records {
				if r.Cancelled && !roam {
					continue
				}
				result[customer] = append(result[customer], r)
			}
		}
	}
	return result, nil
}

// FetchConversationEvents implements booking.BookingAPI over the day documents.
func (dao *RedisScheduleDAO) FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error) {
	result := make(map[string][]models.ConversationEvent)
	for day := period.StartOfDay(rng.Start); !day.After(rng.End); day = day.AddDate(0, 0, 1) {
		key := fmt.Sprintf(CONVERSATIONS_DAY_KEY_FORMAT, day.Format("2006-01-02"))
		str, err := dao.client.Get(key)
		if err != nil {
			if isMissingKey(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get conversations from redis: %w", err)
		}
		doc := make(map[string][]models.ConversationEvent)
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversations JSON: %w", err)
		}
		for customer, events := range doc {
			result[customer] = append(result[customer], events...)
		}
	}
	return result, nil
}

// ListReservationDays returns the dates that currently have a day document.
func (dao *RedisScheduleDAO) ListReservationDays() ([]string, error) {
	pattern := fmt.Sprintf(RESERVATIONS_DAY_KEY_FORMAT, "*")
	keys, err := dao.client.Keys(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservation day keys: %w", err)
	}
	prefix := fmt.Sprintf(RESERVATIONS_DAY_KEY_FORMAT, "")
	days := make([]string, 0, len(keys))
	for _, k := range keys {
		days = append(days, strings.TrimPrefix(k, prefix))
	}
	return days, nil
}

// DeleteReservationDay drops a whole day document.
func (dao *RedisScheduleDAO) DeleteReservationDay(date string) error {
	key := fmt.Sprintf(RESERVATIONS_DAY_KEY_FORMAT, date)
	if err := dao.client.Del(key); err != nil {
		return fmt.Errorf("failed to delete reservation day %s: %w", key, err)
	}
	log.Printf("[RedisScheduleDAO] Deleted reservation day %s", date)
	return nil
}

func (dao *RedisScheduleDAO) loadReservationDay(date string) (map[string][]models.Reservation, error) {
	key := fmt.Sprintf(RESERVATIONS_DAY_KEY_FORMAT, date)
	doc := make(map[string][]models.Reservation)
	str, err := dao.client.Get(key)
	if err != nil {
		if isMissingKey(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to get reservations from redis: %w", err)
	}
	if err := json.Unmarshal([]byte(str), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reservations JSON: %w", err)
	}
	return doc, nil
}

func (dao *RedisScheduleDAO) storeReservationDay(date string, doc map[string][]models.Reservation) error {
	key := fmt.Sprintf(RESERVATIONS_DAY_KEY_FORMAT, date)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal reservations for %s: %w", date, err)
	}
	if err := dao.client.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to set reservations in redis: %w", err)
	}
	return nil
}

// isMissingKey detects a cache miss from either the real client (redis.Nil)
// or the mock ("key not found").
func isMissingKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nil") || strings.Contains(msg, "not found")
}
