package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Origin value marking an event as the server's echo of this client's own
// optimistic mutation.
const ORIGIN_SELF = "self"

// RealtimeEvent is a reservation lifecycle event pushed by the realtime
// source. Type is one of created/updated/reinstated/cancelled, optionally
// prefixed with "reservation_".
type RealtimeEvent struct {
	Type string             `json:"type"`
	Data ReservationPayload `json:"data"`
}

// ReservationPayload is the loosely-typed body of a realtime event.
// Upstream producers are inconsistent about number vs string fields, so
// decoding coerces instead of failing.
type ReservationPayload struct {
	ID           int64
	HasID        bool
	CustomerID   string
	Date         string
	TimeSlot     string
	CustomerName string
	Type         int
	HasType      bool
	Cancelled    bool
	Origin       string
}

// UnmarshalJSON custom unmarshaler coercing numeric/string fields either way.
func (p *ReservationPayload) UnmarshalJSON(data []byte) error {
	aux := struct {
		ID           interface{} `json:"id"`
		WaID         interface{} `json:"wa_id"`
		Date         interface{} `json:"date"`
		TimeSlot     interface{} `json:"time_slot"`
		CustomerName interface{} `json:"customer_name"`
		Type         interface{} `json:"type"`
		Cancelled    interface{} `json:"cancelled"`
		Origin       interface{} `json:"origin"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if id, ok := asInt64(aux.ID); ok {
		p.ID = id
		p.HasID = true
	}
	p.CustomerID = asString(aux.WaID)
	p.Date = asString(aux.Date)
	p.TimeSlot = asString(aux.TimeSlot)
	p.CustomerName = asString(aux.CustomerName)
	if t, ok := asInt64(aux.Type); ok {
		p.Type = int(t)
		p.HasType = true
	}
	p.Cancelled = asBool(aux.Cancelled)
	p.Origin = asString(aux.Origin)

	return nil
}

// MarshalJSON keeps the wire shape symmetric with UnmarshalJSON.
func (p ReservationPayload) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if p.HasID {
		out["id"] = p.ID
	}
	if p.CustomerID != "" {
		out["wa_id"] = p.CustomerID
	}
	if p.Date != "" {
		out["date"] = p.Date
	}
	if p.TimeSlot != "" {
		out["time_slot"] = p.TimeSlot
	}
	if p.CustomerName != "" {
		out["customer_name"] = p.CustomerName
	}
	if p.HasType {
		out["type"] = p.Type
	}
	if p.Cancelled {
		out["cancelled"] = true
	}
	if p.Origin != "" {
		out["origin"] = p.Origin
	}
	return json.Marshal(out)
}

// NormalizeEventType strips the optional "reservation_" prefix and reports
// whether the remaining type is a known lifecycle kind.
func NormalizeEventType(t string) (string, bool) {
	kind := strings.TrimPrefix(strings.TrimSpace(t), "reservation_")
	switch kind {
	case "created", "updated", "reinstated", "cancelled":
		return kind, true
	}
	return "", false
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return fmt.Sprintf("%v", val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case float64:
		return int64(val), true
	case json.Number:
		i, err := val.Int64()
		return i, err == nil
	case string:
		if val == "" {
			return 0, false
		}
		i, err := strconv.ParseInt(val, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func asBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	case float64:
		return val != 0
	default:
		return false
	}
}
