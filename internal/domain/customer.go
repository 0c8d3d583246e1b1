package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================
// Profile (upstream payload)
// ============================================================

// Profile is the subset of the user profile the ledger consumes.
type Profile struct {
	ID   string          `json:"id"`
	Fund decimal.Decimal `json:"fund"`
}

// UnmarshalJSON accepts numeric or string ids and a fund that may be a
// number, a numeric-looking string, null or absent. Anything else is 0.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Fund json.RawMessage `json:"fund"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = rawToString(raw.ID)
	p.Fund = CoerceAmount(raw.Fund)
	return nil
}

// CoerceAmount converts a raw JSON value into a decimal, defaulting to zero.
func CoerceAmount(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(rawToString(raw))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func rawToString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

// ============================================================
// Notifications (upstream payload)
// ============================================================

// NotificationID is a notification identifier delivered either as a JSON
// number or as a numeric string.
type NotificationID int64

// UnmarshalJSON implements json.Unmarshaler. Non-numeric ids decode to 0.
func (id *NotificationID) UnmarshalJSON(data []byte) error {
	s := rawToString(data)
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			*id = 0
			return nil
		}
		n = int64(f)
	}
	*id = NotificationID(n)
	return nil
}

// Notification is a free-text notification record.
type Notification struct {
	ID        NotificationID `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content,omitempty"`
	Message   string         `json:"message,omitempty"`
	SentAt    string         `json:"sentAt,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// Text returns the notification body, preferring content over message.
func (n Notification) Text() string {
	if n.Content != "" {
		return n.Content
	}
	return n.Message
}

// Timestamp returns sentAt, falling back to createdAt.
func (n Notification) Timestamp() string {
	if n.SentAt != "" {
		return n.SentAt
	}
	return n.CreatedAt
}
