// Package historystore provides persisted fund history backends.
// Every backend stores the JSON array of entries under Key(userID).
package historystore

import (
	"encoding/json"
	"fmt"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
)

const keyPrefix = "fund_history_"

// Key returns the storage key for userID. An empty id maps to the literal
// "user".
func Key(userID string) string {
	if userID == "" {
		userID = "user"
	}
	return keyPrefix + userID
}

func encode(entries []domain.FundHistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.FundHistoryEntry{}
	}
	return json.Marshal(entries)
}

func decode(raw []byte) ([]domain.FundHistoryEntry, error) {
	var entries []domain.FundHistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptHistory, err)
	}
	return entries, nil
}
