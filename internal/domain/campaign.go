package domain

import "encoding/json"

// ============================================================
// Campaigns
// ============================================================

// Campaign is the status-bearing view of a crowdfunding campaign.
// Status and StatusDetail may carry either the raw backend enum or a
// localized label.
type Campaign struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	Status       string `json:"status"`
	StatusDetail string `json:"statusDetail,omitempty"`
}

// UnmarshalJSON accepts numeric or string campaign ids.
func (c *Campaign) UnmarshalJSON(data []byte) error {
	type plain Campaign
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Campaign(raw.plain)
	c.ID = rawToString(raw.ID)
	return nil
}

// CampaignLifecycle is the derived lifecycle returned to the dashboard.
type CampaignLifecycle struct {
	CampaignID       string `json:"campaignId,omitempty"`
	Status           string `json:"status"`
	IsClosed         bool   `json:"isClosed"`
	IsInProgress     bool   `json:"isInProgress"`
	IsValidated      bool   `json:"isValidated"`
	CanEdit          bool   `json:"canEdit"`
	CanClose         bool   `json:"canClose"`
	CanEditStartDate bool   `json:"canEditStartDate"`
	// Stale marks a lifecycle evaluated from the caller's last snapshot
	// while the campaign backend was unavailable.
	Stale bool `json:"stale,omitempty"`
}
