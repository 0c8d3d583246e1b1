// Package campaign derives campaign lifecycle predicates from the status
// fields the campaign backend exposes.
package campaign

import (
	"strings"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
)

// Status is the normalized campaign status.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFinished   Status = "FINISHED"
	StatusRejected   Status = "REJECTED"
	StatusUnknown    Status = "UNKNOWN"
)

// Upstream display layers may already have localized the status, so both
// spellings are accepted here and nowhere else.
var spellings = map[string]Status{
	"PENDING":     StatusPending,
	"APPROVED":    StatusApproved,
	"IN_PROGRESS": StatusInProgress,
	"COMPLETED":   StatusCompleted,
	"FINISHED":    StatusFinished,
	"REJECTED":    StatusRejected,

	"En attente": StatusPending,
	"en attente": StatusPending,
	"Validé":     StatusApproved,
	"validé":     StatusApproved,
	"Approuvé":   StatusApproved,
	"approuvé":   StatusApproved,
	"En cours":   StatusInProgress,
	"en cours":   StatusInProgress,
	"Clôturé":    StatusCompleted,
	"clôturé":    StatusCompleted,
	"Terminé":    StatusFinished,
	"terminé":    StatusFinished,
	"Rejeté":     StatusRejected,
	"rejeté":     StatusRejected,
}

// Normalize maps the status-bearing fields to a Status. statusDetail wins
// when present.
func Normalize(status, statusDetail string) Status {
	raw := strings.TrimSpace(statusDetail)
	if raw == "" {
		raw = strings.TrimSpace(status)
	}
	if s, ok := spellings[raw]; ok {
		return s
	}
	return StatusUnknown
}

// IsClosed reports a completed or finished campaign.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusFinished
}

// IsInProgress reports a running campaign.
func (s Status) IsInProgress() bool {
	return s == StatusInProgress
}

// IsValidated reports a campaign that passed review; its start date is frozen.
func (s Status) IsValidated() bool {
	switch s {
	case StatusApproved, StatusInProgress, StatusCompleted, StatusFinished:
		return true
	}
	return false
}

// CanEdit is true at every stage except closed.
func (s Status) CanEdit() bool {
	return !s.IsClosed()
}

// CanClose is true only for running campaigns.
func (s Status) CanClose() bool {
	return s.IsInProgress() && !s.IsClosed()
}

// Evaluate derives the lifecycle of c. It holds no state and must be called
// again after c changes.
func Evaluate(c domain.Campaign) domain.CampaignLifecycle {
	s := Normalize(c.Status, c.StatusDetail)
	return domain.CampaignLifecycle{
		CampaignID:       c.ID,
		Status:           string(s),
		IsClosed:         s.IsClosed(),
		IsInProgress:     s.IsInProgress(),
		IsValidated:      s.IsValidated(),
		CanEdit:          s.CanEdit(),
		CanClose:         s.CanClose(),
		CanEditStartDate: !s.IsValidated(),
	}
}
