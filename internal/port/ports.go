// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
)

// ProfileFetcher retrieves the authenticated user's profile.
type ProfileFetcher interface {
	GetProfile(ctx context.Context) (*domain.Profile, error)
}

// NotificationsFetcher retrieves the authenticated user's notifications.
type NotificationsFetcher interface {
	GetNotifications(ctx context.Context) ([]domain.Notification, error)
}

// CampaignFetcher retrieves a campaign's status-bearing fields.
type CampaignFetcher interface {
	GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error)
}

// FundHistoryStore persists the fund balance baseline per user.
// Get returns (nil, nil) when nothing is stored and domain.ErrCorruptHistory
// when the stored value cannot be decoded.
type FundHistoryStore interface {
	Get(ctx context.Context, userID string) ([]domain.FundHistoryEntry, error)
	Put(ctx context.Context, userID string, entries []domain.FundHistoryEntry) error
	Delete(ctx context.Context, userID string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Pinger reports whether a backing resource is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
