package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// NotificationsClient fetches the caller's notifications.
type NotificationsClient struct {
	upstream
}

// NewNotificationsClient creates a new NotificationsClient.
func NewNotificationsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *NotificationsClient {
	return &NotificationsClient{upstream{
		service:    "notifications",
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}}
}

// GetNotifications fetches notifications with retry, circuit breaker, and tracing.
func (c *NotificationsClient) GetNotifications(ctx context.Context) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "NotificationsClient.GetNotifications")
	defer span.End()

	var notifications []domain.Notification
	err := c.getJSON(ctx, c.baseURL+"/api/notifications", "me", func(r io.Reader) error {
		var err error
		notifications, err = decodeNotifications(r)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("notifications.count", len(notifications)))
	return notifications, nil
}

// decodeNotifications accepts a bare array or a {"data": [...]} envelope.
func decodeNotifications(r io.Reader) ([]domain.Notification, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Notification{}, nil
	}

	var list []domain.Notification
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
	case '{':
		var envelope struct {
			Data []domain.Notification `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		list = envelope.Data
	default:
		return nil, fmt.Errorf("unexpected notifications payload starting with %q", raw[0])
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return list, nil
}
