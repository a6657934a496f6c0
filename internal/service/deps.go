package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
)

const (
	TopicUsers        = "user_events"
	TopicListings     = "listing_events"
	TopicBookings     = "booking_events"
	TopicTransactions = "transaction_events"
)

func Topics() []string {
	return []string{TopicUsers, TopicListings, TopicBookings, TopicTransactions}
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type ListingIndex interface {
	IndexListing(ctx context.Context, l *models.Listing) error
	DeleteListing(ctx context.Context, id uint) error
	SearchIDs(ctx context.Context, query string, limit int) ([]uint, error)
}

type Mailer interface {
	Send(ctx context.Context, to *models.User, subject, body string) error
}

type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func publish(ctx context.Context, p EventPublisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}

func notify(ctx context.Context, m Mailer, to *models.User, subject, body string) {
	if m == nil || to == nil {
		return
	}
	if err := m.Send(ctx, to, subject, body); err != nil {
		logging.FromContext(ctx).Warn("notify_error", "subject", subject, "user_id", to.ID, "error", err)
	}
}
