package domain

import "time"

// NewsletterStatus records the outcome of one digest invocation.
type NewsletterStatus string

const (
	NewsletterSent    NewsletterStatus = "sent"
	NewsletterSkipped NewsletterStatus = "skipped"
	NewsletterError   NewsletterStatus = "error"
)

// NewsletterLogEntry is an append-only audit record of digest sends.
type NewsletterLogEntry struct {
	ID           int64
	CampaignID   string
	ArticleCount int
	SentAt       time.Time
	Status       NewsletterStatus
}

// ListStats summarizes the mailing-list state reported by the provider.
type ListStats struct {
	Name             string
	MemberCount      int
	UnsubscribeCount int
	OpenRate         float64
	ClickRate        float64
}

// SubscriptionState is the provider-side member status after an upsert.
type SubscriptionState string

const (
	SubscriptionPending      SubscriptionState = "pending"
	SubscriptionSubscribed   SubscriptionState = "subscribed"
	SubscriptionUnsubscribed SubscriptionState = "unsubscribed"
)
