package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type NotificationType string

const (
	NotificationCreditAwarded NotificationType = "credit_awarded"
	NotificationVerified      NotificationType = "verified"
	NotificationExpired       NotificationType = "expired"
)

// Notification is the structured event delivered on a wallet's subscriber
// channel after a state transition has been durably committed.
type Notification struct {
	Type          NotificationType `json:"type"`
	Wallet        string           `json:"wallet"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	CreditedTotal *decimal.Decimal `json:"credited_total,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
