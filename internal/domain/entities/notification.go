package entities

import (
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/google/uuid"
)

// NotificationKind classifies notifications shown to the wallet owner.
type NotificationKind string

const (
	NotificationSavingsDeductionSucceeded NotificationKind = "savings_deduction_succeeded"
	NotificationSavingsDeductionFailed    NotificationKind = "savings_deduction_failed"
	NotificationSavingsPlanCompleted      NotificationKind = "savings_plan_completed"
	NotificationTransactionFailed         NotificationKind = "transaction_failed"
)

// Notification is a message for a user about something the ledger did on their behalf.
type Notification struct {
	id        uuid.UUID
	userID    uuid.UUID
	kind      NotificationKind
	title     string
	message   string
	read      bool
	createdAt time.Time
}

// NewNotification creates an unread notification.
func NewNotification(userID uuid.UUID, kind NotificationKind, title, message string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, errors.ValidationError{Field: "userID", Message: "recipient is required"}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.ValidationError{Field: "title", Message: "title is required"}
	}

	return &Notification{
		id:        uuid.New(),
		userID:    userID,
		kind:      kind,
		title:     title,
		message:   message,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructNotification reconstructs a Notification from stored data.
func ReconstructNotification(id, userID uuid.UUID, kind NotificationKind, title, message string, read bool, createdAt time.Time) *Notification {
	return &Notification{
		id:        id,
		userID:    userID,
		kind:      kind,
		title:     title,
		message:   message,
		read:      read,
		createdAt: createdAt,
	}
}

func (n *Notification) ID() uuid.UUID { return n.id }
func (n *Notification) UserID() uuid.UUID { return n.userID }
func (n *Notification) Kind() NotificationKind { return n.kind }
func (n *Notification) Title() string { return n.title }
func (n *Notification) Message() string { return n.message }
func (n *Notification) IsRead() bool { return n.read }
func (n *Notification) CreatedAt() time.Time { return n.createdAt }

// MarkRead flags the notification as seen.
func (n *Notification) MarkRead() {
	n.read = true
}
