// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events
//   - Raised by use cases when state changes
//   - Stored in the outbox in the same database transaction
//   - Relayed to the message broker afterwards
//
// Exported fields are the event payload (JSON); amounts travel as decimal strings.
package events

import (
	"time"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event Types (constants for type checking)
const (
	EventTypeUserCreated              = "user.created"
	EventTypeWalletCreated            = "wallet.created"
	EventTypeWalletCredited           = "wallet.credited"
	EventTypeWalletDebited            = "wallet.debited"
	EventTypeWalletStatusChanged      = "wallet.status_changed"
	EventTypeTransactionCreated       = "transaction.created"
	EventTypeTransactionSucceeded     = "transaction.succeeded"
	EventTypeTransactionFailed        = "transaction.failed"
	EventTypeTransactionCancelled     = "transaction.cancelled"
	EventTypeSavingsPlanCreated       = "savings_plan.created"
	EventTypeSavingsPlanFunded        = "savings_plan.funded"
	EventTypeSavingsPlanCompleted     = "savings_plan.completed"
	EventTypeSavingsPlanCancelled     = "savings_plan.cancelled"
	EventTypeSavingsDeductionFailed   = "savings_plan.deduction_failed"
	EventTypeGatewayCallbackProcessed = "gateway.callback_processed"
)

// ===== User Events =====

// UserCreated is raised when a new user (and its wallet) is created.
type UserCreated struct {
	BaseEvent
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func NewUserCreated(userID uuid.UUID, email, fullName string) *UserCreated {
	return &UserCreated{
		BaseEvent: newBaseEvent(EventTypeUserCreated, userID),
		Email:     email,
		FullName:  fullName,
	}
}

// ===== Wallet Events =====

// WalletCreated is raised when a new wallet is created.
type WalletCreated struct {
	BaseEvent
	UserID   uuid.UUID `json:"user_id"`
	Currency string    `json:"currency"`
}

func NewWalletCreated(walletID, userID uuid.UUID, currency valueobjects.Currency) *WalletCreated {
	return &WalletCreated{
		BaseEvent: newBaseEvent(EventTypeWalletCreated, walletID),
		UserID:    userID,
		Currency:  currency.Code(),
	}
}

// BalanceChanged is the payload shared by credit and debit events.
type BalanceChanged struct {
	BaseEvent
	WalletID        uuid.UUID `json:"wallet_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	TransactionType string    `json:"transaction_type"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	BalanceAfter    string    `json:"balance_after"`
}

// WalletCredited is raised when funds are added to a wallet.
type WalletCredited struct {
	BalanceChanged
}

func NewWalletCredited(
	walletID, transactionID uuid.UUID,
	transactionType string,
	amount, balanceAfter valueobjects.Money,
) *WalletCredited {
	return &WalletCredited{BalanceChanged: newBalanceChanged(EventTypeWalletCredited, walletID, transactionID, transactionType, amount, balanceAfter)}
}

// WalletDebited is raised when funds are removed from a wallet.
type WalletDebited struct {
	BalanceChanged
}

func NewWalletDebited(
	walletID, transactionID uuid.UUID,
	transactionType string,
	amount, balanceAfter valueobjects.Money,
) *WalletDebited {
	return &WalletDebited{BalanceChanged: newBalanceChanged(EventTypeWalletDebited, walletID, transactionID, transactionType, amount, balanceAfter)}
}

func newBalanceChanged(eventType string, walletID, transactionID uuid.UUID, transactionType string, amount, balanceAfter valueobjects.Money) BalanceChanged {
	return BalanceChanged{
		BaseEvent:       newBaseEvent(eventType, walletID),
		WalletID:        walletID,
		TransactionID:   transactionID,
		TransactionType: transactionType,
		Amount:          amount.AmountString(),
		Currency:        amount.Currency().Code(),
		BalanceAfter:    balanceAfter.AmountString(),
	}
}

// WalletStatusChanged is raised when a wallet is activated or deactivated.
type WalletStatusChanged struct {
	BaseEvent
	Active bool `json:"active"`
}

func NewWalletStatusChanged(walletID uuid.UUID, active bool) *WalletStatusChanged {
	return &WalletStatusChanged{
		BaseEvent: newBaseEvent(EventTypeWalletStatusChanged, walletID),
		Active:    active,
	}
}

// ===== Transaction Events =====

// TransactionEvent is the payload shared by transaction lifecycle events.
type TransactionEvent struct {
	BaseEvent
	TransactionID   uuid.UUID `json:"transaction_id"`
	UserID          uuid.UUID `json:"user_id"`
	WalletID        uuid.UUID `json:"wallet_id"`
	TransactionType string    `json:"transaction_type"`
	Status          string    `json:"status"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Reference       string    `json:"reference"`
	Reason          string    `json:"reason,omitempty"`
}

// NewTransactionEvent builds a transaction lifecycle event of the given type
// (EventTypeTransactionCreated, Succeeded, Failed or Cancelled).
func NewTransactionEvent(
	eventType string,
	transactionID, userID, walletID uuid.UUID,
	transactionType, status string,
	amount valueobjects.Money,
	reference, reason string,
) *TransactionEvent {
	return &TransactionEvent{
		BaseEvent:       newBaseEvent(eventType, transactionID),
		TransactionID:   transactionID,
		UserID:          userID,
		WalletID:        walletID,
		TransactionType: transactionType,
		Status:          status,
		Amount:          amount.AmountString(),
		Currency:        amount.Currency().Code(),
		Reference:       reference,
		Reason:          reason,
	}
}

// ===== Savings Plan Events =====

// SavingsPlanEvent is the payload shared by savings plan events.
type SavingsPlanEvent struct {
	BaseEvent
	PlanID        uuid.UUID  `json:"plan_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        string     `json:"amount,omitempty"`
	AmountSaved   string     `json:"amount_saved"`
	Target        string     `json:"target"`
	Currency      string     `json:"currency"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// NewSavingsPlanEvent builds a savings plan event of the given type.
// amount may be the zero Money when the event is not about a funding.
func NewSavingsPlanEvent(
	eventType string,
	planID, userID uuid.UUID,
	amount, amountSaved, target valueobjects.Money,
	transactionID *uuid.UUID,
	reason string,
) *SavingsPlanEvent {
	e := &SavingsPlanEvent{
		BaseEvent:     newBaseEvent(eventType, planID),
		PlanID:        planID,
		UserID:        userID,
		AmountSaved:   amountSaved.AmountString(),
		Target:        target.AmountString(),
		Currency:      target.Currency().Code(),
		TransactionID: transactionID,
		Reason:        reason,
	}
	if !amount.IsZero() {
		e.Amount = amount.AmountString()
	}
	return e
}

// ===== Gateway Events =====

// GatewayCallbackProcessed is raised after a gateway callback settled or failed a transaction.
type GatewayCallbackProcessed struct {
	BaseEvent
	Provider        string    `json:"provider"`
	ProviderEventID string    `json:"provider_event_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	Successful      bool      `json:"successful"`
}

func NewGatewayCallbackProcessed(callbackID uuid.UUID, provider, eventID string, transactionID uuid.UUID, successful bool) *GatewayCallbackProcessed {
	return &GatewayCallbackProcessed{
		BaseEvent:       newBaseEvent(EventTypeGatewayCallbackProcessed, callbackID),
		Provider:        provider,
		ProviderEventID: eventID,
		TransactionID:   transactionID,
		Successful:      successful,
	}
}

// EventStore collects events raised during one unit of work so they can be
// published together with the state change.
type EventStore struct {
	events []DomainEvent
}

// NewEventStore creates a new event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make([]DomainEvent, 0),
	}
}

// Add appends an event to the store.
func (s *EventStore) Add(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetAll returns all collected events.
func (s *EventStore) GetAll() []DomainEvent {
	return s.events
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.events = make([]DomainEvent, 0)
}

// Count returns the number of events in the store.
func (s *EventStore) Count() int {
	return len(s.events)
}
