// Package entities - Transaction is the immutable record of a balance-affecting event.
// Only its status (and metadata) changes after creation.
package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// TransactionType represents the type of transaction.
type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "deposit"         // Funds coming into the wallet
	TransactionTypeWithdrawal     TransactionType = "withdrawal"      // Cash-out to an external account
	TransactionTypeTransfer       TransactionType = "transfer"        // Outgoing transfer to another party
	TransactionTypePayment        TransactionType = "payment"         // Payment for a booking/service
	TransactionTypeRefund         TransactionType = "refund"          // Money returned to the wallet
	TransactionTypeSavingsFunding TransactionType = "savings_funding" // Deduction toward a savings plan
)

// ParseTransactionType normalizes and validates a type string.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", errors.ErrInvalidTransactionType
	}
	return t, nil
}

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypePayment, TransactionTypeRefund, TransactionTypeSavingsFunding:
		return true
	default:
		return false
	}
}

// IsCredit reports whether the type increases the wallet balance.
// Deposits and refunds credit; everything else debits.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeRefund
}

// TransactionStatus represents the current state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusSuccessful TransactionStatus = "successful"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// ParseTransactionStatus normalizes and validates a status string.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", errors.ErrInvalidTransactionStatus
	}
	return st, nil
}

// IsValid checks if the transaction status is valid.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccessful,
		TransactionStatusFailed, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the status is terminal (no further transitions).
func (s TransactionStatus) IsFinal() bool {
	return s != TransactionStatusPending
}

// Metadata keys written by the ledger itself.
const (
	MetadataFailureReason = "failure_reason"
	MetadataGatewayError  = "gateway_error"
	MetadataGatewayData   = "gateway_response"
)

// Transaction represents a balance-affecting event.
//
// Patterns Applied:
//   - State Machine: pending -> successful | failed | cancelled
//   - Idempotency: reference is unique across all transactions
//   - Change tracking: persistedStatus holds the status last written to storage,
//   which is what decides whether the balance effect still has to be applied
type Transaction struct {
	id              uuid.UUID
	userID          uuid.UUID
	walletID        uuid.UUID
	reference       string
	transactionType TransactionType
	status          TransactionStatus
	persistedStatus TransactionStatus // empty for a transaction never saved
	amount          valueobjects.Money

	savingsPlanID     *uuid.UUID
	gatewayCallbackID *uuid.UUID
	metadata          map[string]interface{}

	createdAt time.Time
	updatedAt time.Time
}

// NewTransaction creates a new pending transaction.
//
// Business Rules:
//   - Reference must be unique (checked by repository)
//   - Amount must be positive
//   - Transaction type must be valid
func NewTransaction(
	userID, walletID uuid.UUID,
	reference string,
	transactionType TransactionType,
	amount valueobjects.Money,
) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.ValidationError{Field: "reference", Message: "reference is required"}
	}
	if len(reference) > 255 {
		return nil, errors.ValidationError{Field: "reference", Message: "reference must be at most 255 characters"}
	}

	if !transactionType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}

	if !amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "amount must be positive"}
	}

	now := time.Now().UTC()
	return &Transaction{
		id:              uuid.New(),
		userID:          userID,
		walletID:        walletID,
		reference:       reference,
		transactionType: transactionType,
		status:          TransactionStatusPending,
		amount:          amount,
		metadata:        make(map[string]interface{}),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructTransaction reconstructs a Transaction from stored data.
// The stored status becomes the persisted status.
func ReconstructTransaction(
	id, userID, walletID uuid.UUID,
	reference string,
	transactionType TransactionType,
	status TransactionStatus,
	amount valueobjects.Money,
	savingsPlanID, gatewayCallbackID *uuid.UUID,
	metadataJSON []byte,
	createdAt, updatedAt time.Time,
) (*Transaction, error) {
	metadata := make(map[string]interface{})
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, err
		}
		if metadata == nil {
			metadata = make(map[string]interface{})
		}
	}

	return &Transaction{
		id:                id,
		userID:            userID,
		walletID:          walletID,
		reference:         reference,
		transactionType:   transactionType,
		status:            status,
		persistedStatus:   status,
		amount:            amount,
		savingsPlanID:     savingsPlanID,
		gatewayCallbackID: gatewayCallbackID,
		metadata:          metadata,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

// Getters

func (t *Transaction) ID() uuid.UUID {
	return t.id
}

func (t *Transaction) UserID() uuid.UUID {
	return t.userID
}

func (t *Transaction) WalletID() uuid.UUID {
	return t.walletID
}

func (t *Transaction) Reference() string {
	return t.reference
}

func (t *Transaction) Type() TransactionType {
	return t.transactionType
}

func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// PersistedStatus returns the status last written to storage, empty if never saved.
func (t *Transaction) PersistedStatus() TransactionStatus {
	return t.persistedStatus
}

func (t *Transaction) Amount() valueobjects.Money {
	return t.amount
}

func (t *Transaction) SavingsPlanID() *uuid.UUID {
	return t.savingsPlanID
}

func (t *Transaction) GatewayCallbackID() *uuid.UUID {
	return t.gatewayCallbackID
}

// Metadata returns a copy of the metadata map.
func (t *Transaction) Metadata() map[string]interface{} {
	out := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

// MetadataJSON serializes metadata for storage.
func (t *Transaction) MetadataJSON() ([]byte, error) {
	return json.Marshal(t.metadata)
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// Business Methods

func (t *Transaction) IsPending() bool {
	return t.status == TransactionStatusPending
}

func (t *Transaction) IsSuccessful() bool {
	return t.status == TransactionStatusSuccessful
}

func (t *Transaction) IsFinal() bool {
	return t.status.IsFinal()
}

// IsNew reports whether the transaction has never been persisted.
func (t *Transaction) IsNew() bool {
	return t.persistedStatus == ""
}

// RequiresBalanceApplication reports whether saving the transaction now must
// apply its balance effect: created as successful, or moved pending -> successful.
// Re-saving an already successful transaction returns false.
func (t *Transaction) RequiresBalanceApplication() bool {
	if t.status != TransactionStatusSuccessful {
		return false
	}
	return t.persistedStatus == "" || t.persistedStatus == TransactionStatusPending
}

// MarkPersisted records that the current status has been written to storage.
// Called by the repository after a successful save, before the enclosing unit
// of work commits, so later saves in the same unit of work see the new state.
// If the unit of work rolls back, the tracker is stale: the instance must be
// discarded and the transaction reloaded.
func (t *Transaction) MarkPersisted() {
	t.persistedStatus = t.status
}

// SetMetadata stores a metadata value.
func (t *Transaction) SetMetadata(key string, value interface{}) {
	t.metadata[key] = value
	t.updatedAt = time.Now().UTC()
}

// MergeMetadata copies all entries of m into the metadata.
func (t *Transaction) MergeMetadata(m map[string]interface{}) {
	for k, v := range m {
		t.metadata[k] = v
	}
	t.updatedAt = time.Now().UTC()
}

// LinkSavingsPlan ties a savings-funding transaction to its plan.
func (t *Transaction) LinkSavingsPlan(planID uuid.UUID) error {
	if t.transactionType != TransactionTypeSavingsFunding {
		return errors.NewBusinessRuleViolation(
			"INVALID_TRANSACTION_TYPE",
			"only savings funding transactions can be linked to a savings plan",
			map[string]interface{}{"type": t.transactionType},
		)
	}
	t.savingsPlanID = &planID
	t.updatedAt = time.Now().UTC()
	return nil
}

// LinkGatewayCallback records the callback that settled (or failed) this transaction.
func (t *Transaction) LinkGatewayCallback(callbackID uuid.UUID) {
	t.gatewayCallbackID = &callbackID
	t.updatedAt = time.Now().UTC()
}

// RecordGatewayFailure stores the gateway's error payload verbatim in metadata.
// The status and the balance are not touched.
func (t *Transaction) RecordGatewayFailure(payload interface{}) {
	t.SetMetadata(MetadataGatewayError, payload)
}

// State Machine Transitions

// TransitionTo moves the transaction to status.
// Setting the current status again is a no-op so that re-saves are idempotent.
// Only pending transactions can move, and only to a final status.
func (t *Transaction) TransitionTo(status TransactionStatus) error {
	if !status.IsValid() {
		return errors.ErrInvalidTransactionStatus
	}
	if status == t.status {
		return nil
	}
	if !t.IsPending() || status == TransactionStatusPending {
		return &errors.BusinessRuleViolation{
			Rule:    "INVALID_STATUS_TRANSITION",
			Message: "transaction status cannot change once final",
			Context: map[string]interface{}{
				"currentStatus":   t.status,
				"requestedStatus": status,
			},
			Err: errors.ErrInvalidStatusTransition,
		}
	}

	t.status = status
	t.updatedAt = time.Now().UTC()
	return nil
}

// MarkSuccessful transitions the transaction to successful.
func (t *Transaction) MarkSuccessful() error {
	return t.TransitionTo(TransactionStatusSuccessful)
}

// MarkFailed transitions the transaction to failed, keeping the reason in metadata.
func (t *Transaction) MarkFailed(reason string) error {
	if err := t.TransitionTo(TransactionStatusFailed); err != nil {
		return err
	}
	if reason != "" {
		t.SetMetadata(MetadataFailureReason, reason)
	}
	return nil
}

// Cancel transitions the transaction to cancelled.
func (t *Transaction) Cancel() error {
	return t.TransitionTo(TransactionStatusCancelled)
}

// FailureReason returns the stored failure reason, if any.
func (t *Transaction) FailureReason() string {
	reason, _ := t.metadata[MetadataFailureReason].(string)
	return reason
}
