package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// Compile-time checks
var (
	_ ports.UserRepository            = (*UserRepository)(nil)
	_ ports.WalletRepository          = (*WalletRepository)(nil)
	_ ports.TransactionRepository     = (*TransactionRepository)(nil)
	_ ports.SavingsPlanRepository     = (*SavingsPlanRepository)(nil)
	_ ports.NotificationRepository    = (*NotificationRepository)(nil)
	_ ports.GatewayCallbackRepository = (*GatewayCallbackRepository)(nil)
)

// ===== Users =====

type UserRepository struct{ s *Store }

func cloneUser(u *entities.User) *entities.User {
	return entities.ReconstructUser(u.ID(), u.Email(), u.FullName(), u.CreatedAt(), u.UpdatedAt())
}

func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, u := range r.s.users {
		if id != user.ID() && strings.EqualFold(u.Email(), user.Email()) {
			return domainErrors.ErrUserAlreadyExists
		}
	}
	r.s.users[user.ID()] = cloneUser(user)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email(), email) {
			return cloneUser(u), nil
		}
	}
	return nil, domainErrors.ErrUserNotFound
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if domainErrors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	r.s.mu.RLock()
	out := make([]*entities.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	r.s.mu.RUnlock()

	newestFirst(out)
	return page(out, offset, limit), nil
}

// ===== Wallets =====

type WalletRepository struct{ s *Store }

func cloneWallet(w *entities.Wallet) *entities.Wallet {
	return entities.ReconstructWallet(w.ID(), w.UserID(), w.Currency(), w.Balance(),
		w.IsActive(), w.Version(), w.CreatedAt(), w.UpdatedAt())
}

// Save: version 0 - вставка, иначе обновление с проверкой версии.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if wallet.Version() == 0 {
		if _, ok := r.s.users[wallet.UserID()]; !ok {
			return domainErrors.NewDomainError("USER_NOT_FOUND", "user not found", domainErrors.ErrUserNotFound)
		}
		for _, w := range r.s.wallets {
			if w.UserID() == wallet.UserID() || w.ID() == wallet.ID() {
				return domainErrors.ErrWalletAlreadyExists
			}
		}
		r.s.wallets[wallet.ID()] = cloneWallet(wallet)
		return nil
	}

	stored, ok := r.s.wallets[wallet.ID()]
	expected := wallet.Version() - 1
	if !ok || stored.Version() != expected {
		return domainErrors.NewConcurrencyError("Wallet", wallet.ID().String(),
			fmt.Sprintf("wallet was modified by another transaction (expected version: %d)", expected))
	}
	r.s.wallets[wallet.ID()] = cloneWallet(wallet)
	return nil
}

func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[id]
	if !ok {
		return nil, domainErrors.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

// FindByIDForUpdate: блокировку обеспечивает сериализация UnitOfWork.
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return r.FindByID(ctx, id)
}

func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, w := range r.s.wallets {
		if w.UserID() == userID {
			return cloneWallet(w), nil
		}
	}
	return nil, domainErrors.ErrWalletNotFound
}

func (r *WalletRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := r.FindByUserID(ctx, userID)
	if domainErrors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (r *WalletRepository) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, error) {
	r.s.mu.RLock()
	out := make([]*entities.Wallet, 0)
	for _, w := range r.s.wallets {
		if filter.Currency != nil && !w.Currency().Equals(*filter.Currency) {
			continue
		}
		if filter.Active != nil && w.IsActive() != *filter.Active {
			continue
		}
		out = append(out, cloneWallet(w))
	}
	r.s.mu.RUnlock()

	newestFirst(out)
	return page(out, offset, limit), nil
}

// ===== Transactions =====

type TransactionRepository struct{ s *Store }

func cloneTransaction(t *entities.Transaction) (*entities.Transaction, error) {
	metadata, err := t.MetadataJSON()
	if err != nil {
		return nil, err
	}
	return entities.ReconstructTransaction(t.ID(), t.UserID(), t.WalletID(), t.Reference(),
		t.Type(), t.Status(), t.Amount(), copyID(t.SavingsPlanID()), copyID(t.GatewayCallbackID()),
		metadata, t.CreatedAt(), t.UpdatedAt())
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Save вставляет новую транзакцию (reference уникален) или обновляет существующую.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if tx.IsNew() {
		for _, t := range r.s.transactions {
			if t.Reference() == tx.Reference() {
				return fmt.Errorf("%w: %s", domainErrors.ErrDuplicateReference, tx.Reference())
			}
		}
		if _, ok := r.s.wallets[tx.WalletID()]; !ok {
			return domainErrors.ErrWalletNotFound
		}
	} else if _, ok := r.s.transactions[tx.ID()]; !ok {
		return domainErrors.ErrTransactionNotFound
	}

	stored, err := cloneTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	r.s.transactions[tx.ID()] = stored
	// Снимок отката не трогает tx: после ошибки UoW объект перечитывают
	tx.MarkPersisted()
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	return cloneTransaction(t)
}

func (r *TransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*entities.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.transactions {
		if t.Reference() == reference {
			return cloneTransaction(t)
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (r *TransactionRepository) FindByReferenceForUpdate(ctx context.Context, reference string) (*entities.Transaction, error) {
	return r.FindByReference(ctx, reference)
}

func (r *TransactionRepository) filtered(filter ports.TransactionFilter) []*entities.Transaction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.Transaction, 0)
	for _, t := range r.s.transactions {
		if !matchesTransaction(t, filter) {
			continue
		}
		c, err := cloneTransaction(t)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesTransaction(t *entities.Transaction, f ports.TransactionFilter) bool {
	switch {
	case f.UserID != nil && t.UserID() != *f.UserID:
		return false
	case f.WalletID != nil && t.WalletID() != *f.WalletID:
		return false
	case f.SavingsPlanID != nil && (t.SavingsPlanID() == nil || *t.SavingsPlanID() != *f.SavingsPlanID):
		return false
	case f.Type != nil && t.Type() != *f.Type:
		return false
	case f.Status != nil && t.Status() != *f.Status:
		return false
	}
	return true
}

func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	out := r.filtered(filter)
	newestFirst(out)
	return page(out, offset, limit), nil
}

func (r *TransactionRepository) Count(ctx context.Context, filter ports.TransactionFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *TransactionRepository) SumSuccessful(ctx context.Context, walletID uuid.UUID) (valueobjects.Money, valueobjects.Money, error) {
	r.s.mu.RLock()
	w, ok := r.s.wallets[walletID]
	r.s.mu.RUnlock()
	if !ok {
		return valueobjects.Money{}, valueobjects.Money{}, domainErrors.ErrWalletNotFound
	}

	credits := valueobjects.Zero(w.Currency())
	debits := valueobjects.Zero(w.Currency())
	successful := entities.TransactionStatusSuccessful

	for _, t := range r.filtered(ports.TransactionFilter{WalletID: &walletID, Status: &successful}) {
		var err error
		if t.Type().IsCredit() {
			credits, err = credits.Add(t.Amount())
		} else {
			debits, err = debits.Add(t.Amount())
		}
		if err != nil {
			return valueobjects.Money{}, valueobjects.Money{}, err
		}
	}
	return credits, debits, nil
}

func (r *TransactionRepository) SumPlanFunding(ctx context.Context, planID uuid.UUID) (valueobjects.Money, error) {
	r.s.mu.RLock()
	p, ok := r.s.plans[planID]
	r.s.mu.RUnlock()
	if !ok {
		return valueobjects.Money{}, domainErrors.ErrSavingsPlanNotFound
	}

	total := valueobjects.Zero(p.Currency())
	successful := entities.TransactionStatusSuccessful
	funding := entities.TransactionTypeSavingsFunding

	for _, t := range r.filtered(ports.TransactionFilter{SavingsPlanID: &planID, Status: &successful, Type: &funding}) {
		var err error
		if total, err = total.Add(t.Amount()); err != nil {
			return valueobjects.Money{}, err
		}
	}
	return total, nil
}

// ===== Savings plans =====

type SavingsPlanRepository struct{ s *Store }

func clonePlan(p *entities.SavingsPlan) *entities.SavingsPlan {
	var last *time.Time
	if p.LastDeductionDate() != nil {
		d := *p.LastDeductionDate()
		last = &d
	}
	return entities.ReconstructSavingsPlan(p.ID(), p.UserID(), p.WalletID(), p.Name(),
		p.Target(), p.AmountSaved(), p.Schedule(), p.DeductionAmount(), p.Status(),
		last, p.CreatedAt(), p.UpdatedAt())
}

func (r *SavingsPlanRepository) Save(ctx context.Context, plan *entities.SavingsPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[plan.WalletID()]; !ok {
		return domainErrors.ErrWalletNotFound
	}
	r.s.plans[plan.ID()] = clonePlan(plan)
	return nil
}

func (r *SavingsPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, domainErrors.ErrSavingsPlanNotFound
	}
	return clonePlan(p), nil
}

func (r *SavingsPlanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error) {
	return r.FindByID(ctx, id)
}

func (r *SavingsPlanRepository) FindDueCandidates(ctx context.Context, asOf time.Time, after *ports.PlanCursor, limit int) ([]*entities.SavingsPlan, error) {
	asOf = schedule.Date(asOf)

	r.s.mu.RLock()
	out := make([]*entities.SavingsPlan, 0)
	for _, p := range r.s.plans {
		if !p.IsActive() || !p.Schedule().IsRecurring() || !p.Schedule().Contains(asOf) {
			continue
		}
		if last := p.LastDeductionDate(); last != nil && !last.Before(asOf) {
			continue
		}
		if after != nil && !isAfterCursor(p, after) {
			continue
		}
		out = append(out, clonePlan(p))
	}
	r.s.mu.RUnlock()

	oldestFirst(out)
	return page(out, 0, limit), nil
}

func (r *SavingsPlanRepository) List(ctx context.Context, userID uuid.UUID, status *entities.SavingsPlanStatus, offset, limit int) ([]*entities.SavingsPlan, error) {
	r.s.mu.RLock()
	out := make([]*entities.SavingsPlan, 0)
	for _, p := range r.s.plans {
		if p.UserID() != userID || (status != nil && p.Status() != *status) {
			continue
		}
		out = append(out, clonePlan(p))
	}
	r.s.mu.RUnlock()

	newestFirst(out)
	return page(out, offset, limit), nil
}

// ===== Notifications =====

type NotificationRepository struct{ s *Store }

func cloneNotification(n *entities.Notification) *entities.Notification {
	return entities.ReconstructNotification(n.ID(), n.UserID(), n.Kind(), n.Title(), n.Message(), n.IsRead(), n.CreatedAt())
}

func (r *NotificationRepository) Save(ctx context.Context, n *entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID()] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, domainErrors.ErrNotificationNotFound
	}
	return cloneNotification(n), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*entities.Notification, error) {
	r.s.mu.RLock()
	out := make([]*entities.Notification, 0)
	for _, n := range r.s.notifications {
		if n.UserID() != userID || (unreadOnly && n.IsRead()) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	r.s.mu.RUnlock()

	newestFirst(out)
	return page(out, offset, limit), nil
}

// ===== Gateway callbacks =====

type GatewayCallbackRepository struct{ s *Store }

func (r *GatewayCallbackRepository) Save(ctx context.Context, cb *entities.GatewayCallback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.callbacks {
		if c.Provider() == cb.Provider() && c.EventID() == cb.EventID() {
			return fmt.Errorf("gateway callback %s/%s: %w", cb.Provider(), cb.EventID(), domainErrors.ErrEntityAlreadyExists)
		}
	}
	r.s.callbacks[cb.ID()] = entities.ReconstructGatewayCallback(cb.ID(), cb.Provider(), cb.EventID(),
		cb.Reference(), cb.Event(), cb.IsSuccessful(), cb.Payload(), cb.ReceivedAt())
	return nil
}

func (r *GatewayCallbackRepository) FindByProviderEvent(ctx context.Context, provider, eventID string) (*entities.GatewayCallback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.callbacks {
		if c.Provider() == provider && c.EventID() == eventID {
			return entities.ReconstructGatewayCallback(c.ID(), c.Provider(), c.EventID(),
				c.Reference(), c.Event(), c.IsSuccessful(), c.Payload(), c.ReceivedAt()), nil
		}
	}
	return nil, fmt.Errorf("gateway callback %s/%s: %w", provider, eventID, domainErrors.ErrEntityNotFound)
}
