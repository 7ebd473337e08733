// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// UserRepository определяет контракт для хранения пользователей.
type UserRepository interface {
	// Save сохраняет пользователя (create or update).
	Save(ctx context.Context, user *entities.User) error

	// FindByID загружает пользователя по ID.
	// Возвращает ErrUserNotFound если не найден.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail загружает пользователя по email.
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// ExistsByEmail проверяет уникальность email без загрузки entity.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List возвращает пользователей с пагинацией.
	List(ctx context.Context, offset, limit int) ([]*entities.User, error)
}

// WalletRepository определяет контракт для хранения кошельков.
//
// Важно: у пользователя ровно один кошелёк (UNIQUE на user_id).
type WalletRepository interface {
	// Save сохраняет кошелёк с проверкой версии (optimistic locking поверх row lock).
	// Если version не совпадает, возвращает ConcurrencyError.
	Save(ctx context.Context, wallet *entities.Wallet) error

	// FindByID загружает кошелёк без блокировки (для чтения).
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByIDForUpdate загружает кошелёк с SELECT ... FOR UPDATE.
	// Должен вызываться только внутри UnitOfWork: блокировка держится до commit/rollback.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByUserID возвращает кошелёк пользователя.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// ExistsByUserID проверяет наличие кошелька у пользователя.
	ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error)

	// List возвращает кошельки с фильтрацией и пагинацией.
	List(ctx context.Context, filter WalletFilter, offset, limit int) ([]*entities.Wallet, error)
}

// WalletFilter определяет критерии фильтрации для кошельков.
type WalletFilter struct {
	Currency *valueobjects.Currency // Фильтр по валюте
	Active   *bool                  // Фильтр по активности
}

// TransactionRepository определяет контракт для хранения транзакций.
type TransactionRepository interface {
	// Save сохраняет транзакцию (insert или update статуса/метаданных).
	// Reference уникален: повторная вставка возвращает ErrDuplicateReference.
	// После успешного сохранения вызывает tx.MarkPersisted(), не дожидаясь
	// коммита UoW. После отката объект tx не переиспользуется: его перечитывают.
	Save(ctx context.Context, tx *entities.Transaction) error

	// FindByID загружает транзакцию по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByIDForUpdate загружает транзакцию с блокировкой строки.
	// Два параллельных перевода pending -> successful сериализуются здесь.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByReference находит транзакцию по reference (ключ идемпотентности).
	FindByReference(ctx context.Context, reference string) (*entities.Transaction, error)

	// FindByReferenceForUpdate - то же самое с блокировкой строки.
	FindByReferenceForUpdate(ctx context.Context, reference string) (*entities.Transaction, error)

	// List возвращает транзакции с фильтрацией и пагинацией (новые первыми).
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, error)

	// Count возвращает количество транзакций под фильтром.
	Count(ctx context.Context, filter TransactionFilter) (int64, error)

	// SumSuccessful возвращает суммы успешных кредитов и дебетов кошелька.
	// Используется для сверки баланса.
	SumSuccessful(ctx context.Context, walletID uuid.UUID) (credits, debits valueobjects.Money, err error)

	// SumPlanFunding возвращает сумму успешных savings_funding транзакций плана.
	SumPlanFunding(ctx context.Context, planID uuid.UUID) (valueobjects.Money, error)
}

// TransactionFilter определяет критерии фильтрации для транзакций.
type TransactionFilter struct {
	UserID        *uuid.UUID                  // Фильтр по пользователю
	WalletID      *uuid.UUID                  // Фильтр по кошельку
	SavingsPlanID *uuid.UUID                  // Фильтр по плану накоплений
	Type          *entities.TransactionType   // Фильтр по типу
	Status        *entities.TransactionStatus // Фильтр по статусу
}

// PlanCursor - позиция keyset-пагинации по планам: последний прочитанный план.
type PlanCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorAfter возвращает курсор, указывающий на план.
func CursorAfter(plan *entities.SavingsPlan) *PlanCursor {
	return &PlanCursor{CreatedAt: plan.CreatedAt(), ID: plan.ID()}
}

// SavingsPlanRepository определяет контракт для хранения планов накоплений.
type SavingsPlanRepository interface {
	Save(ctx context.Context, plan *entities.SavingsPlan) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error)

	// FindByIDForUpdate блокирует строку плана до конца UnitOfWork.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error)

	// FindDueCandidates возвращает страницу активных recurring планов, чей
	// диапазон дат содержит asOf и маркер списания раньше asOf.
	// Порядок (created_at, id); after == nil - первая страница.
	// Окончательную проверку "due" делает домен.
	FindDueCandidates(ctx context.Context, asOf time.Time, after *PlanCursor, limit int) ([]*entities.SavingsPlan, error)

	// List возвращает планы пользователя (status == nil - все).
	List(ctx context.Context, userID uuid.UUID, status *entities.SavingsPlanStatus, offset, limit int) ([]*entities.SavingsPlan, error)
}

// NotificationRepository определяет контракт для уведомлений пользователя.
type NotificationRepository interface {
	Save(ctx context.Context, n *entities.Notification) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error)

	// ListByUser возвращает уведомления пользователя, новые первыми.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*entities.Notification, error)
}

// GatewayCallbackRepository хранит входящие webhook'и платёжного шлюза.
type GatewayCallbackRepository interface {
	// Save сохраняет callback. Пара (provider, event_id) уникальна:
	// повтор возвращает ErrEntityAlreadyExists.
	Save(ctx context.Context, cb *entities.GatewayCallback) error

	// FindByProviderEvent находит callback по идентификатору события провайдера.
	FindByProviderEvent(ctx context.Context, provider, eventID string) (*entities.GatewayCallback, error)
}
