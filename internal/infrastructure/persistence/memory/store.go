// Package memory - in-memory реализация репозиториев и UnitOfWork.
//
// Используется в тестах use case'ов и для локального запуска без PostgreSQL
// (database.driver = "memory").
//
// Семантика повторяет PostgreSQL-адаптер:
//   - UnitOfWork сериализует транзакции (аналог блокировки строк FOR UPDATE)
//   - При ошибке fn состояние откатывается к снимку
//   - Сущности хранятся копиями: изменения загруженного объекта не видны до Save
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/google/uuid"
)

type txMarker struct{}

// Store держит все данные в памяти процесса.
type Store struct {
	txMu sync.Mutex   // одна транзакция за раз
	mu   sync.RWMutex // защита map'ов

	users         map[uuid.UUID]*entities.User
	wallets       map[uuid.UUID]*entities.Wallet
	transactions  map[uuid.UUID]*entities.Transaction
	plans         map[uuid.UUID]*entities.SavingsPlan
	notifications map[uuid.UUID]*entities.Notification
	callbacks     map[uuid.UUID]*entities.GatewayCallback
	outbox        []events.DomainEvent
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*entities.User),
		wallets:       make(map[uuid.UUID]*entities.Wallet),
		transactions:  make(map[uuid.UUID]*entities.Transaction),
		plans:         make(map[uuid.UUID]*entities.SavingsPlan),
		notifications: make(map[uuid.UUID]*entities.Notification),
		callbacks:     make(map[uuid.UUID]*entities.GatewayCallback),
	}
}

// Repositories возвращает адаптеры портов поверх одного Store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Wallets() *WalletRepository { return &WalletRepository{s: s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }
func (s *Store) SavingsPlans() *SavingsPlanRepository { return &SavingsPlanRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }
func (s *Store) GatewayCallbacks() *GatewayCallbackRepository {
	return &GatewayCallbackRepository{s: s}
}
func (s *Store) UnitOfWork() *UnitOfWork { return &UnitOfWork{s: s} }
func (s *Store) Publisher() *EventPublisher { return &EventPublisher{s: s} }

// Events возвращает копию записанных (закоммиченных) событий.
func (s *Store) Events() []events.DomainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.DomainEvent(nil), s.outbox...)
}

// EventsOfType возвращает записанные события одного типа.
func (s *Store) EventsOfType(eventType string) []events.DomainEvent {
	var out []events.DomainEvent
	for _, e := range s.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type snapshot struct {
	users         map[uuid.UUID]*entities.User
	wallets       map[uuid.UUID]*entities.Wallet
	transactions  map[uuid.UUID]*entities.Transaction
	plans         map[uuid.UUID]*entities.SavingsPlan
	notifications map[uuid.UUID]*entities.Notification
	callbacks     map[uuid.UUID]*entities.GatewayCallback
	outboxLen     int
}

// Хранимые объекты никогда не мутируют на месте (Save кладёт новую копию),
// поэтому снимку достаточно скопировать map'ы.
func (s *Store) takeSnapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:         copyMap(s.users),
		wallets:       copyMap(s.wallets),
		transactions:  copyMap(s.transactions),
		plans:         copyMap(s.plans),
		notifications: copyMap(s.notifications),
		callbacks:     copyMap(s.callbacks),
		outboxLen:     len(s.outbox),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.wallets = snap.wallets
	s.transactions = snap.transactions
	s.plans = snap.plans
	s.notifications = snap.notifications
	s.callbacks = snap.callbacks
	s.outbox = s.outbox[:snap.outboxLen]
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork реализует ports.UnitOfWork.
type UnitOfWork struct {
	s *Store
}

// Execute выполняет fn атомарно: при ошибке или panic все изменения откатываются.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) (err error) {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	u.s.txMu.Lock()
	defer u.s.txMu.Unlock()

	snap := u.s.takeSnapshot()
	defer func() {
		if r := recover(); r != nil {
			u.s.restore(snap)
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		u.s.restore(snap)
		return err
	}
	return nil
}

// ExecuteWithResult выполняет функцию и возвращает результат.
func (u *UnitOfWork) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := u.Execute(ctx, func(txCtx context.Context) error {
		var fnErr error
		result, fnErr = fn(txCtx)
		return fnErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Compile-time check
var _ ports.EventPublisher = (*EventPublisher)(nil)

// EventPublisher пишет события в in-memory outbox (откатывается вместе с UnitOfWork).
type EventPublisher struct {
	s *Store
}

func (p *EventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.outbox = append(p.s.outbox, event)
	return nil
}

func (p *EventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.outbox = append(p.s.outbox, evts...)
	return nil
}

// page применяет offset/limit к отсортированному срезу.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type createdEntity interface {
	ID() uuid.UUID
	CreatedAt() time.Time
}

// oldestFirst - порядок (created_at, id) по возрастанию, как ORDER BY в postgres.
// Строковое сравнение UUID совпадает с побайтовым.
func oldestFirst[T createdEntity](items []T) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := items[i].CreatedAt(), items[j].CreatedAt()
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return items[i].ID().String() < items[j].ID().String()
	})
}

// isAfterCursor - строго ли e позже курсора в порядке oldestFirst.
func isAfterCursor(e createdEntity, after *ports.PlanCursor) bool {
	if !e.CreatedAt().Equal(after.CreatedAt) {
		return e.CreatedAt().After(after.CreatedAt)
	}
	return e.ID().String() > after.ID.String()
}

// newestFirst сортирует по убыванию времени создания, при равенстве - по ID.
func newestFirst[T createdEntity](items []T) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := items[i].CreatedAt(), items[j].CreatedAt()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return items[i].ID().String() < items[j].ID().String()
	})
}
