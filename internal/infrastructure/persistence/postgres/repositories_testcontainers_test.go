// Package postgres - интеграционные тесты для PostgreSQL repositories с testcontainers.
//
// Запуск тестов:
//
//	go test ./internal/infrastructure/persistence/postgres/...
//
// Требования:
//   - Docker запущен
//   - при -short тесты пропускаются
package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	domerrors "github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// ============================================
// Test Helpers
// ============================================

// testContainer хранит контейнер и pool для тестов.
type testContainer struct {
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
}

// Один контейнер на весь пакет, данные чистятся между тестами
var sharedTestContainer *testContainer

// migrationScripts - up-миграции в порядке применения.
func migrationScripts() []string {
	dir := filepath.Join("..", "migrations")
	return []string{
		filepath.Join(dir, "000001_create_users.up.sql"),
		filepath.Join(dir, "000002_create_wallets.up.sql"),
		filepath.Join(dir, "000003_create_savings_plans.up.sql"),
		filepath.Join(dir, "000004_create_transactions.up.sql"),
		filepath.Join(dir, "000005_create_notifications.up.sql"),
		filepath.Join(dir, "000006_create_outbox.up.sql"),
	}
}

// setupSharedTestDB создаёт или возвращает переиспользуемый PostgreSQL контейнер.
func setupSharedTestDB(t *testing.T) *testContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	if sharedTestContainer != nil {
		cleanupTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.WithInitScripts(migrationScripts()...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	poolConfig.MaxConns = 16
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	sharedTestContainer = &testContainer{
		container: container,
		pool:      pool,
	}

	return sharedTestContainer
}

// cleanupTables очищает все таблицы между тестами.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE outbox, notifications, transactions, gateway_callbacks, savings_plans, wallets, users CASCADE`)
	require.NoError(t, err)
}

func ngn(t *testing.T, amount string) valueobjects.Money {
	t.Helper()
	m, err := valueobjects.NewMoney(amount, valueobjects.NGN)
	require.NoError(t, err)
	return m
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createUserWithWallet сохраняет пользователя и NGN кошелёк с начальным балансом.
func createUserWithWallet(t *testing.T, pool *pgxpool.Pool, balance string) (*entities.User, *entities.Wallet) {
	t.Helper()
	ctx := context.Background()

	user, err := entities.NewUser(uuid.NewString()[:8]+"@example.com", "Ada Obi")
	require.NoError(t, err)
	require.NoError(t, NewUserRepository(pool).Save(ctx, user))

	wallet, err := entities.NewWallet(user.ID(), valueobjects.NGN)
	require.NoError(t, err)

	walletRepo := NewWalletRepository(pool)
	require.NoError(t, walletRepo.Save(ctx, wallet))

	if balance != "0" {
		require.NoError(t, wallet.Credit(ngn(t, balance)))
		require.NoError(t, walletRepo.Save(ctx, wallet))
	}

	return user, wallet
}

// ============================================
// UserRepository
// ============================================

func TestUserRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(tc.pool)

	user, err := entities.NewUser("Grace@Example.com", "Grace Eze")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, user.Email(), found.Email())
		assert.Equal(t, "Grace Eze", found.FullName())
		assert.WithinDuration(t, user.CreatedAt(), found.CreatedAt(), time.Millisecond)
	})

	t.Run("find by email ignores case", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "GRACE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID(), found.ID())

		exists, err := repo.ExistsByEmail(ctx, "grace@EXAMPLE.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		other, err := entities.NewUser(user.Email(), "Someone Else")
		require.NoError(t, err)

		err = repo.Save(ctx, other)
		require.Error(t, err)
		assert.ErrorIs(t, err, domerrors.ErrUserAlreadyExists)
	})

	t.Run("update profile", func(t *testing.T) {
		require.NoError(t, user.UpdateProfile(user.Email(), "Grace N. Eze"))
		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, "Grace N. Eze", found.FullName())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domerrors.ErrUserNotFound)
	})

	t.Run("list", func(t *testing.T) {
		users, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

// ============================================
// WalletRepository
// ============================================

func TestWalletRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewWalletRepository(tc.pool)

	user, wallet := createUserWithWallet(t, tc.pool, "1500.75")

	t.Run("balance survives round trip exactly", func(t *testing.T) {
		found, err := repo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)
		assert.True(t, found.Balance().Equals(ngn(t, "1500.75")), "got %s", found.Balance())
		assert.Equal(t, wallet.Version(), found.Version())
		assert.True(t, found.IsActive())
	})

	t.Run("find by user", func(t *testing.T) {
		found, err := repo.FindByUserID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, wallet.ID(), found.ID())

		exists, err := repo.ExistsByUserID(ctx, user.ID())
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("second wallet for user", func(t *testing.T) {
		another, err := entities.NewWallet(user.ID(), valueobjects.NGN)
		require.NoError(t, err)

		err = repo.Save(ctx, another)
		assert.ErrorIs(t, err, domerrors.ErrWalletAlreadyExists)
	})

	t.Run("wallet for missing user", func(t *testing.T) {
		orphan, err := entities.NewWallet(uuid.New(), valueobjects.NGN)
		require.NoError(t, err)

		err = repo.Save(ctx, orphan)
		assert.ErrorIs(t, err, domerrors.ErrUserNotFound)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		first, err := repo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)

		require.NoError(t, first.Credit(ngn(t, "10")))
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.Credit(ngn(t, "20")))
		err = repo.Save(ctx, second)
		require.Error(t, err)
		assert.True(t, domerrors.IsConcurrencyError(err))

		found, err := repo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)
		assert.True(t, found.Balance().Equals(ngn(t, "1510.75")))
	})

	t.Run("list filters by active flag", func(t *testing.T) {
		_, inactive := createUserWithWallet(t, tc.pool, "0")
		inactive.Deactivate()
		require.NoError(t, repo.Save(ctx, inactive))

		active := true
		wallets, err := repo.List(ctx, ports.WalletFilter{Active: &active}, 0, 10)
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.Equal(t, wallet.ID(), wallets[0].ID())

		currency := valueobjects.NGN
		all, err := repo.List(ctx, ports.WalletFilter{Currency: &currency}, 0, 10)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

// ============================================
// TransactionRepository
// ============================================

func TestTransactionRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewTransactionRepository(tc.pool)

	user, wallet := createUserWithWallet(t, tc.pool, "0")

	deposit, err := entities.NewTransaction(user.ID(), wallet.ID(), "dep-001", entities.TransactionTypeDeposit, ngn(t, "250.50"))
	require.NoError(t, err)
	deposit.SetMetadata("channel", "card")
	require.NoError(t, repo.Save(ctx, deposit))

	t.Run("insert then find by reference", func(t *testing.T) {
		assert.False(t, deposit.IsNew())

		found, err := repo.FindByReference(ctx, "dep-001")
		require.NoError(t, err)
		assert.Equal(t, deposit.ID(), found.ID())
		assert.Equal(t, entities.TransactionStatusPending, found.Status())
		assert.True(t, found.Amount().Equals(ngn(t, "250.50")))
		assert.Equal(t, "card", found.Metadata()["channel"])
	})

	t.Run("duplicate reference", func(t *testing.T) {
		dup, err := entities.NewTransaction(user.ID(), wallet.ID(), "dep-001", entities.TransactionTypeDeposit, ngn(t, "1"))
		require.NoError(t, err)

		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, domerrors.ErrDuplicateReference)
	})

	t.Run("missing wallet", func(t *testing.T) {
		orphan, err := entities.NewTransaction(user.ID(), uuid.New(), "dep-orphan", entities.TransactionTypeDeposit, ngn(t, "1"))
		require.NoError(t, err)

		err = repo.Save(ctx, orphan)
		assert.ErrorIs(t, err, domerrors.ErrWalletNotFound)
	})

	t.Run("status update", func(t *testing.T) {
		found, err := repo.FindByID(ctx, deposit.ID())
		require.NoError(t, err)
		require.NoError(t, found.MarkSuccessful())
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, deposit.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.TransactionStatusSuccessful, reloaded.Status())
		assert.Equal(t, entities.TransactionStatusSuccessful, reloaded.PersistedStatus())
	})

	t.Run("list count and sums", func(t *testing.T) {
		withdrawal, err := entities.NewTransaction(user.ID(), wallet.ID(), "wd-001", entities.TransactionTypeWithdrawal, ngn(t, "50.25"))
		require.NoError(t, err)
		require.NoError(t, withdrawal.MarkSuccessful())
		require.NoError(t, repo.Save(ctx, withdrawal))

		failed, err := entities.NewTransaction(user.ID(), wallet.ID(), "wd-002", entities.TransactionTypeWithdrawal, ngn(t, "999"))
		require.NoError(t, err)
		require.NoError(t, failed.MarkFailed("declined"))
		require.NoError(t, repo.Save(ctx, failed))

		walletID := wallet.ID()
		all, err := repo.List(ctx, ports.TransactionFilter{WalletID: &walletID}, 0, 10)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		withdrawalType := entities.TransactionTypeWithdrawal
		count, err := repo.Count(ctx, ports.TransactionFilter{WalletID: &walletID, Type: &withdrawalType})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		credits, debits, err := repo.SumSuccessful(ctx, wallet.ID())
		require.NoError(t, err)
		assert.True(t, credits.Equals(ngn(t, "250.50")), "credits %s", credits)
		assert.True(t, debits.Equals(ngn(t, "50.25")), "debits %s", debits)
	})

	t.Run("sum for wallet without transactions", func(t *testing.T) {
		_, empty := createUserWithWallet(t, tc.pool, "0")

		credits, debits, err := repo.SumSuccessful(ctx, empty.ID())
		require.NoError(t, err)
		assert.True(t, credits.IsZero())
		assert.True(t, debits.IsZero())

		_, _, err = repo.SumSuccessful(ctx, uuid.New())
		assert.ErrorIs(t, err, domerrors.ErrWalletNotFound)
	})
}

// ============================================
// SavingsPlanRepository
// ============================================

func TestSavingsPlanRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewSavingsPlanRepository(tc.pool)
	txRepo := NewTransactionRepository(tc.pool)

	user, wallet := createUserWithWallet(t, tc.pool, "0")

	sched, err := schedule.New(schedule.FrequencyWeekly, day(2024, 1, 1), day(2024, 1, 22))
	require.NoError(t, err)
	plan, err := entities.NewSavingsPlan(user.ID(), wallet.ID(), "Rent", ngn(t, "400"), sched)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, plan))

	oneTimeSched, err := schedule.New(schedule.FrequencyOneTime, day(2024, 1, 1), day(2024, 1, 1))
	require.NoError(t, err)
	oneTime, err := entities.NewSavingsPlan(user.ID(), wallet.ID(), "Gift", ngn(t, "50"), oneTimeSched)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, oneTime))

	t.Run("round trip", func(t *testing.T) {
		found, err := repo.FindByID(ctx, plan.ID())
		require.NoError(t, err)
		assert.Equal(t, "Rent", found.Name())
		assert.True(t, found.DeductionAmount().Equals(ngn(t, "100")))
		assert.True(t, found.AmountSaved().IsZero())
		assert.Equal(t, schedule.FrequencyWeekly, found.Schedule().Frequency())
		assert.True(t, found.Schedule().StartDate().Equal(day(2024, 1, 1)))
		assert.True(t, found.Schedule().EndDate().Equal(day(2024, 1, 22)))
		assert.Nil(t, found.LastDeductionDate())
	})

	t.Run("due candidates exclude one-time and out of range", func(t *testing.T) {
		due, err := repo.FindDueCandidates(ctx, day(2024, 1, 8), nil, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, plan.ID(), due[0].ID())

		due, err = repo.FindDueCandidates(ctx, day(2024, 2, 1), nil, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("due candidates page by created_at and skip settled", func(t *testing.T) {
		otherUser, otherWallet := createUserWithWallet(t, tc.pool, "0")
		dailySched, err := schedule.New(schedule.FrequencyDaily, day(2024, 1, 1), day(2024, 1, 31))
		require.NoError(t, err)

		daily := make([]*entities.SavingsPlan, 0, 2)
		for _, name := range []string{"Lunch", "Transport"} {
			p, err := entities.NewSavingsPlan(otherUser.ID(), otherWallet.ID(), name, ngn(t, "310"), dailySched)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, p))
			daily = append(daily, p)
		}

		first, err := repo.FindDueCandidates(ctx, day(2024, 1, 8), nil, 2)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, plan.ID(), first[0].ID())

		second, err := repo.FindDueCandidates(ctx, day(2024, 1, 8), ports.CursorAfter(first[1]), 2)
		require.NoError(t, err)
		require.Len(t, second, 1)

		seen := map[uuid.UUID]bool{}
		for _, p := range append(first, second...) {
			seen[p.ID()] = true
		}
		assert.Len(t, seen, 3)
		assert.True(t, seen[daily[0].ID()])
		assert.True(t, seen[daily[1].ID()])

		settled, err := repo.FindByID(ctx, daily[0].ID())
		require.NoError(t, err)
		settled.AdvanceDeductionMarker(day(2024, 1, 8))
		require.NoError(t, repo.Save(ctx, settled))

		due, err := repo.FindDueCandidates(ctx, day(2024, 1, 8), nil, 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		for _, p := range due {
			assert.NotEqual(t, daily[0].ID(), p.ID())
		}

		// Остальные подтесты считают только планы первого пользователя
		for _, p := range daily {
			require.NoError(t, p.Cancel())
			require.NoError(t, repo.Save(ctx, p))
		}
	})

	t.Run("funding and marker persist", func(t *testing.T) {
		found, err := repo.FindByIDForUpdate(ctx, plan.ID())
		require.NoError(t, err)

		_, err = found.RecordFunding(ngn(t, "100"))
		require.NoError(t, err)
		found.AdvanceDeductionMarker(day(2024, 1, 1))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, plan.ID())
		require.NoError(t, err)
		assert.True(t, reloaded.AmountSaved().Equals(ngn(t, "100")))
		require.NotNil(t, reloaded.LastDeductionDate())
		assert.True(t, reloaded.LastDeductionDate().Equal(day(2024, 1, 1)))
	})

	t.Run("plan funding sum", func(t *testing.T) {
		funding, err := entities.NewTransaction(user.ID(), wallet.ID(), "savings-"+plan.ID().String()+"-20240101",
			entities.TransactionTypeSavingsFunding, ngn(t, "100"))
		require.NoError(t, err)
		require.NoError(t, funding.LinkSavingsPlan(plan.ID()))
		require.NoError(t, funding.MarkSuccessful())
		require.NoError(t, txRepo.Save(ctx, funding))

		total, err := txRepo.SumPlanFunding(ctx, plan.ID())
		require.NoError(t, err)
		assert.True(t, total.Equals(ngn(t, "100")), "total %s", total)

		_, err = txRepo.SumPlanFunding(ctx, uuid.New())
		assert.ErrorIs(t, err, domerrors.ErrSavingsPlanNotFound)
	})

	t.Run("list by status", func(t *testing.T) {
		require.NoError(t, oneTime.Cancel())
		require.NoError(t, repo.Save(ctx, oneTime))

		active := entities.SavingsPlanStatusActive
		plans, err := repo.List(ctx, user.ID(), &active, 0, 10)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, plan.ID(), plans[0].ID())

		all, err := repo.List(ctx, user.ID(), nil, 0, 10)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domerrors.ErrSavingsPlanNotFound)
	})
}

// ============================================
// NotificationRepository / GatewayCallbackRepository
// ============================================

func TestNotificationRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(tc.pool)

	user, _ := createUserWithWallet(t, tc.pool, "0")

	first, err := entities.NewNotification(user.ID(), entities.NotificationSavingsDeductionSucceeded, "Saved", "100.00 NGN moved to Rent")
	require.NoError(t, err)
	second, err := entities.NewNotification(user.ID(), entities.NotificationSavingsDeductionFailed, "Missed", "Insufficient funds")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	first.MarkRead()
	require.NoError(t, repo.Save(ctx, first))

	found, err := repo.FindByID(ctx, first.ID())
	require.NoError(t, err)
	assert.True(t, found.IsRead())
	assert.Equal(t, entities.NotificationSavingsDeductionSucceeded, found.Kind())

	unread, err := repo.ListByUser(ctx, user.ID(), true, 0, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID(), unread[0].ID())

	all, err := repo.ListByUser(ctx, user.ID(), false, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domerrors.ErrNotificationNotFound)

	orphan, err := entities.NewNotification(uuid.New(), entities.NotificationTransactionFailed, "x", "y")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, orphan), domerrors.ErrUserNotFound)
}

func TestGatewayCallbackRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewGatewayCallbackRepository(tc.pool)

	cb, err := entities.NewGatewayCallback("paystack", "evt_1", "dep-001", "charge.success", true, []byte(`{"status":"success","amount":25050}`))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cb))

	found, err := repo.FindByProviderEvent(ctx, "paystack", "evt_1")
	require.NoError(t, err)
	assert.Equal(t, cb.ID(), found.ID())
	assert.True(t, found.IsSuccessful())
	assert.JSONEq(t, `{"status":"success","amount":25050}`, string(found.Payload()))

	redelivery, err := entities.NewGatewayCallback("paystack", "evt_1", "dep-001", "charge.success", true, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, redelivery), domerrors.ErrEntityAlreadyExists)

	_, err = repo.FindByProviderEvent(ctx, "paystack", "evt_404")
	assert.ErrorIs(t, err, domerrors.ErrEntityNotFound)
}

// ============================================
// OutboxRepository
// ============================================

func TestOutboxRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()
	repo := NewOutboxRepository(tc.pool)

	walletID := uuid.New()
	first := events.NewWalletStatusChanged(walletID, false)
	second := events.NewWalletStatusChanged(walletID, true)
	require.NoError(t, repo.PublishBatch(ctx, []events.DomainEvent{first, second}))

	pending, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.EventID().String(), pending[0].ID)
	assert.Equal(t, "wallet", pending[0].AggregateType)
	assert.Equal(t, events.EventTypeWalletStatusChanged, pending[0].EventType)
	assert.Equal(t, walletID.String(), pending[0].AggregateID)

	t.Run("mark published", func(t *testing.T) {
		require.NoError(t, repo.MarkPublished(ctx, first.EventID().String()))
		assert.Error(t, repo.MarkPublished(ctx, first.EventID().String()))

		pending, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second.EventID().String(), pending[0].ID)
	})

	t.Run("failed after max attempts", func(t *testing.T) {
		id := second.EventID().String()
		require.NoError(t, repo.MarkFailed(ctx, id, "nats: timeout", 2))

		pending, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 1, pending[0].Attempts)

		require.NoError(t, repo.MarkFailed(ctx, id, "nats: timeout", 2))

		pending, err = repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("cleanup keeps recent", func(t *testing.T) {
		deleted, err := repo.CleanupPublished(ctx, 7)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

// ============================================
// UnitOfWork
// ============================================

func TestUnitOfWork_Integration_Rollback(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	uow := NewUnitOfWork(tc.pool)
	userRepo := NewUserRepository(tc.pool)
	outbox := NewOutboxRepository(tc.pool)

	user, err := entities.NewUser("rollback@example.com", "Roll Back")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = uow.Execute(ctx, func(txCtx context.Context) error {
		if err := userRepo.Save(txCtx, user); err != nil {
			return err
		}
		if err := outbox.Publish(txCtx, events.NewUserCreated(user.ID(), user.Email(), user.FullName())); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = userRepo.FindByID(ctx, user.ID())
	assert.ErrorIs(t, err, domerrors.ErrUserNotFound)

	pending, err := outbox.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	t.Run("commit", func(t *testing.T) {
		result, err := uow.ExecuteWithResult(ctx, func(txCtx context.Context) (interface{}, error) {
			if err := userRepo.Save(txCtx, user); err != nil {
				return nil, err
			}
			// Вложенный Execute переиспользует ту же транзакцию
			return user.ID(), uow.Execute(txCtx, func(inner context.Context) error {
				return outbox.Publish(inner, events.NewUserCreated(user.ID(), user.Email(), user.FullName()))
			})
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID(), result)

		_, err = userRepo.FindByID(ctx, user.ID())
		require.NoError(t, err)

		pending, err := outbox.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})
}

// TestBalanceMutator_Integration_ConcurrentDebits проверяет, что row lock
// не даёт параллельным списаниям увести баланс в минус.
func TestBalanceMutator_Integration_ConcurrentDebits(t *testing.T) {
	tc := setupSharedTestDB(t)
	ctx := context.Background()

	uow := NewUnitOfWork(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	txRepo := NewTransactionRepository(tc.pool)
	outbox := NewOutboxRepository(tc.pool)
	mutator := ledger.NewBalanceMutator(walletRepo, NewSavingsPlanRepository(tc.pool), outbox, nil)

	user, wallet := createUserWithWallet(t, tc.pool, "100")

	const workers = 8
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		insufficient int
		unexpected   []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := uow.Execute(ctx, func(txCtx context.Context) error {
				tx, err := entities.NewTransaction(user.ID(), wallet.ID(), "wd-"+uuid.NewString(),
					entities.TransactionTypeWithdrawal, valueobjects.MustNewMoney("30", valueobjects.NGN))
				if err != nil {
					return err
				}
				if err := tx.MarkSuccessful(); err != nil {
					return err
				}
				if _, err := mutator.Apply(txCtx, tx); err != nil {
					return err
				}
				return txRepo.Save(txCtx, tx)
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domerrors.IsInsufficientFunds(err):
				insufficient++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, 3, successes)
	assert.Equal(t, workers-3, insufficient)

	found, err := walletRepo.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.True(t, found.Balance().Equals(ngn(t, "10")), "balance %s", found.Balance())

	credits, debits, err := txRepo.SumSuccessful(ctx, wallet.ID())
	require.NoError(t, err)
	assert.True(t, credits.IsZero())
	assert.True(t, debits.Equals(ngn(t, "90")))

	pending, err := outbox.FindUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
