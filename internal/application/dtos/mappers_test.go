package dtos

import (
	"testing"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUserDTO(t *testing.T) {
	user, err := entities.NewUser("test@example.com", "Test User")
	require.NoError(t, err)

	dto := ToUserDTO(user)

	assert.Equal(t, user.ID().String(), dto.ID)
	assert.Equal(t, "test@example.com", dto.Email)
	assert.Equal(t, "Test User", dto.FullName)
	assert.False(t, dto.CreatedAt.IsZero())
}

func TestToUserDTOList_Empty(t *testing.T) {
	dtos := ToUserDTOList(nil)

	assert.NotNil(t, dtos)
	assert.Len(t, dtos, 0)
}

func TestToWalletDTO(t *testing.T) {
	balance := valueobjects.MustNewMoney("1500.5", valueobjects.NGN)
	wallet := entities.ReconstructWallet(uuid.New(), uuid.New(), valueobjects.NGN, balance, true, 3, time.Now(), time.Now())

	dto := ToWalletDTO(wallet)

	assert.Equal(t, wallet.ID().String(), dto.ID)
	assert.Equal(t, "NGN", dto.CurrencyCode)
	assert.Equal(t, "1500.50", dto.Balance)
	assert.True(t, dto.IsActive)
	assert.Equal(t, int64(3), dto.Version)
}

func TestToTransactionDTO(t *testing.T) {
	planID := uuid.New()
	tx, err := entities.NewTransaction(uuid.New(), uuid.New(), "ref-42",
		entities.TransactionTypeSavingsFunding, valueobjects.MustNewMoney("10", valueobjects.USD))
	require.NoError(t, err)
	require.NoError(t, tx.LinkSavingsPlan(planID))
	require.NoError(t, tx.MarkFailed("card declined"))

	dto := ToTransactionDTO(tx)

	assert.Equal(t, "ref-42", dto.Reference)
	assert.Equal(t, "savings_funding", dto.Type)
	assert.Equal(t, "failed", dto.Status)
	assert.Equal(t, "10.00", dto.Amount)
	assert.Equal(t, "USD", dto.CurrencyCode)
	assert.Equal(t, "card declined", dto.FailureReason)
	require.NotNil(t, dto.SavingsPlanID)
	assert.Equal(t, planID.String(), *dto.SavingsPlanID)
	assert.Nil(t, dto.GatewayCallbackID)
	assert.Equal(t, "card declined", dto.Metadata[entities.MetadataFailureReason])
}

func TestToTransactionDTO_EmptyMetadataOmitted(t *testing.T) {
	tx, err := entities.NewTransaction(uuid.New(), uuid.New(), "ref-1",
		entities.TransactionTypeDeposit, valueobjects.MustNewMoney("1", valueobjects.NGN))
	require.NoError(t, err)

	assert.Nil(t, ToTransactionDTO(tx).Metadata)
}

func TestToSavingsPlanDTO(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	sched, err := schedule.New(schedule.FrequencyMonthly, start, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	plan, err := entities.NewSavingsPlan(uuid.New(), uuid.New(), "Holiday",
		valueobjects.MustNewMoney("1000", valueobjects.NGN), sched)
	require.NoError(t, err)
	plan.AdvanceDeductionMarker(start)

	dto := ToSavingsPlanDTO(plan)

	assert.Equal(t, "monthly", dto.Frequency)
	assert.Equal(t, "2024-01-31", dto.StartDate)
	assert.Equal(t, "2024-06-30", dto.EndDate)
	assert.Equal(t, int64(6), dto.NumberOfPeriods)
	assert.Equal(t, "166.67", dto.DeductionAmount)
	assert.Equal(t, "1000.00", dto.RemainingAmount)
	require.NotNil(t, dto.LastDeductionDate)
	assert.Equal(t, "2024-01-31", *dto.LastDeductionDate)
	require.NotNil(t, dto.NextDueDate)
	assert.Equal(t, "2024-02-29", *dto.NextDueDate)
}

func TestToNotificationDTO(t *testing.T) {
	n, err := entities.NewNotification(uuid.New(), entities.NotificationSavingsDeductionFailed, "Deduction failed", "Insufficient funds")
	require.NoError(t, err)

	dto := ToNotificationDTO(n)

	assert.Equal(t, "savings_deduction_failed", dto.Kind)
	assert.False(t, dto.Read)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}
