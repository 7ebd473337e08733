package handlers

import (
	"context"
	"errors"

	"github.com/Haleralex/walletledger/internal/application/dtos"
)

// ============================================
// Mock Use Cases
// ============================================

var errNotImplemented = errors.New("not implemented")

type mockCreateUserUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error)
}

func (m *mockCreateUserUseCase) Execute(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockGetUserUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error)
}

func (m *mockGetUserUseCase) Execute(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockListUsersUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error)
}

func (m *mockListUsersUseCase) Execute(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockCreateWalletUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error)
}

func (m *mockCreateWalletUseCase) Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockListWalletsUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListWalletsQuery) (*dtos.WalletListDTO, error)
}

func (m *mockListWalletsUseCase) Execute(ctx context.Context, query dtos.ListWalletsQuery) (*dtos.WalletListDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockSetWalletActiveUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.SetWalletActiveCommand) (*dtos.WalletDTO, error)
}

func (m *mockSetWalletActiveUseCase) Execute(ctx context.Context, cmd dtos.SetWalletActiveCommand) (*dtos.WalletDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockReconcileWalletUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ReconcileWalletQuery) (*dtos.ReconciliationDTO, error)
}

func (m *mockReconcileWalletUseCase) Execute(ctx context.Context, query dtos.ReconcileWalletQuery) (*dtos.ReconciliationDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockCreateTransactionUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CreateTransactionCommand) (*dtos.TransactionDTO, error)
}

func (m *mockCreateTransactionUseCase) Execute(ctx context.Context, cmd dtos.CreateTransactionCommand) (*dtos.TransactionDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockUpdateTransactionStatusUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.UpdateTransactionStatusCommand) (*dtos.TransactionDTO, error)
}

func (m *mockUpdateTransactionStatusUseCase) Execute(ctx context.Context, cmd dtos.UpdateTransactionStatusCommand) (*dtos.TransactionDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockListTransactionsUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error)
}

func (m *mockListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockInitiateDepositUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.InitiateDepositCommand) (*dtos.DepositInitiatedDTO, error)
}

func (m *mockInitiateDepositUseCase) Execute(ctx context.Context, cmd dtos.InitiateDepositCommand) (*dtos.DepositInitiatedDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockHandleGatewayCallbackUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.GatewayCallbackCommand) (*dtos.GatewayCallbackResultDTO, error)
}

func (m *mockHandleGatewayCallbackUseCase) Execute(ctx context.Context, cmd dtos.GatewayCallbackCommand) (*dtos.GatewayCallbackResultDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockCreateSavingsPlanUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error)
}

func (m *mockCreateSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockGetSavingsPlanUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetSavingsPlanQuery) (*dtos.SavingsPlanDTO, error)
}

func (m *mockGetSavingsPlanUseCase) Execute(ctx context.Context, query dtos.GetSavingsPlanQuery) (*dtos.SavingsPlanDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockListSavingsPlansUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListSavingsPlansQuery) (*dtos.SavingsPlanListDTO, error)
}

func (m *mockListSavingsPlansUseCase) Execute(ctx context.Context, query dtos.ListSavingsPlansQuery) (*dtos.SavingsPlanListDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockReschedulePlanUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ReschedulePlanCommand) (*dtos.SavingsPlanDTO, error)
}

func (m *mockReschedulePlanUseCase) Execute(ctx context.Context, cmd dtos.ReschedulePlanCommand) (*dtos.SavingsPlanDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockFundSavingsPlanUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error)
}

func (m *mockFundSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockCancelSavingsPlanUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CancelSavingsPlanCommand) (*dtos.SavingsPlanDTO, error)
}

func (m *mockCancelSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.CancelSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockProcessRecurringDeductionsUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error)
}

func (m *mockProcessRecurringDeductionsUseCase) Execute(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockListNotificationsUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListNotificationsQuery) (*dtos.NotificationListDTO, error)
}

func (m *mockListNotificationsUseCase) Execute(ctx context.Context, query dtos.ListNotificationsQuery) (*dtos.NotificationListDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockMarkNotificationReadUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.MarkNotificationReadCommand) (*dtos.NotificationDTO, error)
}

func (m *mockMarkNotificationReadUseCase) Execute(ctx context.Context, cmd dtos.MarkNotificationReadCommand) (*dtos.NotificationDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errNotImplemented
}

type mockGetWalletUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error)
	ByUserFn  func(ctx context.Context, query dtos.GetWalletByUserQuery) (*dtos.WalletDTO, error)
}

func (m *mockGetWalletUseCase) Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

func (m *mockGetWalletUseCase) ByUser(ctx context.Context, query dtos.GetWalletByUserQuery) (*dtos.WalletDTO, error) {
	if m.ByUserFn != nil {
		return m.ByUserFn(ctx, query)
	}
	return nil, errNotImplemented
}

type mockGetTransactionUseCase struct {
	ExecuteFn     func(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
	ByReferenceFn func(ctx context.Context, query dtos.GetTransactionByReferenceQuery) (*dtos.TransactionDTO, error)
}

func (m *mockGetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errNotImplemented
}

func (m *mockGetTransactionUseCase) ByReference(ctx context.Context, query dtos.GetTransactionByReferenceQuery) (*dtos.TransactionDTO, error) {
	if m.ByReferenceFn != nil {
		return m.ByReferenceFn(ctx, query)
	}
	return nil, errNotImplemented
}
