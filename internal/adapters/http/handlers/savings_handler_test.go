package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
	"github.com/Haleralex/walletledger/internal/application/dtos"
	domainerrors "github.com/Haleralex/walletledger/internal/domain/errors"
)

type savingsMocks struct {
	create     *mockCreateSavingsPlanUseCase
	get        *mockGetSavingsPlanUseCase
	list       *mockListSavingsPlansUseCase
	reschedule *mockReschedulePlanUseCase
	fund       *mockFundSavingsPlanUseCase
	cancel     *mockCancelSavingsPlanUseCase
	process    *mockProcessRecurringDeductionsUseCase
	notifs     *mockListNotificationsUseCase
	markRead   *mockMarkNotificationReadUseCase
}

func newSavingsMocks(planID, owner string) savingsMocks {
	return savingsMocks{
		create: &mockCreateSavingsPlanUseCase{},
		get: &mockGetSavingsPlanUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetSavingsPlanQuery) (*dtos.SavingsPlanDTO, error) {
				if query.PlanID != planID {
					return nil, domainerrors.ErrSavingsPlanNotFound
				}
				return &dtos.SavingsPlanDTO{ID: planID, UserID: owner, Status: "active"}, nil
			},
		},
		list:       &mockListSavingsPlansUseCase{},
		reschedule: &mockReschedulePlanUseCase{},
		fund:       &mockFundSavingsPlanUseCase{},
		cancel:     &mockCancelSavingsPlanUseCase{},
		process:    &mockProcessRecurringDeductionsUseCase{},
		notifs:     &mockListNotificationsUseCase{},
		markRead:   &mockMarkNotificationReadUseCase{},
	}
}

func savingsRouter(who *caller, m savingsMocks) http.Handler {
	router := newTestRouter(who)
	h := NewSavingsHandler(SavingsUseCases{
		Create:            m.create,
		Get:               m.get,
		List:              m.list,
		Reschedule:        m.reschedule,
		Fund:              m.fund,
		Cancel:            m.cancel,
		ProcessDeductions: m.process,
		ListNotifications: m.notifs,
		MarkRead:          m.markRead,
	})
	h.RegisterRoutes(router.Group("/api/v1"), passThrough, middleware.RequireRole(middleware.RoleAdmin, middleware.RoleService))
	return router
}

func TestSavingsHandler_CreatePlan(t *testing.T) {
	owner := uuid.NewString()
	valid := CreateSavingsPlanRequest{
		UserID:       owner,
		Name:         "Rent",
		TargetAmount: "1200.00",
		Frequency:    "monthly",
		StartDate:    "2024-01-31",
		EndDate:      "2024-12-31",
	}

	t.Run("Success", func(t *testing.T) {
		var got dtos.CreateSavingsPlanCommand
		m := newSavingsMocks("", owner)
		m.create.ExecuteFn = func(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
			got = cmd
			return &dtos.SavingsPlanDTO{ID: uuid.NewString(), UserID: cmd.UserID, DeductionAmount: "100.00", NumberOfPeriods: 12}, nil
		}

		w := doJSON(savingsRouter(asUser(owner), m), http.MethodPost, "/api/v1/savings-plans", valid)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "2024-01-31", got.StartDate)
		var plan dtos.SavingsPlanDTO
		decodeData(t, w, &plan)
		assert.Equal(t, int64(12), plan.NumberOfPeriods)
	})

	t.Run("Validation", func(t *testing.T) {
		router := savingsRouter(nil, newSavingsMocks("", owner))
		tests := []struct {
			name  string
			patch func(*CreateSavingsPlanRequest)
			field string
		}{
			{"frequency", func(r *CreateSavingsPlanRequest) { r.Frequency = "yearly" }, "frequency"},
			{"start date", func(r *CreateSavingsPlanRequest) { r.StartDate = "31/01/2024" }, "start_date"},
			{"target", func(r *CreateSavingsPlanRequest) { r.TargetAmount = "abc" }, "target_amount"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := valid
				tt.patch(&req)

				w := doJSON(router, http.MethodPost, "/api/v1/savings-plans", req)

				require.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, tt.field, decode(t, w).Error.Fields[0].Field)
			})
		}
	})

	t.Run("InvalidSchedule", func(t *testing.T) {
		m := newSavingsMocks("", owner)
		m.create.ExecuteFn = func(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
			return nil, domainerrors.ErrInvalidSchedule
		}

		w := doJSON(savingsRouter(nil, m), http.MethodPost, "/api/v1/savings-plans", valid)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSavingsHandler_PlanOwnership(t *testing.T) {
	planID := uuid.NewString()
	owner := uuid.NewString()
	stranger := asUser(uuid.NewString())

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/v1/savings-plans/" + planID, nil},
		{http.MethodPut, "/api/v1/savings-plans/" + planID + "/schedule", ReschedulePlanRequest{TargetAmount: "10", Frequency: "daily", StartDate: "2024-01-01", EndDate: "2024-01-10"}},
		{http.MethodPost, "/api/v1/savings-plans/" + planID + "/fund", FundSavingsPlanRequest{Amount: "5"}},
		{http.MethodPost, "/api/v1/savings-plans/" + planID + "/cancel", nil},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := doJSON(savingsRouter(stranger, newSavingsMocks(planID, owner)), r.method, r.path, r.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	t.Run("UnknownPlan", func(t *testing.T) {
		w := doJSON(savingsRouter(asUser(owner), newSavingsMocks(planID, owner)), http.MethodGet, "/api/v1/savings-plans/"+uuid.NewString(), nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Savings plan not found", decode(t, w).Error.Message)
	})
}

func TestSavingsHandler_FundPlan(t *testing.T) {
	planID := uuid.NewString()
	owner := uuid.NewString()

	t.Run("ScheduledAmountWithoutBody", func(t *testing.T) {
		var got dtos.FundSavingsPlanCommand
		m := newSavingsMocks(planID, owner)
		m.fund.ExecuteFn = func(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error) {
			got = cmd
			return &dtos.FundingResultDTO{
				Plan:        dtos.SavingsPlanDTO{ID: planID, AmountSaved: "100.00"},
				Transaction: dtos.TransactionDTO{Type: "savings_funding", Status: "successful"},
			}, nil
		}

		w := doJSON(savingsRouter(asUser(owner), m), http.MethodPost, "/api/v1/savings-plans/"+planID+"/fund", nil)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, planID, got.PlanID)
		assert.Empty(t, got.Amount)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		m := newSavingsMocks(planID, owner)
		m.fund.ExecuteFn = func(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error) {
			return nil, domainerrors.NewInsufficientFunds(uuid.NewString(), "1.00", cmd.Amount)
		}

		w := doJSON(savingsRouter(asUser(owner), m), http.MethodPost, "/api/v1/savings-plans/"+planID+"/fund",
			FundSavingsPlanRequest{Amount: "50.00"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("PlanNotActive", func(t *testing.T) {
		m := newSavingsMocks(planID, owner)
		m.fund.ExecuteFn = func(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error) {
			return nil, domainerrors.ErrSavingsPlanNotActive
		}

		w := doJSON(savingsRouter(asUser(owner), m), http.MethodPost, "/api/v1/savings-plans/"+planID+"/fund",
			FundSavingsPlanRequest{Amount: "50.00"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSavingsHandler_RescheduleAndCancel(t *testing.T) {
	planID := uuid.NewString()
	owner := uuid.NewString()
	m := newSavingsMocks(planID, owner)
	m.reschedule.ExecuteFn = func(ctx context.Context, cmd dtos.ReschedulePlanCommand) (*dtos.SavingsPlanDTO, error) {
		return &dtos.SavingsPlanDTO{ID: cmd.PlanID, TargetAmount: cmd.TargetAmount, Frequency: cmd.Frequency}, nil
	}
	m.cancel.ExecuteFn = func(ctx context.Context, cmd dtos.CancelSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
		return &dtos.SavingsPlanDTO{ID: cmd.PlanID, Status: "cancelled"}, nil
	}
	router := savingsRouter(asUser(owner), m)

	w := doJSON(router, http.MethodPut, "/api/v1/savings-plans/"+planID+"/schedule", ReschedulePlanRequest{
		TargetAmount: "700.00", Frequency: "weekly", StartDate: "2024-03-01", EndDate: "2024-06-01",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plan dtos.SavingsPlanDTO
	decodeData(t, w, &plan)
	assert.Equal(t, "weekly", plan.Frequency)

	w = doJSON(router, http.MethodPost, "/api/v1/savings-plans/"+planID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &plan)
	assert.Equal(t, "cancelled", plan.Status)
}

func TestSavingsHandler_ListUserPlans(t *testing.T) {
	owner := uuid.NewString()
	var got dtos.ListSavingsPlansQuery
	m := newSavingsMocks("", owner)
	m.list.ExecuteFn = func(ctx context.Context, query dtos.ListSavingsPlansQuery) (*dtos.SavingsPlanListDTO, error) {
		got = query
		return &dtos.SavingsPlanListDTO{Plans: []dtos.SavingsPlanDTO{}}, nil
	}

	w := doJSON(savingsRouter(asUser(owner), m), http.MethodGet, "/api/v1/users/"+owner+"/savings-plans?status=active", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, owner, got.UserID)
	require.NotNil(t, got.Status)
	assert.Equal(t, "active", *got.Status)

	w = doJSON(savingsRouter(asUser(uuid.NewString()), m), http.MethodGet, "/api/v1/users/"+owner+"/savings-plans", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSavingsHandler_RunDeductions(t *testing.T) {
	var got dtos.ProcessRecurringDeductionsCommand
	m := newSavingsMocks("", "")
	m.process.ExecuteFn = func(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error) {
		got = cmd
		return &dtos.DeductionReportDTO{AsOf: cmd.AsOf, Scanned: 3, Due: 2, Succeeded: 1, Failed: 1}, nil
	}

	t.Run("Service", func(t *testing.T) {
		service := &caller{userID: uuid.NewString(), role: middleware.RoleService}
		w := doJSON(savingsRouter(service, m), http.MethodPost, "/api/v1/savings-plans/deductions/run?as_of=2024-02-29", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got.AsOf)
		var report dtos.DeductionReportDTO
		decodeData(t, w, &report)
		assert.Equal(t, 1, report.Failed)
	})

	t.Run("RegularUserForbidden", func(t *testing.T) {
		w := doJSON(savingsRouter(asUser(uuid.NewString()), m), http.MethodPost, "/api/v1/savings-plans/deductions/run", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("BadDate", func(t *testing.T) {
		w := doJSON(savingsRouter(asAdmin(), m), http.MethodPost, "/api/v1/savings-plans/deductions/run?as_of=2024-13-45", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSavingsHandler_Notifications(t *testing.T) {
	owner := uuid.NewString()
	notificationID := uuid.NewString()
	var gotList dtos.ListNotificationsQuery
	m := newSavingsMocks("", owner)
	m.notifs.ExecuteFn = func(ctx context.Context, query dtos.ListNotificationsQuery) (*dtos.NotificationListDTO, error) {
		gotList = query
		return &dtos.NotificationListDTO{Notifications: []dtos.NotificationDTO{{ID: notificationID, Kind: "deduction_failed"}}}, nil
	}
	m.markRead.ExecuteFn = func(ctx context.Context, cmd dtos.MarkNotificationReadCommand) (*dtos.NotificationDTO, error) {
		if cmd.NotificationID != notificationID {
			return nil, domainerrors.ErrNotificationNotFound
		}
		return &dtos.NotificationDTO{ID: cmd.NotificationID, UserID: cmd.UserID, Read: true}, nil
	}
	router := savingsRouter(asUser(owner), m)

	w := doJSON(router, http.MethodGet, "/api/v1/users/"+owner+"/notifications?unread_only=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotList.UnreadOnly)

	w = doJSON(router, http.MethodPost, "/api/v1/users/"+owner+"/notifications/"+notificationID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var n dtos.NotificationDTO
	decodeData(t, w, &n)
	assert.True(t, n.Read)

	w = doJSON(router, http.MethodPost, "/api/v1/users/"+owner+"/notifications/"+uuid.NewString()+"/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
