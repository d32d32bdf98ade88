package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

// RunInTx выполняет fn сразу; откат проверяется интеграционными тестами хранилища.
func (m *RepoMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *RepoMock) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) CreateClient(ctx context.Context, c models.Client) (*models.Client, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, models.Client) *models.Client); ok {
		return fn(ctx, c), args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) GetClient(ctx context.Context, document string) (*models.Client, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) GetClientForUpdate(ctx context.Context, document string) (*models.Client, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) SetMembershipWindow(ctx context.Context, document string, w models.MembershipWindow) (*models.Client, error) {
	args := m.Called(ctx, document, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) UpdateClient(ctx context.Context, document string, upd models.ClientUpdate) (*models.Client, error) {
	args := m.Called(ctx, document, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *RepoMock) DeleteClient(ctx context.Context, document string) error {
	return m.Called(ctx, document).Error(0)
}

func (m *RepoMock) ListClients(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *RepoMock) RefreshStatuses(ctx context.Context, today time.Time) (models.SweepResult, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(models.SweepResult), args.Error(1)
}

func (m *RepoMock) CreateBonus(ctx context.Context, b models.Bonus) (*models.Bonus, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bonus), args.Error(1)
}

func (m *RepoMock) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *RepoMock) AddHistory(ctx context.Context, h models.HistoryEntry) error {
	return m.Called(ctx, h).Error(0)
}

func (m *RepoMock) ListHistory(ctx context.Context, document string) ([]*models.HistoryEntry, error) {
	args := m.Called(ctx, document)
	return args.Get(0).([]*models.HistoryEntry), args.Error(1)
}

func (m *RepoMock) ListPaymentsByClient(ctx context.Context, document string) ([]*models.Payment, error) {
	args := m.Called(ctx, document)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *RepoMock) ListBonusesByClient(ctx context.Context, document string) ([]*models.Bonus, error) {
	args := m.Called(ctx, document)
	return args.Get(0).([]*models.Bonus), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Welcome(ctx context.Context, c *models.Client, plan *models.Plan) error {
	return m.Called(ctx, c, plan).Error(0)
}

func (m *NotifierMock) Renewal(ctx context.Context, c *models.Client, plan *models.Plan) error {
	return m.Called(ctx, c, plan).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) InvalidatePrefix(prefix string) error {
	return m.Called(prefix).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	today   = date(2024, 1, 1)
	monthly = &models.Plan{ID: 1, Name: "Monthly", DurationDays: 30, Price: 80000, Active: true}
	retired = &models.Plan{ID: 2, Name: "Old", DurationDays: 15, Price: 1000, Active: false}
)

func newService(r *RepoMock, n *NotifierMock, c *CacheMock) *ClientService {
	s := NewClientService(r, n, c, newNoopLogger(), Options{MinClientAge: 14, MaxBonusDays: 3})
	s.today = func() time.Time { return today }
	return s
}

func TestClientService_Register(t *testing.T) {
	email := "ana@example.com"

	tests := []struct {
		name       string
		req        models.RegisterClientRequest
		setupMocks func(r *RepoMock, n *NotifierMock, c *CacheMock)
		wantEnd    time.Time
		wantBonus  int
		wantWarn   bool
		wantErr    error
	}{
		{
			name: "plan with two bonus days",
			req:  models.RegisterClientRequest{Document: "1", FirstName: "Ana", LastName: "Ruiz", PlanID: 1, BonusDays: 2},
			setupMocks: func(r *RepoMock, _ *NotifierMock, c *CacheMock) {
				r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
				r.On("CreateBonus", mock.Anything, mock.MatchedBy(func(b models.Bonus) bool {
					return b.DaysGift == 2 && b.Applied && b.Kind == "2_days" && b.AppliedAt != nil
				})).Return(&models.Bonus{ID: 7, DaysGift: 2, Applied: true}, nil).Once()
				r.On("AddHistory", mock.Anything, models.HistoryEntry{
					ClientDocument: "1", PlanID: &monthly.ID,
					StartDate: today, EndDate: date(2024, 2, 2), PricePaid: 80000,
				}).Return(nil).Once()
				c.On("InvalidatePrefix", "report:").Return(nil).Once()
			},
			wantEnd:   date(2024, 2, 2),
			wantBonus: 2,
		},
		{
			name: "bonus clamped to three days",
			req:  models.RegisterClientRequest{Document: "1", FirstName: "Ana", LastName: "Ruiz", PlanID: 1, BonusDays: 5},
			setupMocks: func(r *RepoMock, _ *NotifierMock, c *CacheMock) {
				r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
				r.On("CreateBonus", mock.Anything, mock.MatchedBy(func(b models.Bonus) bool {
					return b.DaysGift == 3
				})).Return(&models.Bonus{ID: 7, DaysGift: 3, Applied: true}, nil).Once()
				r.On("AddHistory", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("InvalidatePrefix", "report:").Return(nil).Once()
			},
			wantEnd:   date(2024, 2, 3),
			wantBonus: 3,
		},
		{
			name: "welcome failure is a warning",
			req: models.RegisterClientRequest{
				Document: "1", FirstName: "Ana", LastName: "Ruiz", PlanID: 1, Email: email,
				Payment: &models.PaymentInput{Method: models.MethodCash, Amount: 80000},
			},
			setupMocks: func(r *RepoMock, n *NotifierMock, c *CacheMock) {
				r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
					return p.Status == models.PaymentPending && p.Purpose == models.PurposeMembership &&
						p.Concept == "Initial payment - plan Monthly" && p.Amount == 80000
				})).Return(&models.Payment{ID: 3, Status: models.PaymentPending}, nil).Once()
				r.On("AddHistory", mock.Anything, mock.Anything).Return(nil).Once()
				c.On("InvalidatePrefix", "report:").Return(errors.New("redis down")).Once()
				n.On("Welcome", mock.Anything, mock.Anything, monthly).Return(errors.New("broker down")).Once()
			},
			wantEnd:  date(2024, 1, 31),
			wantWarn: true,
		},
		{
			name:    "too young",
			req:     models.RegisterClientRequest{Document: "1", FirstName: "A", LastName: "B", PlanID: 1, BirthDate: "2015-05-05"},
			wantErr: models.ErrValidation,
		},
		{
			name:    "invalid birth date",
			req:     models.RegisterClientRequest{Document: "1", FirstName: "A", LastName: "B", PlanID: 1, BirthDate: "05-05-2000"},
			wantErr: models.ErrValidation,
		},
		{
			name:    "blank document",
			req:     models.RegisterClientRequest{Document: "   ", FirstName: "A", LastName: "B", PlanID: 1},
			wantErr: models.ErrValidation,
		},
		{
			name:    "markup-only first name",
			req:     models.RegisterClientRequest{Document: "1", FirstName: "<b></b>", LastName: "B", PlanID: 1},
			wantErr: models.ErrValidation,
		},
		{
			name:    "encoded markup last name",
			req:     models.RegisterClientRequest{Document: "1", FirstName: "A", LastName: "&lt;script&gt;x&lt;/script&gt;", PlanID: 1},
			wantErr: models.ErrValidation,
		},
		{
			name: "retired plan",
			req:  models.RegisterClientRequest{Document: "1", FirstName: "A", LastName: "B", PlanID: 2},
			setupMocks: func(r *RepoMock, _ *NotifierMock, _ *CacheMock) {
				r.On("GetPlan", mock.Anything, int64(2)).Return(retired, nil).Once()
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "duplicate document",
			req:  models.RegisterClientRequest{Document: "1", FirstName: "A", LastName: "B", PlanID: 1},
			setupMocks: func(r *RepoMock, _ *NotifierMock, _ *CacheMock) {
				r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
			},
			wantErr: models.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, n, c := &RepoMock{}, &NotifierMock{}, &CacheMock{}
			if tt.setupMocks != nil {
				tt.setupMocks(r, n, c)
			}
			if tt.wantErr == models.ErrAlreadyExists {
				r.On("CreateClient", mock.Anything, mock.Anything).
					Return(nil, models.Errorf(models.ErrAlreadyExists, "duplicate")).Once()
			} else {
				r.On("CreateClient", mock.Anything, mock.Anything).Return(func(_ context.Context, cl models.Client) *models.Client {
					return &cl
				}, nil).Maybe()
			}

			res, err := newService(r, n, c).Register(context.Background(), tt.req, "admin-uid")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ClientPending, res.Client.Status)
			assert.Equal(t, today, *res.Client.StartDate)
			assert.Equal(t, tt.wantEnd, *res.Client.EndDate)
			if tt.wantBonus > 0 {
				require.NotNil(t, res.Bonus)
				assert.Equal(t, tt.wantBonus, res.Bonus.DaysGift)
			} else {
				assert.Nil(t, res.Bonus)
			}
			assert.Equal(t, tt.wantWarn, len(res.Warnings) > 0)
			r.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestClientService_Renew(t *testing.T) {
	r, n, c := &RepoMock{}, &NotifierMock{}, &CacheMock{}
	oldEnd := date(2023, 12, 1)
	r.On("GetClientForUpdate", mock.Anything, "1").
		Return(&models.Client{Document: "1", Status: models.ClientInactive, EndDate: &oldEnd}, nil).Once()
	r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
	r.On("CreateBonus", mock.Anything, mock.MatchedBy(func(b models.Bonus) bool {
		return b.Reason == "renewal gift" && b.DaysGift == 1 && b.Kind == "1_day"
	})).Return(&models.Bonus{ID: 1, DaysGift: 1, Applied: true}, nil).Once()
	window := models.MembershipWindow{PlanID: &monthly.ID, StartDate: today, EndDate: date(2024, 2, 1), Status: models.ClientActive}
	e := "x@example.com"
	renewed := &models.Client{Document: "1", Status: models.ClientActive, Email: &e, StartDate: &window.StartDate, EndDate: &window.EndDate}
	r.On("SetMembershipWindow", mock.Anything, "1", window).Return(renewed, nil).Once()
	r.On("AddHistory", mock.Anything, models.HistoryEntry{
		ClientDocument: "1", PlanID: &monthly.ID, StartDate: today, EndDate: date(2024, 2, 1), PricePaid: 80000,
	}).Return(nil).Once()
	c.On("InvalidatePrefix", "report:").Return(nil).Once()
	n.On("Renewal", mock.Anything, renewed, monthly).Return(nil).Once()

	res, err := newService(r, n, c).Renew(context.Background(), "1", models.RenewRequest{PlanID: 1, BonusDays: 1}, "uid")
	require.NoError(t, err)
	assert.Equal(t, models.ClientActive, res.Client.Status)
	assert.Empty(t, res.Warnings)
	r.AssertExpectations(t)
	n.AssertExpectations(t)

	t.Run("client not found", func(t *testing.T) {
		r := &RepoMock{}
		r.On("GetClientForUpdate", mock.Anything, "404").Return(nil, models.Errorf(models.ErrNotFound, "client 404 not found")).Once()
		_, err := newService(r, &NotifierMock{}, &CacheMock{}).Renew(context.Background(), "404", models.RenewRequest{PlanID: 1}, "")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestClientService_RecordPayment(t *testing.T) {
	future := date(2024, 1, 20)
	past := date(2023, 12, 20)
	start := date(2023, 12, 21)
	amount := 50000.0

	tests := []struct {
		name       string
		client     *models.Client
		req        models.RecordPaymentRequest
		wantWindow models.MembershipWindow
		wantAmount float64
		wantErr    error
	}{
		{
			name:       "active window is extended",
			client:     &models.Client{Document: "1", PlanID: &monthly.ID, StartDate: &start, EndDate: &future, Status: models.ClientActive},
			req:        models.RecordPaymentRequest{Method: models.MethodCard},
			wantWindow: models.MembershipWindow{PlanID: &monthly.ID, StartDate: start, EndDate: date(2024, 2, 19), Status: models.ClientPending},
			wantAmount: 80000,
		},
		{
			name:       "expired window restarts today",
			client:     &models.Client{Document: "1", PlanID: &monthly.ID, EndDate: &past, Status: models.ClientInactive},
			req:        models.RecordPaymentRequest{Method: models.MethodCash, Amount: &amount},
			wantWindow: models.MembershipWindow{PlanID: &monthly.ID, StartDate: today, EndDate: date(2024, 1, 31), Status: models.ClientPending},
			wantAmount: 50000,
		},
		{
			name:    "no plan",
			client:  &models.Client{Document: "1", Status: models.ClientPending},
			req:     models.RecordPaymentRequest{Method: models.MethodCash},
			wantErr: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := &RepoMock{}, &CacheMock{}
			r.On("GetClientForUpdate", mock.Anything, "1").Return(tt.client, nil).Once()
			if tt.wantErr == nil {
				r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
					return p.Amount == tt.wantAmount && p.Status == models.PaymentPending &&
						p.Purpose == models.PurposeMembership && p.Concept == "Payment - plan Monthly"
				})).Return(&models.Payment{ID: 9, Amount: tt.wantAmount, Status: models.PaymentPending}, nil).Once()
				r.On("SetMembershipWindow", mock.Anything, "1", tt.wantWindow).
					Return(&models.Client{Document: "1", Status: models.ClientPending}, nil).Once()
				c.On("InvalidatePrefix", "report:").Return(nil).Once()
			}

			res, err := newService(r, &NotifierMock{}, c).RecordPayment(context.Background(), "1", tt.req, "uid")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ClientPending, res.Client.Status)
			assert.Equal(t, int64(9), res.Payment.ID)
			r.AssertExpectations(t)
		})
	}
}

func TestClientService_RefreshStatuses(t *testing.T) {
	r, c := &RepoMock{}, &CacheMock{}
	r.On("RefreshStatuses", mock.Anything, today).Return(models.SweepResult{Deactivated: 2}, nil).Once()
	r.On("RefreshStatuses", mock.Anything, today).Return(models.SweepResult{}, nil).Once()
	c.On("InvalidatePrefix", "report:").Return(nil).Once()

	s := newService(r, &NotifierMock{}, c)
	res, err := s.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deactivated)

	res, err = s.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SweepResult{}, res)
	c.AssertExpectations(t)
}

func TestClientService_GetAndUpdate(t *testing.T) {
	r, c := &RepoMock{}, &CacheMock{}
	end := date(2024, 1, 11)
	r.On("GetClient", mock.Anything, "1").Return(&models.Client{Document: "1", EndDate: &end}, nil).Once()
	r.On("ListHistory", mock.Anything, "1").Return([]*models.HistoryEntry{}, nil).Once()
	r.On("ListPaymentsByClient", mock.Anything, "1").Return([]*models.Payment{}, nil).Once()
	r.On("ListBonusesByClient", mock.Anything, "1").Return([]*models.Bonus{}, nil).Once()

	s := newService(r, &NotifierMock{}, c)
	details, err := s.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, details.DaysLeft)
	assert.Equal(t, 10, *details.DaysLeft)

	bad := "2020-01-01"
	_, err = s.Update(context.Background(), "1", models.ClientUpdate{BirthDate: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	name := "<b>Ana</b>"
	birth := "1990-04-02"
	r.On("UpdateClient", mock.Anything, "1", mock.MatchedBy(func(u models.ClientUpdate) bool {
		return *u.FirstName == "Ana" && u.BirthDateValue != nil && u.BirthDateValue.Equal(date(1990, 4, 2))
	})).Return(&models.Client{Document: "1", FirstName: "Ana"}, nil).Once()
	c.On("InvalidatePrefix", "report:").Return(nil).Once()
	updated, err := s.Update(context.Background(), "1", models.ClientUpdate{FirstName: &name, BirthDate: &birth})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)

	blank := "<i></i>"
	_, err = s.Update(context.Background(), "1", models.ClientUpdate{LastName: &blank})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.List(context.Background(), models.ClientFilter{Status: "frozen"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestClientService_ClampBonus(t *testing.T) {
	s := newService(&RepoMock{}, &NotifierMock{}, &CacheMock{})
	rapid.Check(t, func(t *rapid.T) {
		days := rapid.IntRange(-100, 100).Draw(t, "days")
		got := s.clampBonus(days)
		if got < 0 || got > models.MaxBonusDays {
			t.Fatalf("clampBonus(%d) = %d out of range", days, got)
		}
		if days >= 0 && days <= models.MaxBonusDays && got != days {
			t.Fatalf("clampBonus(%d) = %d, want unchanged", days, got)
		}
	})
}

func TestClientService_RegisterTrimsDocument(t *testing.T) {
	r, n, c := &RepoMock{}, &NotifierMock{}, &CacheMock{}
	r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil).Once()
	r.On("CreateClient", mock.Anything, mock.MatchedBy(func(cl models.Client) bool {
		return cl.Document == "1001"
	})).Return(func(_ context.Context, cl models.Client) *models.Client { return &cl }, nil).Once()
	r.On("AddHistory", mock.Anything, mock.MatchedBy(func(h models.HistoryEntry) bool {
		return h.ClientDocument == "1001"
	})).Return(nil).Once()
	c.On("InvalidatePrefix", "report:").Return(nil).Once()

	res, err := newService(r, n, c).Register(context.Background(),
		models.RegisterClientRequest{Document: "  1001 ", FirstName: "Ana", LastName: "Ruiz", PlanID: 1}, "")
	require.NoError(t, err)
	assert.Equal(t, "1001", res.Client.Document)
	r.AssertExpectations(t)
}

func TestClientService_Import(t *testing.T) {
	r, n, c := &RepoMock{}, &NotifierMock{}, &CacheMock{}
	r.On("GetPlan", mock.Anything, int64(1)).Return(monthly, nil)
	r.On("GetPlan", mock.Anything, int64(2)).Return(retired, nil)
	r.On("CreateClient", mock.Anything, mock.MatchedBy(func(cl models.Client) bool {
		return cl.Document == "dup"
	})).Return(nil, models.Errorf(models.ErrAlreadyExists, "client dup already exists")).Once()
	r.On("CreateClient", mock.Anything, mock.MatchedBy(func(cl models.Client) bool {
		return cl.Document == "boom"
	})).Return(nil, errors.New("connection reset")).Once()
	r.On("CreateClient", mock.Anything, mock.MatchedBy(func(cl models.Client) bool {
		return cl.Document == "1" || cl.Document == "2"
	})).Return(func(_ context.Context, cl models.Client) *models.Client { return &cl }, nil).Twice()
	r.On("AddHistory", mock.Anything, mock.MatchedBy(func(h models.HistoryEntry) bool {
		return h.StartDate.Equal(today) && h.EndDate.Equal(date(2024, 1, 31)) && h.PricePaid == 80000
	})).Return(nil).Twice()
	c.On("InvalidatePrefix", "report:").Return(nil).Once()

	rows := []models.ImportClientRow{
		{Document: "1", FirstName: "Ana", LastName: "Ruiz", PlanID: 1},
		{Document: "dup", FirstName: "Luis", LastName: "Pérez", PlanID: 1},
		{Document: "3", FirstName: "Eva", LastName: "Díaz", PlanID: 2},
		{Document: "4", FirstName: "<b></b>", LastName: "Díaz", PlanID: 1},
		{Document: "boom", FirstName: "Max", LastName: "Gil", PlanID: 1},
		{Document: "2", FirstName: "Sol", LastName: "Mar", PlanID: 1, BirthDate: "1990-01-01"},
	}

	res, err := newService(r, n, c).Import(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 4, res.Failed)
	require.Len(t, res.Errors, 4)
	assert.Equal(t, models.ImportError{Row: 2, Document: "dup", Error: "client dup already exists"}, res.Errors[0])
	assert.Equal(t, 3, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Error, "retired")
	assert.Equal(t, 4, res.Errors[2].Row)
	assert.Equal(t, models.ImportError{Row: 5, Document: "boom", Error: "internal error"}, res.Errors[3])

	for _, call := range r.Calls {
		if call.Method == "CreateClient" {
			cl := call.Arguments.Get(1).(models.Client)
			assert.Equal(t, models.ClientActive, cl.Status)
		}
	}
	r.AssertExpectations(t)
	n.AssertNotCalled(t, "Welcome", mock.Anything, mock.Anything, mock.Anything)
	c.AssertExpectations(t)
}

func TestClientService_ImportNothingImported(t *testing.T) {
	r, c := &RepoMock{}, &CacheMock{}
	r.On("GetPlan", mock.Anything, int64(2)).Return(retired, nil)

	res, err := newService(r, &NotifierMock{}, c).Import(context.Background(),
		[]models.ImportClientRow{{Document: "1", FirstName: "A", LastName: "B", PlanID: 2}})
	require.NoError(t, err)
	assert.Equal(t, models.ImportResult{Failed: 1, Total: 1, Errors: []models.ImportError{
		{Row: 1, Document: "1", Error: `plan "Old" is retired`},
	}}, *res)
	c.AssertNotCalled(t, "InvalidatePrefix", mock.Anything)
}
