package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/membership-manager/internal/migrations"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(ctx, connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateUser создает тестового сотрудника
func (f *TestDataFactory) CreateUser(t *testing.T, email, role string) string {
	t.Helper()
	uid, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        email,
		Name:         "Test " + role,
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)
	return uid
}

// CreatePlan создает тестовый план
func (f *TestDataFactory) CreatePlan(t *testing.T, name string, days int, price float64) *models.Plan {
	t.Helper()
	p, err := f.storage.CreatePlan(context.Background(), models.CreatePlanRequest{
		Name:         name,
		DurationDays: days,
		Price:        price,
	})
	require.NoError(t, err)
	return p
}

// CreateClient создает клиента с окном абонемента [start, end]
func (f *TestDataFactory) CreateClient(t *testing.T, document, status string, planID *int64, start, end *time.Time) *models.Client {
	t.Helper()
	email := document + "@example.com"
	c, err := f.storage.CreateClient(context.Background(), models.Client{
		Document:     document,
		DocumentType: "CC",
		FirstName:    "Name" + document,
		LastName:     "Last",
		Email:        &email,
		PlanID:       planID,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
	})
	require.NoError(t, err)
	return c
}

// CreatePayment создает платёж клиента
func (f *TestDataFactory) CreatePayment(t *testing.T, document string, amount float64, method, status string, paidAt time.Time) *models.Payment {
	t.Helper()
	p, err := f.storage.CreatePayment(context.Background(), models.Payment{
		ClientDocument: document,
		Concept:        "test",
		Purpose:        models.PurposeMembership,
		Amount:         amount,
		Method:         method,
		Status:         status,
		PaidAt:         paidAt,
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T {
	return &v
}
