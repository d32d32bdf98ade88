package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"email":"a@b.co","password":"x"}`},
		{name: "broken json", body: `{"email":`, wantErr: "failed to decode request"},
		{name: "invalid email", body: `{"email":"nope","password":"x"}`, wantErr: "field Email must be a valid email"},
		{name: "missing password", body: `{"email":"a@b.co"}`, wantErr: "field Password is a required field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			var dst models.LoginRequest
			err := Decode(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@b.co", dst.Email)
				return
			}
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/payments/12?limit=5&all=true&from=2024-02-30&to=2024-03-01", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "12")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	id, err := ID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	limit, err := Int(req, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	offset, err := Int(req, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, offset)

	all, err := Bool(req, "all")
	require.NoError(t, err)
	assert.True(t, all)

	_, err = Date(req, "from")
	assert.ErrorIs(t, err, models.ErrValidation)

	to, err := Date(req, "to")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", to.Format("2006-01-02"))

	missing, err := Date(req, "since")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestValidate_BirthDate(t *testing.T) {
	good := "2001-05-17"
	bad := "17/05/2001"

	tests := []struct {
		name    string
		value   any
		wantErr string
	}{
		{
			name:  "регистрация без даты рождения",
			value: &models.RegisterClientRequest{Document: "1", FirstName: "Ana", LastName: "R", PlanID: 1},
		},
		{
			name:  "регистрация с датой рождения",
			value: &models.RegisterClientRequest{Document: "1", FirstName: "Ana", LastName: "R", PlanID: 1, BirthDate: good},
		},
		{
			name:    "неверный формат даты",
			value:   &models.RegisterClientRequest{Document: "1", FirstName: "Ana", LastName: "R", PlanID: 1, BirthDate: bad},
			wantErr: "field BirthDate must be a date in format YYYY-MM-DD",
		},
		{
			name:  "обновление без даты",
			value: &models.ClientUpdate{},
		},
		{
			name:  "обновление с датой",
			value: &models.ClientUpdate{BirthDate: &good},
		},
		{
			name:    "обновление с неверной датой",
			value:   &models.ClientUpdate{BirthDate: &bad},
			wantErr: "field BirthDate must be a date in format YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = Validate(tt.value) })
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
