package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

func TestStatusAndMessageFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", fmt.Errorf("storage.GetClient: %w", models.Errorf(models.ErrNotFound, "client 1 not found")), http.StatusNotFound, "client 1 not found"},
		{"already processed", models.Errorf(models.ErrAlreadyProcessed, "payment already processed"), http.StatusConflict, "payment already processed"},
		{"invalid state", models.Errorf(models.ErrInvalidState, "membership expired"), http.StatusConflict, "membership expired"},
		{"validation", models.Errorf(models.ErrValidation, "plan is retired"), http.StatusUnprocessableEntity, "plan is retired"},
		{"already exists", models.ErrAlreadyExists, http.StatusConflict, "already exists"},
		{"unauthorized", models.Errorf(models.ErrUnauthorized, "invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, StatusFor(tt.err))
			assert.Equal(t, tt.wantMsg, MessageFor(tt.err))
		})
	}
}

func TestFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	Fail(rec, req, models.Errorf(models.ErrNotFound, "plan 7 not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"Error","error":"plan 7 not found"}`, rec.Body.String())
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Email  string `validate:"required,email"`
		Method string `validate:"oneof=cash card"`
		Days   int    `validate:"min=1,max=3"`
	}
	err := validator.New().Struct(payload{Email: "nope", Method: "gold", Days: 5})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	resp := ValidationError(verrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Method must be one of: cash card")
	assert.Contains(t, resp.Error, "field Days must be at most 3")
}
