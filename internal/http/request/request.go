// Package request разбирает тело, параметры пути и строки запроса HTTP-обработчиков.
package request

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/lib/month"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

var validate = newValidator()

// newValidator регистрирует тег isodate: дата в формате YYYY-MM-DD.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := month.Parse(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Decode читает JSON-тело в dst и проверяет теги validate.
// Ошибки возвращаются категорией models.ErrValidation.
func Decode(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return models.Errorf(models.ErrValidation, "failed to decode request")
	}
	return Validate(dst)
}

// Validate проверяет теги validate у структуры v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return models.Errorf(models.ErrValidation, "%s", response.ValidationError(verrs).Error)
		}
		return models.Errorf(models.ErrValidation, "invalid request")
	}
	return nil
}

// ID числовой параметр пути name.
func ID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Errorf(models.ErrValidation, "invalid %s", name)
	}
	return id, nil
}

// Int необязательный целый параметр строки запроса; пустое значение даёт def.
func Int(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, models.Errorf(models.ErrValidation, "invalid %s", name)
	}
	return v, nil
}

// Bool необязательный логический параметр строки запроса.
func Bool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, models.Errorf(models.ErrValidation, "invalid %s", name)
	}
	return v, nil
}

// Date необязательная дата YYYY-MM-DD из строки запроса.
func Date(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	d, err := month.Parse(s)
	if err != nil {
		return nil, models.Errorf(models.ErrValidation, "%s must be a date in format YYYY-MM-DD", name)
	}
	return &d, nil
}
