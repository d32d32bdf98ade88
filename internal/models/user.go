// Package models содержит доменные структуры бэк-офиса спортзала: клиентов,
// планы абонементов, платежи, бонусы, посещения и сотрудников.
package models

import "time"

// Роли сотрудников.
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// User представляет сотрудника, работающего с системой.
type User struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest данные для создания сотрудника.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=employee admin"`
}

// UserUpdate перечисляет изменяемые поля сотрудника. nil означает "не менять".
type UserUpdate struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Role     *string `json:"role" validate:"omitempty,oneof=employee admin"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=6"`

	PasswordHash *string `json:"-"`
}

// LoginRequest учётные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse выданный токен и данные сотрудника.
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}
