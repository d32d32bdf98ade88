package models

import "time"

// Attendance отметка посещения. Дата и время фиксируются при создании.
type Attendance struct {
	ID             int64     `json:"id"`
	ClientDocument string    `json:"client_document"`
	ClientName     string    `json:"client_name,omitempty"`
	Date           time.Time `json:"date"`
	CheckedAt      time.Time `json:"checked_at"`
	RecordedBy     *string   `json:"recorded_by,omitempty"`
}

// CheckInRequest данные для отметки посещения.
type CheckInRequest struct {
	Document string `json:"document" validate:"required"`
}

// AttendanceMonth посещения за месяц.
type AttendanceMonth struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	Total         int           `json:"total"`
	UniqueClients int           `json:"unique_clients"`
	Attendances   []*Attendance `json:"attendances"`
}
