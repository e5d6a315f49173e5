package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartTimerRequest arranque de cronómetro.
type StartTimerRequest struct {
	ClientID    *string          `json:"client_id" validate:"omitempty,uuid"`
	TaskID      *string          `json:"task_id" validate:"omitempty,uuid"`
	Description string           `json:"description" validate:"max=500"`
	Billable    bool             `json:"billable"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// TimeEntryRequest alta/edición manual de registro de tiempo.
type TimeEntryRequest struct {
	ClientID    *string          `json:"client_id" validate:"omitempty,uuid"`
	TaskID      *string          `json:"task_id" validate:"omitempty,uuid"`
	Description string           `json:"description" validate:"max=500"`
	StartedAt   time.Time        `json:"started_at" validate:"required"`
	EndedAt     time.Time        `json:"ended_at" validate:"required"`
	Billable    bool             `json:"billable"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// TimeEntryResponse salida de registro de tiempo.
type TimeEntryResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ClientID        *string          `json:"client_id,omitempty"`
	TaskID          *string          `json:"task_id,omitempty"`
	Description     string           `json:"description"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
	DurationMinutes int              `json:"duration_minutes"`
	Running         bool             `json:"running"`
	Billable        bool             `json:"billable"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
}

// TimeSummaryRow totales agregados por cliente o por usuario.
type TimeSummaryRow struct {
	Key             string          `json:"key"` // client_id / user_id; "" = sin cliente
	Minutes         int             `json:"minutes"`
	BillableMinutes int             `json:"billable_minutes"`
	Amount          decimal.Decimal `json:"amount"`
}

// TimeSummaryResponse resumen de un rango de fechas.
type TimeSummaryResponse struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Total    TimeSummaryRow   `json:"total"`
	ByClient []TimeSummaryRow `json:"by_client"`
	ByUser   []TimeSummaryRow `json:"by_user"`
}
