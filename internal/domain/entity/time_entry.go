package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry es un registro de tiempo de un usuario. EndedAt nil = cronómetro en marcha.
type TimeEntry struct {
	ID              string
	CompanyID       string
	UserID          string
	ClientID        *string
	TaskID          *string
	Description     string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes int
	Billable        bool
	HourlyRate      *decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Running indica si el cronómetro sigue en marcha.
func (t *TimeEntry) Running() bool { return t.EndedAt == nil }

// Stop cierra la entrada en end y calcula la duración en minutos completos.
func (t *TimeEntry) Stop(end time.Time) {
	t.EndedAt = &end
	t.DurationMinutes = MinutesBetween(t.StartedAt, end)
}

// MinutesBetween devuelve los minutos completos entre start y end (0 si end <= start).
func MinutesBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Amount devuelve el importe facturable de la entrada (cero si no es facturable o no tiene tarifa).
func (t *TimeEntry) Amount() decimal.Decimal {
	if !t.Billable || t.HourlyRate == nil {
		return decimal.Zero
	}
	return t.HourlyRate.Mul(decimal.NewFromInt(int64(t.DurationMinutes))).Div(decimal.NewFromInt(60)).Round(2)
}
