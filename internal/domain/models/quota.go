package models

import (
	"time"
)

// QuotaState is the per-owner generation allowance. Remaining is
// decremented exactly once per new session, never per attempt.
type QuotaState struct {
	OwnerID      string         `json:"owner_id" db:"owner_id"`
	Tier         Tier           `json:"tier" db:"tier"`
	Remaining    int            `json:"generations_remaining" db:"generations_remaining"`
	MonthlyUsage map[string]int `json:"monthly_usage" db:"monthly_usage"`
	DailyUsage   map[string]int `json:"daily_usage" db:"daily_usage"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// MonthKey returns the monthly usage bucket for t (e.g. "2026-08").
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey returns the daily usage bucket for t (e.g. "2026-08-30").
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
