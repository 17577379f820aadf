package models

import "time"

// ApplicationSetting represents a key-value pair for application configuration
type ApplicationSetting struct {
	ID           int64     `json:"id" db:"id"`
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Setting keys backing the break policy.
const (
	SettingAutoBreakEnabled        = "auto_break_enabled"
	SettingAutoBreakTier1Threshold = "auto_break_tier1_threshold_minutes"
	SettingAutoBreakTier1Minutes   = "auto_break_tier1_minutes"
	SettingAutoBreakTier2Threshold = "auto_break_tier2_threshold_minutes"
	SettingAutoBreakTier2Minutes   = "auto_break_tier2_minutes"
)

// BreakTier deducts BreakMinutes once worked time exceeds ThresholdMinutes.
type BreakTier struct {
	ThresholdMinutes int `json:"threshold_minutes"`
	BreakMinutes     int `json:"break_minutes"`
}

// BreakPolicySetting is the tiered auto-break configuration.
type BreakPolicySetting struct {
	Enabled bool      `json:"enabled"`
	Tier1   BreakTier `json:"tier1"`
	Tier2   BreakTier `json:"tier2"`
}
