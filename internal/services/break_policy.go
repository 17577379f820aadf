package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
)

// DefaultBreakPolicy applies when no setting has been stored.
var DefaultBreakPolicy = models.BreakPolicySetting{
	Enabled: true,
	Tier1:   models.BreakTier{ThresholdMinutes: 360, BreakMinutes: 30},
	Tier2:   models.BreakTier{ThresholdMinutes: 540, BreakMinutes: 45},
}

// BreakPolicyProvider supplies the current auto-break configuration.
type BreakPolicyProvider interface {
	Current(ctx context.Context) (models.BreakPolicySetting, error)
}

// StaticBreakPolicy is a fixed policy.
type StaticBreakPolicy models.BreakPolicySetting

func (p StaticBreakPolicy) Current(context.Context) (models.BreakPolicySetting, error) {
	return models.BreakPolicySetting(p), nil
}

// BreakPolicyService reads and maintains the policy stored in application settings.
type BreakPolicyService interface {
	BreakPolicyProvider
	Update(ctx context.Context, policy models.BreakPolicySetting) (models.BreakPolicySetting, error)
}

type breakPolicyService struct {
	settingRepo repositories.SettingRepository
	db          *sql.DB
	defaults    models.BreakPolicySetting
}

// NewBreakPolicyService creates a settings-backed BreakPolicyService. Keys
// that are not stored fall back to defaults.
func NewBreakPolicyService(settingRepo repositories.SettingRepository, db *sql.DB, defaults models.BreakPolicySetting) BreakPolicyService {
	return &breakPolicyService{settingRepo: settingRepo, db: db, defaults: defaults}
}

var breakPolicyKeys = []string{
	models.SettingAutoBreakEnabled,
	models.SettingAutoBreakTier1Threshold,
	models.SettingAutoBreakTier1Minutes,
	models.SettingAutoBreakTier2Threshold,
	models.SettingAutoBreakTier2Minutes,
}

func (s *breakPolicyService) Current(ctx context.Context) (models.BreakPolicySetting, error) {
	settings, err := s.settingRepo.GetSettings(ctx, s.db, breakPolicyKeys...)
	if err != nil {
		return models.BreakPolicySetting{}, fmt.Errorf("%w: reading break policy: %v", ErrDependencyDegraded, err)
	}

	policy := s.defaults
	value := func(key string) (string, bool) {
		st, ok := settings[key]
		if !ok || st.SettingValue == nil {
			return "", false
		}
		return *st.SettingValue, true
	}

	if v, ok := value(models.SettingAutoBreakEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return models.BreakPolicySetting{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrDependencyDegraded, models.SettingAutoBreakEnabled, v)
		}
		policy.Enabled = b
	}
	ints := []struct {
		key string
		dst *int
	}{
		{models.SettingAutoBreakTier1Threshold, &policy.Tier1.ThresholdMinutes},
		{models.SettingAutoBreakTier1Minutes, &policy.Tier1.BreakMinutes},
		{models.SettingAutoBreakTier2Threshold, &policy.Tier2.ThresholdMinutes},
		{models.SettingAutoBreakTier2Minutes, &policy.Tier2.BreakMinutes},
	}
	for _, f := range ints {
		v, ok := value(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return models.BreakPolicySetting{}, fmt.Errorf("%w: %s=%q is not an integer", ErrDependencyDegraded, f.key, v)
		}
		*f.dst = n
	}

	if err := ValidateBreakPolicy(policy); err != nil {
		return models.BreakPolicySetting{}, fmt.Errorf("%w: stored break policy is inconsistent: %v", ErrDependencyDegraded, err)
	}
	return policy, nil
}

// Update stores all five policy keys in one transaction.
func (s *breakPolicyService) Update(ctx context.Context, policy models.BreakPolicySetting) (models.BreakPolicySetting, error) {
	if err := ValidateBreakPolicy(policy); err != nil {
		return models.BreakPolicySetting{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.BreakPolicySetting{}, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	values := map[string]string{
		models.SettingAutoBreakEnabled:        strconv.FormatBool(policy.Enabled),
		models.SettingAutoBreakTier1Threshold: strconv.Itoa(policy.Tier1.ThresholdMinutes),
		models.SettingAutoBreakTier1Minutes:   strconv.Itoa(policy.Tier1.BreakMinutes),
		models.SettingAutoBreakTier2Threshold: strconv.Itoa(policy.Tier2.ThresholdMinutes),
		models.SettingAutoBreakTier2Minutes:   strconv.Itoa(policy.Tier2.BreakMinutes),
	}
	for _, key := range breakPolicyKeys {
		v := values[key]
		if _, err := s.settingRepo.UpsertSetting(ctx, tx, &models.ApplicationSetting{SettingKey: key, SettingValue: &v}); err != nil {
			return models.BreakPolicySetting{}, fmt.Errorf("failed to store break policy: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.BreakPolicySetting{}, fmt.Errorf("failed to commit break policy: %w", err)
	}
	return policy, nil
}

// ValidateBreakPolicy checks that values are non-negative and tier2 is at
// least tier1 in both threshold and duration.
func ValidateBreakPolicy(p models.BreakPolicySetting) error {
	if p.Tier1.ThresholdMinutes < 0 || p.Tier1.BreakMinutes < 0 || p.Tier2.ThresholdMinutes < 0 || p.Tier2.BreakMinutes < 0 {
		return validationError("break policy values must not be negative")
	}
	if p.Tier2.ThresholdMinutes < p.Tier1.ThresholdMinutes {
		return validationError("tier2 threshold %d is below tier1 threshold %d", p.Tier2.ThresholdMinutes, p.Tier1.ThresholdMinutes)
	}
	if p.Tier2.BreakMinutes < p.Tier1.BreakMinutes {
		return validationError("tier2 break %d is below tier1 break %d", p.Tier2.BreakMinutes, p.Tier1.BreakMinutes)
	}
	return nil
}
