package services

import (
	"context"
	"testing"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakPolicyService(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewSettingRepository(db)
	svc := NewBreakPolicyService(repo, db, DefaultBreakPolicy)
	ctx := context.Background()

	t.Run("defaults when nothing stored", func(t *testing.T) {
		p, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultBreakPolicy, p)
	})

	t.Run("update round trip", func(t *testing.T) {
		want := models.BreakPolicySetting{
			Enabled: true,
			Tier1:   models.BreakTier{ThresholdMinutes: 300, BreakMinutes: 20},
			Tier2:   models.BreakTier{ThresholdMinutes: 600, BreakMinutes: 40},
		}
		_, err := svc.Update(ctx, want)
		require.NoError(t, err)

		got, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("invalid update is rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, models.BreakPolicySetting{
			Enabled: true,
			Tier1:   models.BreakTier{ThresholdMinutes: 540, BreakMinutes: 30},
			Tier2:   models.BreakTier{ThresholdMinutes: 360, BreakMinutes: 45},
		})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Update(ctx, models.BreakPolicySetting{Tier1: models.BreakTier{BreakMinutes: -1}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("garbage stored value degrades", func(t *testing.T) {
		bad := "sometimes"
		_, err := repo.UpsertSetting(ctx, nil, &models.ApplicationSetting{
			SettingKey:   models.SettingAutoBreakEnabled,
			SettingValue: &bad,
		})
		require.NoError(t, err)

		_, err = svc.Current(ctx)
		assert.ErrorIs(t, err, ErrDependencyDegraded)

		calc := NewWorkingTimeCalculator(svc, 0)
		policy, degraded := calc.Policy(ctx)
		assert.True(t, degraded)
		assert.False(t, policy.Enabled)
	})
}

func TestValidateBreakPolicy(t *testing.T) {
	assert.NoError(t, ValidateBreakPolicy(DefaultBreakPolicy))
	assert.NoError(t, ValidateBreakPolicy(models.BreakPolicySetting{}))
	assert.ErrorIs(t, ValidateBreakPolicy(models.BreakPolicySetting{
		Tier1: models.BreakTier{ThresholdMinutes: 360, BreakMinutes: 45},
		Tier2: models.BreakTier{ThresholdMinutes: 540, BreakMinutes: 30},
	}), ErrValidation)
}
