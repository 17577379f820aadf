package services

import (
	"context"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/pkg/utils"
)

// CalculateWorkingTime derives gross, break and net minutes for one entry.
//
// A nil clockOut yields all zeros. A completed entry shorter than one whole
// minute is invalid. A non-nil manualBreak (including 0) is
// used verbatim; otherwise the policy tiers apply to the gross minutes.
func CalculateWorkingTime(clockIn time.Time, clockOut *time.Time, manualBreak *int, policy models.BreakPolicySetting) (models.WorkingTime, error) {
	if clockOut == nil {
		return models.WorkingTime{}, nil
	}
	gross := int(clockOut.Sub(clockIn) / time.Minute)
	if gross <= 0 {
		return models.WorkingTime{}, validationError("clock-out %s must be at least one minute after clock-in %s",
			clockOut.UTC().Format(time.RFC3339), clockIn.UTC().Format(time.RFC3339))
	}

	var breakMinutes int
	switch {
	case manualBreak != nil:
		if *manualBreak < 0 {
			return models.WorkingTime{}, validationError("break minutes must not be negative")
		}
		breakMinutes = *manualBreak
	case policy.Enabled:
		breakMinutes = autoBreak(gross, policy)
	}

	net := gross - breakMinutes
	if net < 0 {
		net = 0
	}
	return models.WorkingTime{
		GrossMinutes: gross,
		BreakMinutes: breakMinutes,
		NetMinutes:   net,
		GrossHours:   utils.RoundHours(gross),
		NetHours:     utils.RoundHours(net),
	}, nil
}

func autoBreak(gross int, policy models.BreakPolicySetting) int {
	switch {
	case gross > policy.Tier2.ThresholdMinutes:
		return policy.Tier2.BreakMinutes
	case gross > policy.Tier1.ThresholdMinutes:
		return policy.Tier1.BreakMinutes
	}
	return 0
}

// WorkingTimeCalculator resolves the break policy before calculating. A
// failed or slow policy lookup degrades to no automatic break.
type WorkingTimeCalculator struct {
	provider BreakPolicyProvider
	timeout  time.Duration
}

// NewWorkingTimeCalculator returns a calculator bounded by timeout per lookup.
func NewWorkingTimeCalculator(provider BreakPolicyProvider, timeout time.Duration) *WorkingTimeCalculator {
	return &WorkingTimeCalculator{provider: provider, timeout: timeout}
}

// Policy returns the current policy. On failure it logs a warning and returns
// a disabled policy with degraded set.
func (c *WorkingTimeCalculator) Policy(ctx context.Context) (policy models.BreakPolicySetting, degraded bool) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	policy, err := c.provider.Current(ctx)
	if err != nil {
		utils.LogWarn(err, "Break policy unavailable, calculating without automatic break")
		return models.BreakPolicySetting{}, true
	}
	return policy, false
}

// Calculate looks up the policy only when no manual break is given.
func (c *WorkingTimeCalculator) Calculate(ctx context.Context, clockIn time.Time, clockOut *time.Time, manualBreak *int) (models.WorkingTime, error) {
	var policy models.BreakPolicySetting
	var degraded bool
	if clockOut != nil && manualBreak == nil {
		policy, degraded = c.Policy(ctx)
	}
	wt, err := CalculateWorkingTime(clockIn, clockOut, manualBreak, policy)
	if err != nil {
		return wt, err
	}
	wt.PolicyDegraded = degraded
	return wt, nil
}
