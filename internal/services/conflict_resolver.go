package services

import (
	"sort"
	"time"

	"event_staffing_backend/internal/models"
)

// Qualifies reports whether staff holds every qualification the shift
// requires. A shift without requirements accepts anyone.
func Qualifies(staff *models.StaffMember, shift *models.Shift) (bool, models.QualificationGap) {
	held := make(map[int64]struct{}, len(staff.QualificationIDs))
	for _, id := range staff.QualificationIDs {
		held[id] = struct{}{}
	}

	gap := models.QualificationGap{
		Have:     sortedIDs(staff.QualificationIDs),
		Required: sortedIDs(shift.QualificationIDs),
		Missing:  []int64{},
	}
	for _, id := range gap.Required {
		if _, ok := held[id]; !ok {
			gap.Missing = append(gap.Missing, id)
		}
	}
	return len(gap.Missing) == 0, gap
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Conflicts returns the existing shifts that overlap shift. existing must
// only hold non-cancelled assignments; the shift itself is skipped.
func Conflicts(shift *models.Shift, existing []models.ShiftRef) []models.ShiftRef {
	out := []models.ShiftRef{}
	for _, ref := range existing {
		if ref.ShiftID == shift.ID {
			continue
		}
		if Overlaps(shift.StartTime, shift.EndTime, ref.StartTime, ref.EndTime) {
			out = append(out, ref)
		}
	}
	return out
}

// EvaluateStaffing combines qualification and conflict checks into an
// advisory report.
func EvaluateStaffing(staff *models.StaffMember, shift *models.Shift, existing []models.ShiftRef) models.StaffingReport {
	qualified, gap := Qualifies(staff, shift)
	conflicts := Conflicts(shift, existing)
	return models.StaffingReport{
		FullyQualified:    qualified,
		QualificationGap:  gap,
		HasConflicts:      len(conflicts) > 0,
		ConflictingShifts: conflicts,
	}
}

func sortedIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
