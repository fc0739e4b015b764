// Package reminder computes maintenance reminder due dates.
package reminder

import (
	"time"

	"github.com/dmitrijs2005/glowlog/internal/models"
)

// NextDueDate returns the date a reminder falls due: baseDate plus the
// interval's offset. Month and year intervals add calendar units, so the day
// of month is normalized the way time.AddDate does (Aug 31 + 6 months lands
// in early March).
//
// A custom interval with no day count returns baseDate unchanged. That
// matches the shipped mobile app; a reminder saved that way fires
// immediately, which is questionable but relied upon (see DESIGN.md).
func NextDueDate(interval models.ReminderInterval, baseDate time.Time, customDays *int) time.Time {
	switch interval {
	case models.Interval30Days:
		return baseDate.AddDate(0, 0, 30)
	case models.Interval90Days:
		return baseDate.AddDate(0, 0, 90)
	case models.Interval6Months:
		return baseDate.AddDate(0, 6, 0)
	case models.Interval1Year:
		return baseDate.AddDate(1, 0, 0)
	case models.IntervalCustom:
		if customDays == nil {
			return baseDate
		}
		return baseDate.AddDate(0, 0, *customDays)
	default:
		return baseDate
	}
}
