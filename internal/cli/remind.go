package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/glowlog/internal/models"
	"github.com/dmitrijs2005/glowlog/internal/reminder"
)

// Remind sets (or replaces) the maintenance reminder on a record. The due
// date is computed from the procedure date plus the chosen interval.
func (a *App) Remind(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.fetchRecord(ctx, id)
	if err != nil {
		a.logger.Error(ctx, "could not fetch record", "record_id", id, "error", err)
		return err
	}

	rawInterval, err := getSimpleText(a.reader, "Interval (30days, 90days, 6months, 1year, custom)", os.Stdout)
	if err != nil {
		return err
	}
	interval := models.ReminderInterval(strings.ToLower(rawInterval))
	if !interval.Valid() {
		fmt.Println("Unknown interval:", rawInterval)
		return nil
	}

	var customDays *int
	if interval == models.IntervalCustom {
		raw, err := getSimpleText(a.reader, "Days until due", os.Stdout)
		if err != nil {
			return err
		}
		days, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Println("Invalid number of days:", raw)
			return nil
		}
		customDays = &days
	}

	rem := &models.ReminderData{
		Interval:   interval,
		CustomDays: customDays,
		NextDate:   reminder.NextDueDate(interval, rec.Date, customDays),
		Enabled:    true,
	}

	updated, err := a.updateRecord(ctx, id, models.RecordUpdate{}, nil, rem)
	if err != nil {
		a.logger.Error(ctx, "could not set reminder", "record_id", id, "error", err)
		return err
	}

	fmt.Printf("Reminder set for %s\n", updated.Reminder.NextDate.Format(dateLayout))
	return nil
}
