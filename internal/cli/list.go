package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/glowlog/internal/models"
)

// List prints the current journal, one line per record.
func (a *App) List(ctx context.Context) error {
	records, err := a.listRecords(ctx)
	if err != nil {
		a.logger.Error(ctx, "could not list records", "error", err)
		return err
	}

	if len(records) == 0 {
		printlnFn("No records yet. Type 'add' to log your first procedure.")
		return nil
	}

	for _, rec := range records {
		printlnFn(formatRecordLine(rec))
	}
	return nil
}

// Show prints one record in full, photos and reminder included.
func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.fetchRecord(ctx, id)
	if err != nil {
		a.logger.Error(ctx, "could not fetch record", "record_id", id, "error", err)
		return err
	}

	printlnFn(formatRecord(*rec))
	return nil
}

func formatRecordLine(rec models.ProcedureRecord) string {
	line := fmt.Sprintf("%s  %s  %s [%s]", rec.ID, rec.Date.Format("2006-01-02"), rec.Name, rec.Category)
	if rec.Cost != nil {
		line += fmt.Sprintf("  %.2f", *rec.Cost)
	}
	if n := len(rec.Photos); n > 0 {
		line += fmt.Sprintf("  (%d photos)", n)
	}
	if rec.Reminder != nil && rec.Reminder.Enabled {
		line += fmt.Sprintf("  next: %s", rec.Reminder.NextDate.Format("2006-01-02"))
	}
	return line
}

func formatRecord(rec models.ProcedureRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", rec.Name, rec.Category)
	fmt.Fprintf(&b, "  id:     %s\n", rec.ID)
	fmt.Fprintf(&b, "  date:   %s\n", rec.Date.Format("2006-01-02"))
	if rec.Clinic != "" {
		fmt.Fprintf(&b, "  clinic: %s\n", rec.Clinic)
	}
	if rec.Cost != nil {
		fmt.Fprintf(&b, "  cost:   %.2f\n", *rec.Cost)
	}
	if rec.ProductBrand != "" {
		fmt.Fprintf(&b, "  brand:  %s\n", rec.ProductBrand)
	}
	if rec.Notes != "" {
		fmt.Fprintf(&b, "  notes:  %s\n", rec.Notes)
	}
	for _, p := range rec.Photos {
		fmt.Fprintf(&b, "  photo [%s] %s (%s)\n", p.Tag, p.Location, p.ID)
	}
	if rec.Reminder != nil {
		state := "off"
		if rec.Reminder.Enabled {
			state = "on"
		}
		fmt.Fprintf(&b, "  reminder: %s due %s (%s)\n",
			rec.Reminder.Interval, rec.Reminder.NextDate.Format("2006-01-02"), state)
	}
	return strings.TrimRight(b.String(), "\n")
}
