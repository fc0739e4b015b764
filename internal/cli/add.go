package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/glowlog/internal/models"
)

const dateLayout = "2006-01-02"

// Add interactively logs a new procedure.
func (a *App) Add(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Procedure name", os.Stdout)
	if err != nil {
		return err
	}

	category, err := a.promptCategory()
	if err != nil {
		return err
	}

	date, err := a.promptDate()
	if err != nil {
		return err
	}

	clinic, err := getSimpleText(a.reader, "Clinic (optional)", os.Stdout)
	if err != nil {
		return err
	}

	cost, err := a.promptCost()
	if err != nil {
		return err
	}

	brand, err := getSimpleText(a.reader, "Product/brand (optional)", os.Stdout)
	if err != nil {
		return err
	}

	notes, err := GetMultiline(a.reader, "Notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	data := models.RecordData{
		Name:         name,
		Category:     category,
		Date:         date,
		Clinic:       clinic,
		Cost:         cost,
		Notes:        notes,
		ProductBrand: brand,
	}

	rec, err := a.createRecord(ctx, data, nil, nil)
	if err != nil {
		a.logger.Error(ctx, "could not create record", "error", err)
		return err
	}

	fmt.Printf("Logged %s (%s)\n", rec.Name, rec.ID)
	return nil
}

func (a *App) promptCategory() (models.Category, error) {
	names := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		names = append(names, string(c))
	}

	raw, err := getSimpleText(a.reader, "Category ("+strings.Join(names, ", ")+")", os.Stdout)
	if err != nil {
		return "", err
	}
	return models.Category(strings.ToLower(raw)), nil
}

func (a *App) promptDate() (time.Time, error) {
	raw, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return time.Time{}, err
	}
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, raw)
}

func (a *App) promptCost() (*float64, error) {
	raw, err := getSimpleText(a.reader, "Cost (optional)", os.Stdout)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cost %q: %w", raw, err)
	}
	return &v, nil
}
