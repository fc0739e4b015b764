// Package migration moves a guest's locally stored procedure records into the
// hosted account they just signed in to. The transfer is best-effort per
// record: one bad record must not strand the rest of the journal on the
// device.
package migration

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/logging"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

// LocalStore is the guest-side source of records to migrate.
type LocalStore interface {
	List(ctx context.Context, guestID string) ([]models.ProcedureRecord, error)
	Clear(ctx context.Context, guestID string) error
}

// HostedStore is the account-side destination.
type HostedStore interface {
	Create(ctx context.Context, owner models.Identity, data models.RecordData,
		photos []models.PhotoData, rem *models.ReminderData,
		policy models.PhotoErrorPolicy) (*models.ProcedureRecord, error)
}

// Result summarizes one migration run.
type Result struct {
	Total    int
	Migrated int
	Failed   int
}

type Migrator struct {
	local  LocalStore
	hosted HostedStore
	logger logging.Logger
}

func NewMigrator(local LocalStore, hosted HostedStore, logger logging.Logger) *Migrator {
	return &Migrator{local: local, hosted: hosted, logger: logger}
}

// HasGuestData reports whether the guest has any records worth migrating.
// Storage errors read as "nothing to migrate" so a broken local store never
// blocks sign-in.
func (m *Migrator) HasGuestData(ctx context.Context, guestID string) bool {
	records, err := m.local.List(ctx, guestID)
	if err != nil {
		m.logger.Warn(ctx, "could not check guest data", "error", err)
		return false
	}
	return len(records) > 0
}

// Migrate transfers the guest's records to the owner's hosted account.
//
// A record that fails to transfer is logged and skipped; records that were
// listed get exactly one attempt, after which local guest storage is cleared
// regardless of per-record failures. Only a failure to read the local store
// in the first place aborts the run and leaves guest data in place.
func (m *Migrator) Migrate(ctx context.Context, guestID string, owner models.Identity) (*Result, error) {
	if !models.IsGuestID(guestID) {
		return nil, fmt.Errorf("%w: %q is not a guest id", common.ErrValidation, guestID)
	}

	records, err := m.local.List(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("listing guest records: %w", err)
	}
	if len(records) == 0 {
		return &Result{}, nil
	}

	res := &Result{Total: len(records)}
	for _, rec := range records {
		if err := m.migrateRecord(ctx, owner, rec); err != nil {
			m.logger.Error(ctx, "failed to migrate record, skipping",
				"record_id", rec.ID, "name", rec.Name, "error", err)
			res.Failed++
			continue
		}
		res.Migrated++
	}

	if err := m.local.Clear(ctx, guestID); err != nil {
		m.logger.Error(ctx, "failed to clear guest records after migration", "error", err)
	}

	m.logger.Info(ctx, "guest migration finished",
		"total", res.Total, "migrated", res.Migrated, "failed", res.Failed)
	return res, nil
}

func (m *Migrator) migrateRecord(ctx context.Context, owner models.Identity, rec models.ProcedureRecord) error {
	data := models.RecordData{
		Name:         rec.Name,
		Category:     rec.Category,
		Date:         rec.Date,
		Clinic:       rec.Clinic,
		Cost:         rec.Cost,
		Notes:        rec.Notes,
		ProductBrand: rec.ProductBrand,
	}

	var photos []models.PhotoData
	for _, p := range rec.Photos {
		photos = append(photos, models.PhotoData{Location: p.Location, Tag: p.Tag})
	}

	var rem *models.ReminderData
	if rec.Reminder != nil {
		rem = &models.ReminderData{
			Interval:   rec.Reminder.Interval,
			CustomDays: rec.Reminder.CustomDays,
			NextDate:   rec.Reminder.NextDate,
			Enabled:    rec.Reminder.Enabled,
		}
	}

	// A photo that cannot be uploaded fails the whole record so nothing is
	// half-transferred; the record stays visible in the run's failure count.
	_, err := m.hosted.Create(ctx, owner, data, photos, rem, models.FailOnPhotoError)
	return err
}
