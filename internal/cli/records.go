package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

// The helpers below route a command to whichever store owns the current
// session's records: the hosted backend when signed in, the device store
// otherwise.

func (a *App) listRecords(ctx context.Context) ([]models.ProcedureRecord, error) {
	if a.isLoggedIn() {
		if err := a.ensureHosted(ctx); err != nil {
			return nil, err
		}
		return a.store.FetchAll(ctx, a.identity.ID)
	}
	return a.records.List(ctx, a.guestID)
}

func (a *App) fetchRecord(ctx context.Context, recordID string) (*models.ProcedureRecord, error) {
	if a.isLoggedIn() {
		if err := a.ensureHosted(ctx); err != nil {
			return nil, err
		}
		return a.store.Fetch(ctx, a.identity.ID, recordID)
	}

	records, err := a.records.List(ctx, a.guestID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == recordID {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, recordID)
}

func (a *App) createRecord(ctx context.Context, data models.RecordData,
	photos []models.PhotoData, rem *models.ReminderData) (*models.ProcedureRecord, error) {

	if a.isLoggedIn() {
		if err := a.ensureHosted(ctx); err != nil {
			return nil, err
		}
		return a.store.Create(ctx, *a.identity, data, photos, rem, models.SkipFailedPhotos)
	}
	return a.records.Create(ctx, a.guestID, data, photos, rem)
}

func (a *App) updateRecord(ctx context.Context, recordID string, updates models.RecordUpdate,
	newPhotos []models.PhotoData, rem *models.ReminderData) (*models.ProcedureRecord, error) {

	if a.isLoggedIn() {
		if err := a.ensureHosted(ctx); err != nil {
			return nil, err
		}
		return a.store.Update(ctx, *a.identity, recordID, updates, newPhotos, rem)
	}
	return a.records.Update(ctx, a.guestID, recordID, updates, newPhotos, rem)
}

func (a *App) deleteRecord(ctx context.Context, recordID string) error {
	if a.isLoggedIn() {
		if err := a.ensureHosted(ctx); err != nil {
			return err
		}
		return a.store.Delete(ctx, *a.identity, recordID)
	}
	return a.records.Delete(ctx, a.guestID, recordID)
}
