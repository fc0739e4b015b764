package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/logging"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

const guestRecordsKeyPrefix = "guest_procedures_"

// RecordStore keeps a guest's procedure records as one JSON list per guest
// identity in the device KV store, most-recently-created first. Photos keep
// their device file locations; nothing is uploaded until migration.
type RecordStore struct {
	kv     KV
	logger logging.Logger

	now   func() time.Time
	newID func() string
}

func NewRecordStore(kv KV, logger logging.Logger) *RecordStore {
	return &RecordStore{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func recordsKey(guestID string) string {
	return guestRecordsKeyPrefix + guestID
}

// List returns the guest's records in stored order (newest first). A missing
// key yields an empty list. An undecodable blob is logged and treated as
// empty; only a failing read of the underlying storage is returned as an
// error, so callers can tell "no data" from "could not look".
func (s *RecordStore) List(ctx context.Context, guestID string) ([]models.ProcedureRecord, error) {
	data, err := s.kv.Get(ctx, recordsKey(guestID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return []models.ProcedureRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	var records []models.ProcedureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Error(ctx, "discarding undecodable guest records", "guest_id", guestID, "error", err)
		return []models.ProcedureRecord{}, nil
	}
	return records, nil
}

func (s *RecordStore) save(ctx context.Context, guestID string, records []models.ProcedureRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	if err := s.kv.Set(ctx, recordsKey(guestID), data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return nil
}

// Create stores a new record at the head of the guest's list.
func (s *RecordStore) Create(ctx context.Context, guestID string, data models.RecordData,
	photos []models.PhotoData, rem *models.ReminderData) (*models.ProcedureRecord, error) {

	if err := data.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.List(ctx, guestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := models.ProcedureRecord{
		ID:           s.newID(),
		Name:         data.Name,
		Category:     data.Category,
		Date:         data.Date,
		Clinic:       data.Clinic,
		Cost:         data.Cost,
		Notes:        data.Notes,
		ProductBrand: data.ProductBrand,
		Photos:       s.buildPhotos(photos, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if rem != nil {
		rec.Reminder = s.buildReminder(rec.ID, *rem)
	}

	if err := s.save(ctx, guestID, append([]models.ProcedureRecord{rec}, existing...)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merges the supplied fields into an existing record, appends any new
// photos (old ones are kept) and replaces the reminder when one is given.
func (s *RecordStore) Update(ctx context.Context, guestID, recordID string, updates models.RecordUpdate,
	newPhotos []models.PhotoData, rem *models.ReminderData) (*models.ProcedureRecord, error) {

	if err := updates.Validate(); err != nil {
		return nil, err
	}

	records, err := s.List(ctx, guestID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range records {
		if records[i].ID == recordID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, recordID)
	}

	rec := &records[idx]
	applyUpdate(rec, updates)

	now := s.now()
	if len(newPhotos) > 0 {
		rec.Photos = append(rec.Photos, s.buildPhotos(newPhotos, now)...)
	}
	if rem != nil {
		rec.Reminder = s.buildReminder(rec.ID, *rem)
	}
	rec.UpdatedAt = now

	if err := s.save(ctx, guestID, records); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record and, with it, its embedded photos and reminder.
// Deleting an absent id is a no-op.
func (s *RecordStore) Delete(ctx context.Context, guestID, recordID string) error {
	records, err := s.List(ctx, guestID)
	if err != nil {
		return err
	}

	filtered := records[:0]
	for _, r := range records {
		if r.ID != recordID {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == len(records) {
		return nil
	}
	return s.save(ctx, guestID, filtered)
}

// Clear drops all records of the guest identity. Called once, after
// migration has attempted every record.
func (s *RecordStore) Clear(ctx context.Context, guestID string) error {
	if err := s.kv.Delete(ctx, recordsKey(guestID)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return nil
}

func (s *RecordStore) buildPhotos(photos []models.PhotoData, ts time.Time) []models.Photo {
	out := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		out = append(out, models.Photo{
			ID:        s.newID(),
			Location:  p.Location,
			Tag:       p.Tag,
			Timestamp: ts,
		})
	}
	return out
}

func (s *RecordStore) buildReminder(recordID string, data models.ReminderData) *models.Reminder {
	return &models.Reminder{
		ID:         s.newID(),
		RecordID:   recordID,
		Interval:   data.Interval,
		CustomDays: data.CustomDays,
		NextDate:   data.NextDate,
		Enabled:    data.Enabled,
	}
}

func applyUpdate(rec *models.ProcedureRecord, u models.RecordUpdate) {
	if u.Name != nil {
		rec.Name = *u.Name
	}
	if u.Category != nil {
		rec.Category = *u.Category
	}
	if u.Date != nil {
		rec.Date = *u.Date
	}
	if u.Clinic != nil {
		rec.Clinic = *u.Clinic
	}
	if u.Cost != nil {
		rec.Cost = u.Cost
	}
	if u.Notes != nil {
		rec.Notes = *u.Notes
	}
	if u.ProductBrand != nil {
		rec.ProductBrand = *u.ProductBrand
	}
}
