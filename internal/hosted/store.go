// Package hosted is the adapter for the hosted backend bundle: Postgres rows
// for procedures, photos and reminders, S3-compatible object storage for
// photo binaries, and password/token auth. It is the authoritative store for
// authenticated identities; guest data lives in the local package until
// migration.
package hosted

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/dbx"
	"github.com/dmitrijs2005/glowlog/internal/logging"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

// Store persists procedure records for authenticated identities.
type Store struct {
	db      *sql.DB
	objects ObjectStorage
	logger  logging.Logger

	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB, objects ObjectStorage, logger logging.Logger) *Store {
	return &Store{
		db:      db,
		objects: objects,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create inserts a record with its photos and optional reminder. Each photo
// is re-encoded per the owner's tier and uploaded to object storage before
// any row is written; the procedure, photo and reminder rows then go in as
// one transaction, so an aborted create leaves no half-written record
// behind. The policy decides whether a failed photo is dropped (interactive
// use) or fails the whole call (migration).
func (s *Store) Create(ctx context.Context, owner models.Identity, data models.RecordData,
	photos []models.PhotoData, rem *models.ReminderData, policy models.PhotoErrorPolicy) (*models.ProcedureRecord, error) {

	if err := data.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := models.ProcedureRecord{
		ID:           s.newID(),
		Name:         data.Name,
		Category:     data.Category,
		Date:         data.Date,
		Clinic:       data.Clinic,
		Cost:         data.Cost,
		Notes:        data.Notes,
		ProductBrand: data.ProductBrand,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var uploads []uploadedPhoto
	for _, p := range photos {
		up, err := s.uploadPhoto(ctx, owner, rec.ID, p)
		if err != nil {
			if policy == models.FailOnPhotoError {
				s.discardUploads(ctx, owner.ID, rec.ID, uploads)
				return nil, err
			}
			s.logger.Error(ctx, "skipping failed photo", "record_id", rec.ID,
				"location", p.Location, "error", err)
			continue
		}
		uploads = append(uploads, *up)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			INSERT INTO procedures (id, owner_id, name, category, date, clinic, cost, notes, product_brand, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			rec.ID, owner.ID, rec.Name, string(rec.Category), rec.Date,
			nullString(rec.Clinic), rec.Cost, nullString(rec.Notes), nullString(rec.ProductBrand),
			rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%w: inserting procedure: %v", common.ErrWrite, err)
		}

		for _, up := range uploads {
			if err := s.insertPhotoRow(ctx, tx, rec.ID, up); err != nil {
				return err
			}
		}

		if rem != nil {
			reminder, err := s.insertReminder(ctx, tx, rec.ID, *rem)
			if err != nil {
				return err
			}
			rec.Reminder = reminder
		}
		return nil
	})
	if err != nil {
		s.discardUploads(ctx, owner.ID, rec.ID, uploads)
		return nil, err
	}

	for _, up := range uploads {
		rec.Photos = append(rec.Photos, up.photo)
	}
	return &rec, nil
}

// FetchAll returns the owner's records, newest procedure date first, with
// photos and reminder attached.
func (s *Store) FetchAll(ctx context.Context, ownerID string) ([]models.ProcedureRecord, error) {
	query := `
		SELECT id, name, category, date, clinic, cost, notes, product_brand, created_at, updated_at
		FROM procedures WHERE owner_id = $1 ORDER BY date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting procedures: %v", common.ErrStorageRead, err)
	}
	defer rows.Close()

	var records []models.ProcedureRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	for i := range records {
		if err := s.attachRelations(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Fetch returns one record by id, owner-scoped.
func (s *Store) Fetch(ctx context.Context, ownerID, recordID string) (*models.ProcedureRecord, error) {
	query := `
		SELECT id, name, category, date, clinic, cost, notes, product_brand, created_at, updated_at
		FROM procedures WHERE owner_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, ownerID, recordID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, recordID)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	if err := s.attachRelations(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update overwrites the supplied fields, uploads any new photos (existing
// ones are kept) and upserts the reminder when one is given. The row update
// and the reminder upsert run in one transaction; photo uploads follow and
// are dropped individually on failure.
func (s *Store) Update(ctx context.Context, owner models.Identity, recordID string,
	updates models.RecordUpdate, newPhotos []models.PhotoData, rem *models.ReminderData) (*models.ProcedureRecord, error) {

	if err := updates.Validate(); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE procedures SET
				name          = COALESCE($1, name),
				category      = COALESCE($2, category),
				date          = COALESCE($3, date),
				clinic        = COALESCE($4, clinic),
				cost          = COALESCE($5, cost),
				notes         = COALESCE($6, notes),
				product_brand = COALESCE($7, product_brand),
				updated_at    = $8
			WHERE id = $9 AND owner_id = $10
		`, updates.Name, categoryArg(updates.Category), updates.Date, updates.Clinic,
			updates.Cost, updates.Notes, updates.ProductBrand,
			s.now().UTC(), recordID, owner.ID)
		if err != nil {
			return fmt.Errorf("%w: updating procedure: %v", common.ErrWrite, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: rows affected: %v", common.ErrWrite, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: record %s", common.ErrNotFound, recordID)
		}

		if rem != nil {
			if _, err := s.upsertReminder(ctx, tx, recordID, *rem); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range newPhotos {
		if _, err := s.addPhoto(ctx, owner, recordID, p); err != nil {
			s.logger.Error(ctx, "skipping failed photo", "record_id", recordID,
				"location", p.Location, "error", err)
		}
	}

	return s.Fetch(ctx, owner.ID, recordID)
}

// Delete removes a record; the photo and reminder rows go with it via the
// schema's cascade. Stored photo binaries are removed best-effort first.
func (s *Store) Delete(ctx context.Context, owner models.Identity, recordID string) error {
	var exists string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM procedures WHERE id = $1 AND owner_id = $2`, recordID, owner.ID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: record %s", common.ErrNotFound, recordID)
		}
		return fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	if err := s.objects.DeletePrefix(ctx, path.Join(owner.ID, recordID)); err != nil {
		s.logger.Error(ctx, "failed to delete photo objects, rows will still be removed",
			"record_id", recordID, "error", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM procedures WHERE id = $1 AND owner_id = $2`, recordID, owner.ID); err != nil {
		return fmt.Errorf("%w: deleting procedure: %v", common.ErrWrite, err)
	}
	return nil
}

// DeletePhoto removes a single photo row and its stored object. The object
// deletion is best-effort once the row is gone.
func (s *Store) DeletePhoto(ctx context.Context, owner models.Identity, photoID string) error {
	var storagePath string
	err := s.db.QueryRowContext(ctx, `
		SELECT p.storage_path FROM photos p
		JOIN procedures pr ON pr.id = p.procedure_id
		WHERE p.id = $1 AND pr.owner_id = $2
	`, photoID, owner.ID).Scan(&storagePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: photo %s", common.ErrNotFound, photoID)
		}
		return fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, photoID); err != nil {
		return fmt.Errorf("%w: deleting photo row: %v", common.ErrWrite, err)
	}

	if err := s.objects.Delete(ctx, storagePath); err != nil {
		s.logger.Error(ctx, "photo row deleted but object removal failed",
			"photo_id", photoID, "storage_path", storagePath, "error", err)
	}
	return nil
}

// addPhoto uploads one photo and records its row.
// uploadedPhoto is a photo that exists in object storage but whose row may
// not be committed yet.
type uploadedPhoto struct {
	photo models.Photo
	key   string
}

func (s *Store) uploadPhoto(ctx context.Context, owner models.Identity, recordID string, p models.PhotoData) (*uploadedPhoto, error) {
	body, contentType, ext, err := s.preparePhoto(ctx, owner, p.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpload, err)
	}

	now := s.now().UTC()
	photoID := s.newID()
	// The id keeps keys unique when several photos with the same tag land
	// in the same millisecond.
	filename := fmt.Sprintf("%d_%s_%s%s", now.UnixMilli(), p.Tag, photoID, ext)
	key := path.Join(owner.ID, recordID, filename)

	url, err := s.objects.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpload, err)
	}

	return &uploadedPhoto{
		photo: models.Photo{
			ID:        photoID,
			Location:  url,
			Tag:       p.Tag,
			Timestamp: now,
		},
		key: key,
	}, nil
}

func (s *Store) insertPhotoRow(ctx context.Context, db dbx.DBTX, recordID string, up uploadedPhoto) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO photos (id, procedure_id, storage_path, url, tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, up.photo.ID, recordID, up.key, up.photo.Location, string(up.photo.Tag), up.photo.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: inserting photo: %v", common.ErrWrite, err)
	}
	return nil
}

func (s *Store) addPhoto(ctx context.Context, owner models.Identity, recordID string, p models.PhotoData) (*models.Photo, error) {
	up, err := s.uploadPhoto(ctx, owner, recordID, p)
	if err != nil {
		return nil, err
	}
	if err := s.insertPhotoRow(ctx, s.db, recordID, *up); err != nil {
		return nil, err
	}
	return &up.photo, nil
}

// discardUploads removes objects uploaded for a create that did not commit.
// Best effort: a leftover object without a row is invisible to the API.
func (s *Store) discardUploads(ctx context.Context, ownerID, recordID string, uploads []uploadedPhoto) {
	if len(uploads) == 0 {
		return
	}
	if err := s.objects.DeletePrefix(ctx, path.Join(ownerID, recordID)); err != nil {
		s.logger.Error(ctx, "could not remove photos of aborted create",
			"record_id", recordID, "error", err)
	}
}

func (s *Store) insertReminder(ctx context.Context, db dbx.DBTX, recordID string, data models.ReminderData) (*models.Reminder, error) {
	rem := models.Reminder{
		ID:         s.newID(),
		RecordID:   recordID,
		Interval:   data.Interval,
		CustomDays: data.CustomDays,
		NextDate:   data.NextDate,
		Enabled:    data.Enabled,
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO reminders (id, procedure_id, interval, custom_days, next_date, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rem.ID, recordID, string(rem.Interval), rem.CustomDays, rem.NextDate, rem.Enabled)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting reminder: %v", common.ErrWrite, err)
	}
	return &rem, nil
}

func (s *Store) upsertReminder(ctx context.Context, db dbx.DBTX, recordID string, data models.ReminderData) (*models.Reminder, error) {
	rem := models.Reminder{
		ID:         s.newID(),
		RecordID:   recordID,
		Interval:   data.Interval,
		CustomDays: data.CustomDays,
		NextDate:   data.NextDate,
		Enabled:    data.Enabled,
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO reminders (id, procedure_id, interval, custom_days, next_date, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (procedure_id) DO UPDATE SET
			interval    = EXCLUDED.interval,
			custom_days = EXCLUDED.custom_days,
			next_date   = EXCLUDED.next_date,
			enabled     = EXCLUDED.enabled
	`, rem.ID, recordID, string(rem.Interval), rem.CustomDays, rem.NextDate, rem.Enabled)
	if err != nil {
		return nil, fmt.Errorf("%w: upserting reminder: %v", common.ErrWrite, err)
	}
	return &rem, nil
}

func (s *Store) attachRelations(ctx context.Context, rec *models.ProcedureRecord) error {
	photos, err := s.fetchPhotos(ctx, rec.ID)
	if err != nil {
		return err
	}
	rec.Photos = photos

	rem, err := s.fetchReminder(ctx, rec.ID)
	if err != nil {
		return err
	}
	rec.Reminder = rem
	return nil
}

func (s *Store) fetchPhotos(ctx context.Context, recordID string) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, tag, created_at FROM photos
		WHERE procedure_id = $1 ORDER BY created_at
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting photos: %v", common.ErrStorageRead, err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		var tag string
		if err := rows.Scan(&p.ID, &p.Location, &tag, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
		}
		p.Tag = models.PhotoTag(tag)
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	return photos, nil
}

func (s *Store) fetchReminder(ctx context.Context, recordID string) (*models.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, interval, custom_days, next_date, enabled FROM reminders
		WHERE procedure_id = $1
	`, recordID)

	var rem models.Reminder
	var interval string
	var customDays sql.NullInt64
	if err := row.Scan(&rem.ID, &interval, &customDays, &rem.NextDate, &rem.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}
	rem.RecordID = recordID
	rem.Interval = models.ReminderInterval(interval)
	if customDays.Valid {
		days := int(customDays.Int64)
		rem.CustomDays = &days
	}
	return &rem, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ProcedureRecord, error) {
	var rec models.ProcedureRecord
	var category string
	var clinic, notes, brand sql.NullString
	var cost sql.NullFloat64

	if err := row.Scan(&rec.ID, &rec.Name, &category, &rec.Date,
		&clinic, &cost, &notes, &brand, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.Category = models.Category(category)
	rec.Clinic = clinic.String
	rec.Notes = notes.String
	rec.ProductBrand = brand.String
	if cost.Valid {
		rec.Cost = &cost.Float64
	}
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func categoryArg(c *models.Category) any {
	if c == nil {
		return nil
	}
	return string(*c)
}
