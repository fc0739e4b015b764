package local

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/logging"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupStore(t *testing.T) *RecordStore {
	t.Helper()
	return NewRecordStore(setupKV(t), testLogger())
}

func mustCreate(t *testing.T, s *RecordStore, guestID, name string) *models.ProcedureRecord {
	t.Helper()
	rec, err := s.Create(context.Background(), guestID, models.RecordData{
		Name:     name,
		Category: models.CategoryFace,
		Date:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}, nil, nil)
	require.NoError(t, err)
	return rec
}

func TestRecordStore_ListEmpty(t *testing.T) {
	s := setupStore(t)

	got, err := s.List(context.Background(), "guest_a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordStore_CreateAndListOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, "guest_a", "Botox")
	second := mustCreate(t, s, "guest_a", "Lip Filler")

	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "Lip Filler", got[0].Name)
	assert.False(t, got[0].CreatedAt.IsZero())
	assert.Equal(t, got[0].CreatedAt, got[0].UpdatedAt)
}

func TestRecordStore_CreateWithPhotosAndReminder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	days := 45
	rec, err := s.Create(ctx, "guest_a", models.RecordData{
		Name:     "Peel",
		Category: models.CategorySkin,
		Date:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}, []models.PhotoData{
		{Location: "/photos/before.jpg", Tag: models.PhotoTagBefore},
		{Location: "/photos/after.jpg", Tag: models.PhotoTagAfter},
	}, &models.ReminderData{
		Interval:   models.IntervalCustom,
		CustomDays: &days,
		NextDate:   time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC),
		Enabled:    true,
	})
	require.NoError(t, err)

	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.Len(t, got[0].Photos, 2)
	assert.Equal(t, "/photos/before.jpg", got[0].Photos[0].Location)
	assert.Equal(t, models.PhotoTagBefore, got[0].Photos[0].Tag)

	require.NotNil(t, got[0].Reminder)
	assert.Equal(t, rec.ID, got[0].Reminder.RecordID)
	assert.Equal(t, models.IntervalCustom, got[0].Reminder.Interval)
	require.NotNil(t, got[0].Reminder.CustomDays)
	assert.Equal(t, 45, *got[0].Reminder.CustomDays)
}

func TestRecordStore_CreateInvalid(t *testing.T) {
	s := setupStore(t)

	_, err := s.Create(context.Background(), "guest_a",
		models.RecordData{Category: models.CategoryFace}, nil, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRecordStore_Update(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "guest_a", models.RecordData{
		Name:     "Botox",
		Category: models.CategoryFace,
		Date:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Clinic:   "Old Clinic",
	}, []models.PhotoData{{Location: "/p/1.jpg", Tag: models.PhotoTagBefore}}, nil)
	require.NoError(t, err)

	newName := "Botox touch-up"
	updated, err := s.Update(ctx, "guest_a", rec.ID, models.RecordUpdate{Name: &newName},
		[]models.PhotoData{{Location: "/p/2.jpg", Tag: models.PhotoTagAfter}},
		&models.ReminderData{Interval: models.Interval90Days, NextDate: rec.Date.AddDate(0, 0, 90), Enabled: true})
	require.NoError(t, err)

	assert.Equal(t, "Botox touch-up", updated.Name)
	assert.Equal(t, "Old Clinic", updated.Clinic, "untouched fields survive")
	require.Len(t, updated.Photos, 2, "old photos are kept, new appended")
	assert.Equal(t, "/p/2.jpg", updated.Photos[1].Location)
	require.NotNil(t, updated.Reminder)
	assert.Equal(t, models.Interval90Days, updated.Reminder.Interval)

	// persisted
	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	assert.Equal(t, "Botox touch-up", got[0].Name)
}

func TestRecordStore_UpdateNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Update(context.Background(), "guest_a", "missing", models.RecordUpdate{}, nil, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordStore_DeleteCascades(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "guest_a", models.RecordData{
		Name:     "Laser",
		Category: models.CategorySkin,
		Date:     time.Now().UTC(),
	}, []models.PhotoData{
		{Location: "/p/1.jpg", Tag: models.PhotoTagBefore},
		{Location: "/p/2.jpg", Tag: models.PhotoTagAfter},
	}, &models.ReminderData{Interval: models.Interval30Days, NextDate: time.Now(), Enabled: true})
	require.NoError(t, err)
	keep := mustCreate(t, s, "guest_a", "Brows")

	require.NoError(t, s.Delete(ctx, "guest_a", rec.ID))

	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)

	for _, r := range got {
		for _, p := range r.Photos {
			assert.NotEqual(t, rec.ID, p.ID)
		}
		if r.Reminder != nil {
			assert.NotEqual(t, rec.ID, r.Reminder.RecordID)
		}
	}
}

func TestRecordStore_DeleteAbsentIsNoop(t *testing.T) {
	s := setupStore(t)
	mustCreate(t, s, "guest_a", "Botox")

	assert.NoError(t, s.Delete(context.Background(), "guest_a", "missing"))

	got, err := s.List(context.Background(), "guest_a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordStore_Clear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	mustCreate(t, s, "guest_a", "Botox")
	mustCreate(t, s, "guest_b", "Peel")

	require.NoError(t, s.Clear(ctx, "guest_a"))

	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	assert.Empty(t, got)

	// other guests are untouched
	got, err = s.List(ctx, "guest_b")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordStore_ListUndecodableBlob(t *testing.T) {
	kv := setupKV(t)
	s := NewRecordStore(kv, testLogger())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, recordsKey("guest_a"), []byte("{broken")))

	got, err := s.List(ctx, "guest_a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingKV struct {
	err error
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) { return nil, f.err }
func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	return f.err
}
func (f *failingKV) Delete(ctx context.Context, key string) error { return f.err }

func TestRecordStore_ListStorageReadError(t *testing.T) {
	s := NewRecordStore(&failingKV{err: errors.New("disk gone")}, testLogger())

	_, err := s.List(context.Background(), "guest_a")
	assert.ErrorIs(t, err, common.ErrStorageRead)
}

func TestRecordStore_CreateStorageWriteError(t *testing.T) {
	s := NewRecordStore(&writeFailKV{inner: setupKV(t)}, testLogger())

	_, err := s.Create(context.Background(), "guest_a", models.RecordData{
		Name:     "Botox",
		Category: models.CategoryFace,
		Date:     time.Now(),
	}, nil, nil)
	assert.ErrorIs(t, err, common.ErrStorageWrite)
}

type writeFailKV struct {
	inner KV
}

func (w *writeFailKV) Get(ctx context.Context, key string) ([]byte, error) {
	return w.inner.Get(ctx, key)
}
func (w *writeFailKV) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("device storage full")
}
func (w *writeFailKV) Delete(ctx context.Context, key string) error {
	return w.inner.Delete(ctx, key)
}
