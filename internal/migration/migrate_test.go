package migration

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

type fakeLocal struct {
	records []models.ProcedureRecord
	listErr error

	cleared  bool
	clearErr error
}

func (f *fakeLocal) List(ctx context.Context, guestID string) ([]models.ProcedureRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeLocal) Clear(ctx context.Context, guestID string) error {
	f.cleared = true
	return f.clearErr
}

type fakeHosted struct {
	created  []models.RecordData
	photos   [][]models.PhotoData
	policies []models.PhotoErrorPolicy

	// failNames lists record names whose Create should fail.
	failNames map[string]bool
}

func (f *fakeHosted) Create(ctx context.Context, owner models.Identity, data models.RecordData,
	photos []models.PhotoData, rem *models.ReminderData,
	policy models.PhotoErrorPolicy) (*models.ProcedureRecord, error) {

	if f.failNames[data.Name] {
		return nil, errors.New("hosted create failed")
	}
	f.created = append(f.created, data)
	f.photos = append(f.photos, photos)
	f.policies = append(f.policies, policy)
	return &models.ProcedureRecord{ID: "hosted-" + data.Name, Name: data.Name}, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var owner = models.Identity{ID: "user-1", Email: "a@b.c"}

func record(name string) models.ProcedureRecord {
	cost := 120.0
	days := 45
	return models.ProcedureRecord{
		ID:       "local-" + name,
		Name:     name,
		Category: models.CategoryFace,
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Clinic:   "Clinic A",
		Cost:     &cost,
		Photos: []models.Photo{
			{ID: "p-1", Location: "/photos/before.jpg", Tag: models.PhotoTagBefore},
		},
		Reminder: &models.Reminder{
			ID:         "rem-1",
			Interval:   models.IntervalCustom,
			CustomDays: &days,
			NextDate:   time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC),
			Enabled:    true,
		},
	}
}

func TestMigrate_TransfersEverything(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox"), record("Peel")}}
	hosted := &fakeHosted{}
	m := NewMigrator(local, hosted, testLogger())

	res, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	assert.Equal(t, &Result{Total: 2, Migrated: 2, Failed: 0}, res)
	assert.True(t, local.cleared)

	require.Len(t, hosted.created, 2)
	assert.Equal(t, "Botox", hosted.created[0].Name)
	assert.Equal(t, "Clinic A", hosted.created[0].Clinic)
	require.NotNil(t, hosted.created[0].Cost)
	assert.Equal(t, 120.0, *hosted.created[0].Cost)

	require.Len(t, hosted.photos[0], 1)
	assert.Equal(t, "/photos/before.jpg", hosted.photos[0][0].Location)
	assert.Equal(t, models.PhotoTagBefore, hosted.photos[0][0].Tag)
}

func TestMigrate_RejectsNonGuestID(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox")}}
	hosted := &fakeHosted{}
	m := NewMigrator(local, hosted, testLogger())

	_, err := m.Migrate(context.Background(), "user-1", owner)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, hosted.created)
	assert.False(t, local.cleared)
}

func TestMigrate_FailedRecordIsSkippedNotFatal(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox"), record("Peel"), record("Laser")}}
	hosted := &fakeHosted{failNames: map[string]bool{"Peel": true}}
	m := NewMigrator(local, hosted, testLogger())

	res, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	assert.Equal(t, &Result{Total: 3, Migrated: 2, Failed: 1}, res)
	assert.Len(t, hosted.created, 2)
}

func TestMigrate_ClearsEvenWithFailures(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox")}}
	hosted := &fakeHosted{failNames: map[string]bool{"Botox": true}}
	m := NewMigrator(local, hosted, testLogger())

	res, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, local.cleared, "guest storage must be cleared after the single attempt")
}

func TestMigrate_ListFailureAbortsWithoutClearing(t *testing.T) {
	local := &fakeLocal{listErr: errors.New("disk gone")}
	m := NewMigrator(local, &fakeHosted{}, testLogger())

	_, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.Error(t, err)
	assert.False(t, local.cleared, "guest data must survive an unreadable store")
}

func TestMigrate_EmptyGuestIsNoOp(t *testing.T) {
	local := &fakeLocal{}
	hosted := &fakeHosted{}
	m := NewMigrator(local, hosted, testLogger())

	res, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, res)
	assert.Empty(t, hosted.created)
}

func TestMigrate_ClearFailureIsLoggedNotReturned(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox")}, clearErr: errors.New("locked")}
	m := NewMigrator(local, &fakeHosted{}, testLogger())

	res, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Migrated)
}

func TestMigrate_UsesStrictPhotoPolicy(t *testing.T) {
	local := &fakeLocal{records: []models.ProcedureRecord{record("Botox")}}
	hosted := &fakeHosted{}
	m := NewMigrator(local, hosted, testLogger())

	_, err := m.Migrate(context.Background(), "guest_abc", owner)
	require.NoError(t, err)
	require.Len(t, hosted.policies, 1)
	assert.Equal(t, models.FailOnPhotoError, hosted.policies[0])
}

func TestHasGuestData(t *testing.T) {
	m := NewMigrator(&fakeLocal{records: []models.ProcedureRecord{record("Botox")}}, &fakeHosted{}, testLogger())
	assert.True(t, m.HasGuestData(context.Background(), "guest_abc"))

	m = NewMigrator(&fakeLocal{}, &fakeHosted{}, testLogger())
	assert.False(t, m.HasGuestData(context.Background(), "guest_abc"))

	m = NewMigrator(&fakeLocal{listErr: errors.New("disk gone")}, &fakeHosted{}, testLogger())
	assert.False(t, m.HasGuestData(context.Background(), "guest_abc"))
}
