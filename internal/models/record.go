// Package models defines the journal's data model: procedure records with
// their photos and maintenance reminders, plus the payload DTOs used when
// creating or updating a record in either store.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/glowlog/internal/common"
)

// Category classifies the treatment area of a procedure.
type Category string

const (
	CategoryFace   Category = "face"
	CategorySkin   Category = "skin"
	CategoryBody   Category = "body"
	CategoryHair   Category = "hair"
	CategoryMakeup Category = "makeup"
	CategoryBrows  Category = "brows"
	CategoryLashes Category = "lashes"
	CategoryNails  Category = "nails"
	CategoryTan    Category = "tan"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryFace, CategorySkin, CategoryBody, CategoryHair, CategoryMakeup,
	CategoryBrows, CategoryLashes, CategoryNails, CategoryTan,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PhotoTag groups a photo as taken before or after the procedure.
type PhotoTag string

const (
	PhotoTagBefore PhotoTag = "before"
	PhotoTagAfter  PhotoTag = "after"
)

func (t PhotoTag) Valid() bool {
	return t == PhotoTagBefore || t == PhotoTagAfter
}

// ReminderInterval selects how far after the procedure date a maintenance
// reminder falls due.
type ReminderInterval string

const (
	Interval30Days  ReminderInterval = "30days"
	Interval90Days  ReminderInterval = "90days"
	Interval6Months ReminderInterval = "6months"
	Interval1Year   ReminderInterval = "1year"
	IntervalCustom  ReminderInterval = "custom"
)

func (i ReminderInterval) Valid() bool {
	switch i {
	case Interval30Days, Interval90Days, Interval6Months, Interval1Year, IntervalCustom:
		return true
	}
	return false
}

// Photo is owned exclusively by its ProcedureRecord. Location is a device
// file path while the record lives in guest storage and a public URL once
// it has been persisted to the hosted backend.
type Photo struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Tag       PhotoTag  `json:"tag"`
	Timestamp time.Time `json:"timestamp"`
}

// Reminder is the at-most-one maintenance reminder of a ProcedureRecord.
// NextDate is record date + interval offset (see the reminder package).
type Reminder struct {
	ID         string           `json:"id"`
	RecordID   string           `json:"record_id"`
	Interval   ReminderInterval `json:"interval"`
	CustomDays *int             `json:"custom_days,omitempty"`
	NextDate   time.Time        `json:"next_date"`
	Enabled    bool             `json:"enabled"`
}

// ProcedureRecord is one logged cosmetic procedure.
type ProcedureRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     Category  `json:"category"`
	Date         time.Time `json:"date"`
	Clinic       string    `json:"clinic,omitempty"`
	Cost         *float64  `json:"cost,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ProductBrand string    `json:"product_brand,omitempty"`
	Photos       []Photo   `json:"photos"`
	Reminder     *Reminder `json:"reminder,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecordData is the payload for creating a record. Zero-valued optional
// fields mean "absent".
type RecordData struct {
	Name         string
	Category     Category
	Date         time.Time
	Clinic       string
	Cost         *float64
	Notes        string
	ProductBrand string
}

// Validate checks the closed-set and range constraints of the payload.
func (d RecordData) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrValidation)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", common.ErrValidation, d.Category)
	}
	if d.Cost != nil && *d.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", common.ErrValidation)
	}
	return nil
}

// RecordUpdate is a partial update: nil fields are left untouched.
type RecordUpdate struct {
	Name         *string
	Category     *Category
	Date         *time.Time
	Clinic       *string
	Cost         *float64
	Notes        *string
	ProductBrand *string
}

// Validate checks only the fields that are present.
func (u RecordUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrValidation)
	}
	if u.Category != nil && !u.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", common.ErrValidation, *u.Category)
	}
	if u.Cost != nil && *u.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", common.ErrValidation)
	}
	return nil
}

// PhotoData references a device-local photo file to be attached to a record.
type PhotoData struct {
	Location string
	Tag      PhotoTag
}

// ReminderData is the payload for attaching or replacing a record's reminder.
type ReminderData struct {
	Interval   ReminderInterval
	CustomDays *int
	NextDate   time.Time
	Enabled    bool
}

// PhotoErrorPolicy decides what a store's Create does when a single photo
// cannot be uploaded: interactive flows keep the record and drop the photo,
// the migration flow fails the whole record so the caller can log and skip it.
type PhotoErrorPolicy int

const (
	// SkipFailedPhotos logs the failed photo and continues with the rest.
	SkipFailedPhotos PhotoErrorPolicy = iota
	// FailOnPhotoError aborts the record's creation on the first photo failure.
	FailOnPhotoError
)
