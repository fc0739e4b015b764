package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/glowlog/internal/models"
)

// AddPhoto attaches a before/after photo file to an existing record.
func (a *App) AddPhoto(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id", os.Stdout)
	if err != nil {
		return err
	}

	location, err := getSimpleText(a.reader, "Photo file path", os.Stdout)
	if err != nil {
		return err
	}

	rawTag, err := getSimpleText(a.reader, "Tag (before/after)", os.Stdout)
	if err != nil {
		return err
	}
	tag := models.PhotoTag(strings.ToLower(rawTag))
	if !tag.Valid() {
		fmt.Println("Tag must be 'before' or 'after'")
		return nil
	}

	photo := models.PhotoData{Location: location, Tag: tag}
	rec, err := a.updateRecord(ctx, id, models.RecordUpdate{}, []models.PhotoData{photo}, nil)
	if err != nil {
		a.logger.Error(ctx, "could not add photo", "record_id", id, "error", err)
		return err
	}

	fmt.Printf("Record %s now has %d photos\n", rec.ID, len(rec.Photos))
	return nil
}
