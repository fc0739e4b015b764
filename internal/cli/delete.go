package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Delete removes a record with its photos and reminder after confirmation.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id", os.Stdout)
	if err != nil {
		return err
	}

	confirm, err := getSimpleText(a.reader, "Delete record "+id+"? (y/n)", os.Stdout)
	if err != nil {
		return err
	}
	if strings.ToLower(confirm) != "y" {
		fmt.Println("Cancelled")
		return nil
	}

	if err := a.deleteRecord(ctx, id); err != nil {
		a.logger.Error(ctx, "could not delete record", "record_id", id, "error", err)
		return err
	}

	fmt.Println("Deleted")
	return nil
}
