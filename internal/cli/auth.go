package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/glowlog/internal/hosted"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates a hosted account.
// Any records logged as a guest are migrated into it right away.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.ensureHosted(ctx); err != nil {
		a.logger.Error(ctx, "backend unreachable", "error", err)
		return err
	}

	session, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		a.logger.Error(ctx, "registration failed", "error", err)
		return err
	}

	fmt.Println("Success!")
	return a.startSession(ctx, session)
}

// Login prompts for credentials and signs in. On success the guest journal,
// if any, is migrated into the account.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.ensureHosted(ctx); err != nil {
		a.logger.Error(ctx, "backend unreachable", "error", err)
		return err
	}

	session, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		a.logger.Error(ctx, "login failed", "error", err)
		return err
	}

	return a.startSession(ctx, session)
}

func (a *App) startSession(ctx context.Context, session *hosted.Session) error {
	if err := a.guest.SaveSessionToken(ctx, session.AccessToken); err != nil {
		a.logger.Warn(ctx, "could not persist session token", "error", err)
	}
	a.identity = &session.Identity

	// The guest id is cleared only after the migration routine ran and
	// reported success. If guest records could not even be read, the id
	// stays put and the next sign-in retries the transfer.
	res, err := a.migrator.Migrate(ctx, a.guestID, session.Identity)
	if err != nil {
		a.logger.Error(ctx, "guest migration failed, local records kept", "error", err)
	} else {
		if res.Total > 0 {
			fmt.Printf("Migrated %d of %d guest records\n", res.Migrated, res.Total)
		}
		if err := a.guest.ClearGuestID(ctx); err != nil {
			a.logger.Warn(ctx, "could not clear guest id", "error", err)
		}
	}
	if err := a.guest.MarkEverAuthenticated(ctx); err != nil {
		a.logger.Warn(ctx, "could not persist auth marker", "error", err)
	}
	return nil
}

// Logout drops the session and starts a fresh guest journal.
func (a *App) Logout(ctx context.Context) error {
	if err := a.guest.ClearSessionToken(ctx); err != nil {
		return err
	}
	a.identity = nil

	guestID, err := a.guest.EnsureGuestID(ctx)
	if err != nil {
		return err
	}
	a.guestID = guestID
	fmt.Println("Logged out")
	return nil
}
