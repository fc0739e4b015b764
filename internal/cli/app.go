// Package cli implements the interactive glowlog shell. A guest works against
// the on-device store; signing in switches the session to the hosted backend
// and migrates whatever the guest logged before.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"os"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/config"
	"github.com/dmitrijs2005/glowlog/internal/hosted"
	"github.com/dmitrijs2005/glowlog/internal/local"
	"github.com/dmitrijs2005/glowlog/internal/logging"
	"github.com/dmitrijs2005/glowlog/internal/migration"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

type App struct {
	config *config.Config
	logger logging.Logger

	localDB *sql.DB
	guest   *local.GuestManager
	records *local.RecordStore

	hostedDB *sql.DB
	store    *hosted.Store
	auth     *hosted.Auth
	migrator *migration.Migrator

	// identity is nil while working as a guest.
	identity *models.Identity
	guestID  string

	// hostedReady flips once the hosted schema has been migrated this run.
	hostedReady bool

	reader *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	localDB, err := local.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		logger.Error(ctx, "error initializing local database", "error", err)
		return nil, err
	}

	kv := local.NewSQLiteKV(localDB)
	guest := local.NewGuestManager(kv)
	records := local.NewRecordStore(kv, logger)

	guestID, err := guest.EnsureGuestID(ctx)
	if err != nil {
		return nil, err
	}

	hostedDB, err := hosted.Open(c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	objects, err := hosted.NewS3ObjectStore(ctx, hosted.ObjectStorageConfig{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}

	store := hosted.NewStore(hostedDB, objects, logger)
	auth := hosted.NewAuth(hostedDB, []byte(c.SecretKey), c.TokenValidityDuration)

	app := &App{
		config:   c,
		logger:   logger,
		localDB:  localDB,
		guest:    guest,
		records:  records,
		hostedDB: hostedDB,
		store:    store,
		auth:     auth,
		migrator: migration.NewMigrator(records, store, logger),
		guestID:  guestID,
		reader:   bufio.NewReader(os.Stdin),
	}
	app.restoreSession(ctx)
	return app, nil
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to glowlog (type 'help' for commands)")
	if !a.isLoggedIn() {
		if a.guest.HasEverAuthenticated(ctx) {
			printlnFn("You have an account on this device. Type 'login' to pick up your journal.")
		} else if a.migrator.HasGuestData(ctx, a.guestID) {
			printlnFn("Your journal is stored on this device only. Register to back it up.")
		}
	}
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) Close() {
	_ = a.localDB.Close()
	_ = a.hostedDB.Close()
}

func (a *App) isLoggedIn() bool {
	return a.identity != nil
}

func (a *App) status() string {
	if a.identity != nil {
		return a.identity.Email
	}
	return "guest"
}

// ensureHosted brings the hosted schema up to date before the first
// authenticated operation. Guests never get here, so an offline device pays
// no connection cost.
func (a *App) ensureHosted(ctx context.Context) error {
	if a.hostedReady {
		return nil
	}
	if err := hosted.RunMigrations(ctx, a.hostedDB); err != nil {
		return err
	}
	a.hostedReady = true
	return nil
}

// restoreSession picks up a persisted session token from a previous run. An
// unreachable backend leaves the user a guest; an invalid token is discarded.
func (a *App) restoreSession(ctx context.Context) {
	token := a.guest.SessionToken(ctx)
	if token == "" {
		return
	}

	if err := a.ensureHosted(ctx); err != nil {
		a.logger.Warn(ctx, "backend unreachable, continuing as guest", "error", err)
		return
	}

	identity, err := a.auth.IdentityFromToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			a.logger.Info(ctx, "stored session expired, signing out")
			_ = a.guest.ClearSessionToken(ctx)
		} else {
			a.logger.Warn(ctx, "could not restore session", "error", err)
		}
		return
	}
	a.identity = identity
}
