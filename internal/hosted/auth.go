package hosted

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

// Auth handles account registration, sign-in, and token verification against
// the hosted users table.
type Auth struct {
	db            *sql.DB
	secret        []byte
	tokenValidity time.Duration
	now           func() time.Time
}

func NewAuth(db *sql.DB, secret []byte, tokenValidity time.Duration) *Auth {
	return &Auth{
		db:            db,
		secret:        secret,
		tokenValidity: tokenValidity,
		now:           time.Now,
	}
}

// Session is an authenticated identity together with its access token. The
// token is what gets persisted locally so the session survives restarts.
type Session struct {
	Identity    models.Identity
	AccessToken string
}

// SignUp creates an account and returns a signed-in session for it.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	id := uuid.NewString()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, is_premium, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, email, string(hash), false, a.now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: email %s", common.ErrAlreadyExists, email)
		}
		return nil, fmt.Errorf("%w: inserting user: %v", common.ErrWrite, err)
	}

	return a.newSession(models.Identity{ID: id, Email: email})
}

// SignIn verifies credentials and returns a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var identity models.Identity
	var hash string
	err := a.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_premium FROM users WHERE email = $1
	`, email).Scan(&identity.ID, &identity.Email, &hash, &identity.Premium)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: selecting user: %v", common.ErrStorageRead, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	return a.newSession(identity)
}

// IdentityFromToken restores the identity for a persisted access token. An
// expired or tampered token yields ErrInvalidToken.
func (a *Auth) IdentityFromToken(ctx context.Context, token string) (*models.Identity, error) {
	userID, err := UserIDFromToken(token, a.secret)
	if err != nil {
		return nil, err
	}

	var identity models.Identity
	err = a.db.QueryRowContext(ctx, `
		SELECT id, email, is_premium FROM users WHERE id = $1
	`, userID).Scan(&identity.ID, &identity.Email, &identity.Premium)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: selecting user: %v", common.ErrStorageRead, err)
	}
	return &identity, nil
}

func (a *Auth) newSession(identity models.Identity) (*Session, error) {
	token, err := GenerateToken(identity.ID, a.secret, a.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &Session{Identity: identity, AccessToken: token}, nil
}
