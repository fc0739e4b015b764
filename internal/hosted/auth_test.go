package hosted

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/glowlog/internal/common"
)

var testSecret = []byte("test-secret")

func newAuthWithMock(t *testing.T) (*Auth, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	a := NewAuth(db, testSecret, time.Hour)
	a.now = func() time.Time { return testNow }
	return a, mock, db
}

func TestSignUp_Success(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+users`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := a.SignUp(context.Background(), "  Alice@Example.COM ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.Identity.Email)
	assert.False(t, session.Identity.Premium)

	userID, err := UserIDFromToken(session.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_InvalidEmail(t *testing.T) {
	a, _, db := newAuthWithMock(t)
	defer db.Close()

	_, err := a.SignUp(context.Background(), "not-an-email", "hunter2hunter2")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSignUp_ShortPassword(t *testing.T) {
	a, _, db := newAuthWithMock(t)
	defer db.Close()

	_, err := a.SignUp(context.Background(), "alice@example.com", "short")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := a.SignUp(context.Background(), "alice@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestSignIn_Success(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_premium"}).
			AddRow("u-1", "alice@example.com", string(hash), true))

	session, err := a.SignIn(context.Background(), "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.Identity.ID)
	assert.True(t, session.Identity.Premium)
	assert.NotEmpty(t, session.AccessToken)
}

func TestSignIn_WrongPassword(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_premium"}).
			AddRow("u-1", "alice@example.com", string(hash), false))

	_, err = a.SignIn(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSignIn_UnknownEmail(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email`).
		WillReturnError(sql.ErrNoRows)

	_, err := a.SignIn(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSignIn_DBError(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+email`).
		WillReturnError(errors.New("db down"))

	_, err := a.SignIn(context.Background(), "alice@example.com", "whatever")
	assert.ErrorIs(t, err, common.ErrStorageRead)
}

func TestIdentityFromToken_Success(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	token, err := GenerateToken("u-1", testSecret, time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "is_premium"}).
			AddRow("u-1", "alice@example.com", true))

	identity, err := a.IdentityFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.ID)
	assert.True(t, identity.Premium)
}

func TestIdentityFromToken_Invalid(t *testing.T) {
	a, _, db := newAuthWithMock(t)
	defer db.Close()

	_, err := a.IdentityFromToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestIdentityFromToken_UserGone(t *testing.T) {
	a, mock, db := newAuthWithMock(t)
	defer db.Close()

	token, err := GenerateToken("u-1", testSecret, time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+.*FROM\s+users\s+WHERE\s+id`).
		WillReturnError(sql.ErrNoRows)

	_, err = a.IdentityFromToken(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
