package contact

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeep/contactkeep/internal/database"
)

var contactColumns = []string{
	"id", "first_name", "last_name", "email", "phone_number", "birthday", "notes", "user_id",
}

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func contactRow(id, userID int64, first, last, email string, birthday time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(contactColumns).
		AddRow(id, first, last, email, "+380501234567", birthday, nil, userID)
}

func TestCreateAssignsOwnership(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO "contacts".*RETURNING \*`).
		WillReturnRows(contactRow(1, 7, "Jane", "Doe", "jane@example.com", birthday))

	created, err := repo.Create(context.Background(), 7, &Contact{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		PhoneNumber: "+380501234567",
		Birthday:    birthday,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(7), created.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDScopedToOwner(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = 7.*id = 5`).
		WillReturnRows(contactRow(5, 7, "Jane", "Doe", "jane@example.com", birthday))

	found, err := repo.GetByID(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), found.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDOtherOwnerIsAbsent(t *testing.T) {
	repo, mock := newTestRepo(t)

	// The row exists but belongs to user 7; user 8's query sees nothing.
	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = 8.*id = 5`).
		WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.GetByID(context.Background(), 8, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPaginatesInIDOrder(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactColumns).
		AddRow(int64(6), "Jane", "Doe", "jane@example.com", "+380501234567", birthday, nil, int64(7)).
		AddRow(int64(9), "John", "Doe", "john@example.com", "+380507654321", birthday, nil, int64(7))

	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = 7.*ORDER BY .*LIMIT 10 OFFSET 5`).
		WillReturnRows(rows)

	contacts, err := repo.List(context.Background(), 7, 5, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, int64(6), contacts[0].ID)
	assert.Equal(t, int64(9), contacts[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchIsExactMatchAcrossThreeFields(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactColumns).
		AddRow(int64(1), "Jane", "Smith", "js@example.com", "+380501234567", birthday, nil, int64(7)).
		AddRow(int64(2), "Mary", "Jane", "mj@example.com", "+380507654321", birthday, nil, int64(7))

	// Exact equality on each of the three fields, never a substring match.
	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = 7.*first_name = 'Jane'.*last_name = 'Jane'.*email = 'Jane'`).
		WillReturnRows(rows)

	contacts, err := repo.Search(context.Background(), 7, "Jane")
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBirthdaysFiltersByWindow(t *testing.T) {
	repo, mock := newTestRepo(t)

	today := time.Date(2024, time.September, 25, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2000, time.September, 30, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2001, time.September, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(contactColumns).
		AddRow(int64(1), "Jane", "Doe", "jane@example.com", "+380501234567", inWindow, nil, int64(7)).
		AddRow(int64(2), "John", "Doe", "john@example.com", "+380507654321", outOfWindow, nil, int64(7))

	mock.ExpectQuery(`SELECT .* FROM "contacts".*user_id = 7`).
		WillReturnRows(rows)

	upcoming, err := repo.Birthdays(context.Background(), 7, 7, today)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, int64(1), upcoming[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReplacesFieldsNotNotes(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1991, time.June, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactColumns).
		AddRow(int64(5), "Janet", "Doe", "janet@example.com", "+380501234567", birthday, []byte("{keep,me}"), int64(7))

	mock.ExpectQuery(`UPDATE "contacts" SET .*first_name = 'Janet'.*user_id = 7.*id = 5.*RETURNING \*`).
		WillReturnRows(rows)

	updated, err := repo.Update(context.Background(), 7, 5, &Contact{
		FirstName:   "Janet",
		LastName:    "Doe",
		Email:       "janet@example.com",
		PhoneNumber: "+380501234567",
		Birthday:    birthday,
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, []string{"keep", "me"}, updated.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAbsentContact(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`UPDATE "contacts" SET`).
		WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.Update(context.Background(), 7, 99, &Contact{
		FirstName:   "Janet",
		LastName:    "Doe",
		Email:       "janet@example.com",
		PhoneNumber: "+380501234567",
		Birthday:    time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceNotes(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactColumns).
		AddRow(int64(5), "Jane", "Doe", "jane@example.com", "+380501234567", birthday, []byte("{first,second}"), int64(7))

	mock.ExpectQuery(`UPDATE "contacts" SET notes = .*user_id = 7.*id = 5.*RETURNING \*`).
		WillReturnRows(rows)

	updated, err := repo.ReplaceNotes(context.Background(), 7, 5, []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, updated.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReturnsSnapshot(t *testing.T) {
	repo, mock := newTestRepo(t)

	birthday := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`DELETE FROM "contacts".*user_id = 7.*id = 5.*RETURNING \*`).
		WillReturnRows(contactRow(5, 7, "Jane", "Doe", "jane@example.com", birthday))

	deleted, err := repo.Delete(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted.ID)
	assert.Equal(t, "Jane", deleted.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAbsentContact(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`DELETE FROM "contacts"`).
		WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.Delete(context.Background(), 7, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
