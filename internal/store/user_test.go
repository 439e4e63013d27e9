package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jjudge-oj/usersvc/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "name", "email", "password_hash"}

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func strPtr(s string) *string { return &s }

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT id, name, email, password_hash\s+FROM users\s+ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(1, "John Doe", "john@example.com", "h1").
			AddRow(2, "Jane Smith", "jane@example.com", "h2"))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "John Doe", users[0].Name)
	assert.Equal(t, 2, users[1].ID)
}

func TestListEmptyReturnsEmptySlice(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users`).WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM users\s+WHERE id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "Bob Johnson", "bob@example.com", "h"))

	user, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.User{ID: 7, Name: "Bob Johnson", Email: "bob@example.com", PasswordHash: "h"}, user)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE id = \$1`).WithArgs(99).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByEmailStoreFailure(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE email = \$1`).
		WithArgs("john@example.com").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "john@example.com")
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSearchByNameLowercasesInSQLAndEscapes(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE LOWER\(name\) LIKE LOWER\(\$1\) ESCAPE`).
		WithArgs(`%OH%`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(1, "John Doe", "john@example.com", "h1").
			AddRow(3, "Bob Johnson", "bob@example.com", "h3"))

	users, err := repo.SearchByName(context.Background(), "OH")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	mock.ExpectQuery(`LIKE LOWER\(\$1\)`).
		WithArgs(`%100\%\_X%`).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err = repo.SearchByName(context.Background(), "100%_X")
	require.NoError(t, err)
	assert.Empty(t, users)

	mock.ExpectQuery(`LIKE LOWER\(\$1\)`).
		WithArgs(`%ÉMILE%`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(4, "émile Zola", "emile@example.com", "h4"))

	users, err = repo.SearchByName(context.Background(), "ÉMILE")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateCommits(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)INSERT INTO users \(name, email, password_hash\)\s+VALUES \(\$1, \$2, \$3\)\s+RETURNING id`).
		WithArgs("John Doe", "john@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	user, err := repo.Create(context.Background(), "John Doe", "john@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, 42, user.ID)
	assert.Equal(t, "john@example.com", user.Email)
}

func TestCreateDuplicateEmailRollsBackWithConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "John Doe", "john@example.com", "hash")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrStoreFailure)

	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
}

func TestCreateGenericFailureRollsBack(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "John Doe", "john@example.com", "hash")
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestCreateBeginFailure(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := repo.Create(context.Background(), "John Doe", "john@example.com", "hash")
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestUpdateOnlySuppliedFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)UPDATE users\s+SET name = \$1\s+WHERE id = \$2\s+RETURNING id, name, email, password_hash`).
		WithArgs("Johnny", 5).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(5, "Johnny", "john@example.com", "h"))
	mock.ExpectCommit()

	user, err := repo.Update(context.Background(), 5, types.UserPatch{Name: strPtr("Johnny")})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", user.Name)
	assert.Equal(t, "john@example.com", user.Email)
}

func TestUpdateAllFieldsSingleStatement(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SET name = \$1, email = \$2, password_hash = \$3\s+WHERE id = \$4`).
		WithArgs("Jo", "jo@example.com", "newhash", 5).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(5, "Jo", "jo@example.com", "newhash"))
	mock.ExpectCommit()

	_, err := repo.Update(context.Background(), 5, types.UserPatch{
		Name:         strPtr("Jo"),
		Email:        strPtr("jo@example.com"),
		PasswordHash: strPtr("newhash"),
	})
	require.NoError(t, err)
}

func TestUpdateMissingRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 404, types.UserPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEmailCollision(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SET email = \$1`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 1, types.UserPatch{Email: strPtr("jane@example.com")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateEmptyPatchReadsCurrentRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "John Doe", "john@example.com", "h"))

	user, err := repo.Update(context.Background(), 1, types.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", user.Name)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 3))
}

func TestDeleteMissingRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrNotFound)
}

func TestSeedCountsInsertedRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO users.*ON CONFLICT \(email\) DO NOTHING`).
		WithArgs("John Doe", "john@example.com", "h1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("Jane Smith", "jane@example.com", "h2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := repo.Seed(context.Background(), []types.User{
		{Name: "John Doe", Email: "john@example.com", PasswordHash: "h1"},
		{Name: "Jane Smith", Email: "jane@example.com", PasswordHash: "h2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(nil))
	assert.ErrorIs(t, classifyError(&pq.Error{Code: "23502"}), ErrConflict)
	assert.ErrorIs(t, classifyError(&pq.Error{Code: "42P01"}), ErrStoreFailure)
	assert.Equal(t, ErrNotFound, classifyError(ErrNotFound))
}
