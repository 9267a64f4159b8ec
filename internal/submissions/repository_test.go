package submissions

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zaqqye/tg_contact_form/internal/database"
	"github.com/zaqqye/tg_contact_form/internal/models"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return NewRepository(db)
}

func seed(t *testing.T, r *Repository, name string, at time.Time) models.Submission {
	t.Helper()
	sub := models.NewSubmission(map[string]string{"name": name, "email": name + "@example.com"}, "127.0.0.1", at)
	require.NoError(t, r.Create(context.Background(), &sub))
	return sub
}

func TestRepository_CreateAssignsUniqueIDs(t *testing.T) {
	r := newRepo(t)
	now := time.Now()
	a := seed(t, r, "a", now)
	b := seed(t, r, "b", now)

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	dup := a
	assert.Error(t, r.Create(context.Background(), &dup), "rows are insert-only")
}

func TestRepository_ListNewestFirst(t *testing.T) {
	r := newRepo(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	seed(t, r, "old", base)
	seed(t, r, "mid", base.Add(time.Hour))
	seed(t, r, "new", base.Add(2*time.Hour))

	all, total, err := r.List(context.Background(), ListOptions{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].Name, all[1].Name, all[2].Name})

	page, total, err := r.List(context.Background(), ListOptions{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "old", page[0].Name)

	found, total, err := r.List(context.Background(), ListOptions{All: true, Query: "MID"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "mid", found[0].Name)
}

func TestRepository_GetAndDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	keep := seed(t, r, "keep", time.Now())
	gone := seed(t, r, "gone", time.Now())

	got, err := r.Get(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, "gone@example.com", got.Email)

	require.NoError(t, r.Delete(ctx, gone.ID))
	_, err = r.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, gone.ID), ErrNotFound)

	rest, total, err := r.List(ctx, ListOptions{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, keep.ID, rest[0].ID)
}

func TestRepository_Analytics(t *testing.T) {
	r := newRepo(t)
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	seed(t, r, "a", now.Add(-time.Hour))
	seed(t, r, "b", now.Add(-3*time.Hour))
	seed(t, r, "c", now.AddDate(0, 0, -2))
	seed(t, r, "d", now.AddDate(0, 0, -10))
	seed(t, r, "e", now.AddDate(0, 0, -40))

	a, err := r.Analytics(context.Background(), 7, now)
	require.NoError(t, err)
	assert.EqualValues(t, 5, a.Total)
	assert.EqualValues(t, 2, a.Last24h)
	assert.EqualValues(t, 3, a.Last7Days)
	assert.EqualValues(t, 4, a.Last30Days)

	require.Len(t, a.Daily, 7)
	assert.Equal(t, "2024-06-04", a.Daily[0].Date)
	assert.Equal(t, "2024-06-10", a.Daily[6].Date)
	assert.EqualValues(t, 2, a.Daily[6].Count)
	assert.EqualValues(t, 1, a.Daily[4].Count)
	assert.EqualValues(t, 0, a.Daily[5].Count)
}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewRepository(db), mock
}

func TestRepository_PostgresSQL(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "submissions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectCommit()

	sub := models.NewSubmission(map[string]string{"name": "A"}, "::1", time.Now())
	require.NoError(t, r.Create(ctx, &sub))
	assert.EqualValues(t, 41, sub.ID)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "submissions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "submissions" ORDER BY submitted_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(41, "A"))
	list, total, err := r.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "submissions" WHERE "submissions"."id" = $1`)).
		WithArgs(41).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, r.Delete(ctx, 41))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "submissions"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, r.Delete(ctx, 99), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
