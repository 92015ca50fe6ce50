package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
)

func newIzinMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func izinColumns() []string {
	return []string{"id", "nis", "nama", "absen", "kelas", "sangga", "pk_kelas", "alasan", "status", "verified_by", "verified_at", "created_at", "updated_at"}
}

func TestIzinRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	mock.ExpectExec("INSERT INTO izin").
		WithArgs(sqlmock.AnyArg(), "12345", "Ana", 7, "X1", "Pendobrak", "Budi", "sakit",
			models.IzinStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	izin := &models.Izin{
		NIS:     "12345",
		Nama:    "Ana",
		Absen:   7,
		Kelas:   "X1",
		Sangga:  "Pendobrak",
		PKKelas: "Budi",
		Alasan:  "sakit",
	}
	err := repo.Create(context.Background(), izin)
	require.NoError(t, err)
	assert.NotEmpty(t, izin.ID)
	assert.Equal(t, models.IzinStatusPending, izin.Status)
	assert.False(t, izin.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIzinRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(izinColumns()).
		AddRow("izin-1", "12345", "Ana", 7, "X1", "Pendobrak", "Budi", "sakit", "pending", nil, nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM izin WHERE id = \\$1").
		WithArgs("izin-1").
		WillReturnRows(rows)

	izin, err := repo.FindByID(context.Background(), "izin-1")
	require.NoError(t, err)
	assert.Equal(t, "izin-1", izin.ID)
	assert.Equal(t, models.IzinStatusPending, izin.Status)
	assert.Nil(t, izin.VerifiedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIzinRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM izin WHERE id = \\$1").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestIzinRepositoryListByNIS(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(izinColumns()).
		AddRow("izin-2", "12345", "Ana", 7, "X1", "Pendobrak", "Budi", "izin keluarga", "pending", nil, nil, now, now).
		AddRow("izin-1", "12345", "Ana", 7, "X1", "Pendobrak", "Budi", "sakit", "approved", "Pak Guru", now, now.Add(-time.Hour), now)
	mock.ExpectQuery("SELECT (.+) FROM izin WHERE nis = \\$1 ORDER BY created_at DESC").
		WithArgs("12345").
		WillReturnRows(rows)

	list, err := repo.ListByNIS(context.Background(), "12345", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "izin-2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIzinRepositoryListByNISStatusFilter(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	rows := sqlmock.NewRows(izinColumns())
	mock.ExpectQuery("SELECT (.+) FROM izin WHERE nis = \\$1 AND status = \\$2 ORDER BY created_at DESC").
		WithArgs("12345", models.IzinStatusApproved).
		WillReturnRows(rows)

	list, err := repo.ListByNIS(context.Background(), "12345", models.IzinStatusApproved)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIzinRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(izinColumns()).
		AddRow("izin-1", "12345", "Ana", 7, "X1", "Pendobrak", "Budi", "sakit", "approved", "Pak Guru", now, now.Add(-time.Hour), now)
	mock.ExpectQuery("UPDATE izin SET status = \\$2").
		WithArgs("izin-1", models.IzinStatusApproved, "Pak Guru", sqlmock.AnyArg(), models.IzinStatusPending).
		WillReturnRows(rows)

	izin, err := repo.UpdateStatus(context.Background(), "izin-1", models.IzinStatusApproved, "Pak Guru", now)
	require.NoError(t, err)
	assert.Equal(t, models.IzinStatusApproved, izin.Status)
	require.NotNil(t, izin.VerifiedBy)
	assert.Equal(t, "Pak Guru", *izin.VerifiedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIzinRepositoryUpdateStatusAlreadyVerified(t *testing.T) {
	db, mock, cleanup := newIzinMock(t)
	defer cleanup()
	repo := NewIzinRepository(db)

	// RETURNING yields no rows when the record already left pending.
	mock.ExpectQuery("UPDATE izin SET status = \\$2").
		WithArgs("izin-1", models.IzinStatusRejected, "Pak Guru", sqlmock.AnyArg(), models.IzinStatusPending).
		WillReturnRows(sqlmock.NewRows(izinColumns()))

	_, err := repo.UpdateStatus(context.Background(), "izin-1", models.IzinStatusRejected, "Pak Guru", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
