package report

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Engine) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewEngine(db, zap.NewNop())
}

func statRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"key", "mean", "low", "high", "n"})
}

func TestDoseByPhysician(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT physician_id, AVG`).
		WillReturnRows(statRows().
			AddRow("222", 310.5, 100.0, 500.0, 12).
			AddRow("111", 120.0, 120.0, 120.0, 1))

	rows := eng.DoseByPhysician(models.Filter{})

	require.Len(t, rows, 2)
	assert.Equal(t, "222", rows[0].Key)
	assert.Equal(t, 310.5, rows[0].Mean)
	assert.Equal(t, 12, rows[0].Count)
	// min <= mean <= max for every emitted group
	for _, r := range rows {
		assert.LessOrEqual(t, r.Min, r.Mean)
		assert.LessOrEqual(t, r.Mean, r.Max)
		assert.Positive(t, r.Count)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseByPhysician_QueryFailure(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT physician_id, AVG`).
		WillReturnError(errors.New("relation does not exist"))

	rows := eng.DoseByPhysician(models.Filter{})

	// Faults surface as "no data", never as a panic or error.
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDurationByPhysician_UsesMinutesExpression(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT physician_id, AVG\(\(CAST\(SUBSTR\(duration, 1, 2\)`).
		WillReturnRows(statRows().AddRow("111", 2.5, 1.0, 4.0, 3))

	rows := eng.DurationByPhysician(models.Filter{})

	require.Len(t, rows, 1)
	assert.Equal(t, 2.5, rows[0].Mean)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseByExam_SingleMode(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT exam_label, AVG`).
		WillReturnRows(statRows().AddRow("ANGIO", 200.0, 150.0, 250.0, 4))

	rows, multi := eng.DoseByExam(models.Filter{})

	assert.False(t, multi)
	require.Len(t, rows, 1)
	assert.Equal(t, "ANGIO", rows[0].Key)
	assert.Empty(t, rows[0].SubKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseByExam_MultiMode(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"exam_label", "physician_id", "mean", "low", "high", "n"}).
		AddRow("ANGIO", "111", 200.0, 150.0, 250.0, 4).
		AddRow("ANGIO", "222", 180.0, 180.0, 180.0, 1)
	mock.ExpectQuery(`SELECT exam_label, physician_id, AVG`).
		WithArgs("111", "222").
		WillReturnRows(rows)

	f := models.Filter{Physician: models.ParsePhysicianFilter("111;222")}
	out, multi := eng.DoseByExam(f)

	assert.True(t, multi)
	require.Len(t, out, 2)
	assert.Equal(t, "111", out[0].SubKey)
	assert.Equal(t, "222", out[1].SubKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoseByExam_MultiModeFailure(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT exam_label, physician_id, AVG`).
		WillReturnError(errors.New("boom"))

	f := models.Filter{Physician: models.ParsePhysicianFilter("111;222")}
	out, multi := eng.DoseByExam(f)

	// Failure reports empty with the multi flag forced false.
	assert.Empty(t, out)
	assert.False(t, multi)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_SingleMode(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"date", "count"}).
		AddRow("2026-02-10", 5).
		AddRow("2026-02-12", 3)
	mock.ExpectQuery(`SELECT date, COUNT\(\*\) FROM exams WHERE 1=1 GROUP BY date ORDER BY date`).
		WillReturnRows(rows)

	points, multi := eng.TimeSeries(models.Filter{})

	assert.False(t, multi)
	assert.Equal(t, []models.TimeSeriesPoint{
		{Date: "2026-02-10", Count: 5},
		{Date: "2026-02-11", Count: 0},
		{Date: "2026-02-12", Count: 3},
	}, points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_MultiMode(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"date", "physician_id", "count"}).
		AddRow("2026-02-10", "DrA", 2).
		AddRow("2026-02-11", "DrB", 4)
	mock.ExpectQuery(`SELECT date, physician_id, COUNT\(\*\)`).
		WithArgs("DrA", "DrB").
		WillReturnRows(rows)

	f := models.Filter{Physician: models.ParsePhysicianFilter("DrA;DrB")}
	points, multi := eng.TimeSeries(f)

	assert.True(t, multi)
	assert.Equal(t, []models.TimeSeriesPoint{
		{Date: "2026-02-10", Physician: "DrA", Count: 2},
		{Date: "2026-02-10", Physician: "DrB", Count: 0},
		{Date: "2026-02-11", Physician: "DrA", Count: 0},
		{Date: "2026-02-11", Physician: "DrB", Count: 4},
	}, points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_NoData(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT date, COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}))

	points, multi := eng.TimeSeries(models.Filter{})

	assert.Empty(t, points)
	assert.False(t, multi)
}

func TestTimeSeries_QueryFailure(t *testing.T) {
	db, mock, eng := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT date, physician_id, COUNT\(\*\)`).
		WillReturnError(errors.New("disk error"))

	f := models.Filter{Physician: models.ParsePhysicianFilter("A;B")}
	points, multi := eng.TimeSeries(f)

	assert.Empty(t, points)
	assert.False(t, multi)
}

func TestEngine_NilDBReturnsEmpty(t *testing.T) {
	eng := NewEngine(nil, zap.NewNop())

	points, multi := eng.TimeSeries(models.Filter{})
	assert.Empty(t, points)
	assert.False(t, multi)

	assert.Empty(t, eng.DoseByPhysician(models.Filter{}))
	assert.Empty(t, eng.DurationByPhysician(models.Filter{}))

	rows, multi := eng.DoseByExam(models.Filter{})
	assert.Empty(t, rows)
	assert.False(t, multi)
}
