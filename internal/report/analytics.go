// Package report computes grouped dose statistics and gap-filled daily time
// series over the exam store.
package report

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
	"github.com/gabrielamaroufrj/OpenZoe/internal/store"
)

// Value expressions over the text-typed store columns. Duration-to-minutes
// relies on the fixed zero-padded HH:MM:SS layout.
const (
	doseExpr    = "CAST(REPLACE(dose_mgy, ',', '.') AS DOUBLE PRECISION)"
	minutesExpr = "(CAST(SUBSTR(duration, 1, 2) AS INTEGER) * 60 + CAST(SUBSTR(duration, 4, 2) AS INTEGER) + CAST(SUBSTR(duration, 7, 2) AS DOUBLE PRECISION) / 60)"
)

// Engine runs the reporting queries. A store fault never escapes: failing
// queries log a diagnostic and present as "no data".
type Engine struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEngine creates an engine over db. A nil db yields empty results.
func NewEngine(db *sql.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// TimeSeries returns one point per calendar day between the first and last
// matching exam, zero filled. The second result is true when the physician
// filter is a membership list; the series then covers the full cartesian
// product of observed dates and observed physicians.
func (e *Engine) TimeSeries(f models.Filter) ([]models.TimeSeriesPoint, bool) {
	multi := f.Physician.IsMulti()
	raw, err := e.dailyCounts(f, multi)
	if err != nil {
		e.logger.Error("time series query failed", zap.Error(err))
		return nil, false
	}
	if multi {
		return DensifyByPhysician(raw), true
	}
	return Densify(raw), false
}

// DoseByPhysician returns dose statistics grouped by physician, ordered by
// descending mean.
func (e *Engine) DoseByPhysician(f models.Filter) []models.AggregationRow {
	rows, err := e.statsBy(f, doseExpr, "physician_id")
	if err != nil {
		e.logger.Error("physician dose query failed", zap.Error(err))
		return nil
	}
	return rows
}

// DurationByPhysician returns fluoroscopy-minute statistics grouped by
// physician, ordered by descending mean.
func (e *Engine) DurationByPhysician(f models.Filter) []models.AggregationRow {
	rows, err := e.statsBy(f, minutesExpr, "physician_id")
	if err != nil {
		e.logger.Error("physician duration query failed", zap.Error(err))
		return nil
	}
	return rows
}

// DoseByExam returns dose statistics grouped by exam, or by exam and
// physician when the physician filter is a membership list. The flag
// reports which shape was produced; it is false on failure.
func (e *Engine) DoseByExam(f models.Filter) ([]models.AggregationRow, bool) {
	return e.statsByExam(f, doseExpr, "exam dose")
}

// DurationByExam is DoseByExam over fluoroscopy minutes.
func (e *Engine) DurationByExam(f models.Filter) ([]models.AggregationRow, bool) {
	return e.statsByExam(f, minutesExpr, "exam duration")
}

func (e *Engine) statsByExam(f models.Filter, valueExpr, what string) ([]models.AggregationRow, bool) {
	if !f.Physician.IsMulti() {
		rows, err := e.statsBy(f, valueExpr, "exam_label")
		if err != nil {
			e.logger.Error(what+" query failed", zap.Error(err))
			return nil, false
		}
		return rows, false
	}
	rows, err := e.statsByExamAndPhysician(f, valueExpr)
	if err != nil {
		e.logger.Error(what+" query failed", zap.Error(err))
		return nil, false
	}
	return rows, true
}

// statsBy computes mean/min/max/count of valueExpr grouped by one column.
// Groups with no rows simply do not exist in a GROUP BY result, so empty
// groups are never emitted.
func (e *Engine) statsBy(f models.Filter, valueExpr, groupCol string) ([]models.AggregationRow, error) {
	if e.db == nil {
		return nil, nil
	}
	where, params := store.BuildWhere(f)
	query := fmt.Sprintf(
		"SELECT %[1]s, AVG(%[2]s) AS mean, MIN(%[2]s) AS low, MAX(%[2]s) AS high, COUNT(*) AS n%[3]s GROUP BY %[1]s ORDER BY mean DESC",
		groupCol, valueExpr, where)

	rows, err := e.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("grouped stats by %s: %w", groupCol, err)
	}
	defer rows.Close()

	var out []models.AggregationRow
	for rows.Next() {
		var r models.AggregationRow
		if err := rows.Scan(&r.Key, &r.Mean, &r.Min, &r.Max, &r.Count); err != nil {
			return nil, fmt.Errorf("scan grouped stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// statsByExamAndPhysician is the two-key variant: rows are ordered by exam,
// physicians vary within each exam.
func (e *Engine) statsByExamAndPhysician(f models.Filter, valueExpr string) ([]models.AggregationRow, error) {
	if e.db == nil {
		return nil, nil
	}
	where, params := store.BuildWhere(f)
	query := fmt.Sprintf(
		"SELECT exam_label, physician_id, AVG(%[1]s) AS mean, MIN(%[1]s) AS low, MAX(%[1]s) AS high, COUNT(*) AS n%[2]s GROUP BY exam_label, physician_id ORDER BY exam_label",
		valueExpr, where)

	rows, err := e.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("grouped stats by exam and physician: %w", err)
	}
	defer rows.Close()

	var out []models.AggregationRow
	for rows.Next() {
		var r models.AggregationRow
		if err := rows.Scan(&r.Key, &r.SubKey, &r.Mean, &r.Min, &r.Max, &r.Count); err != nil {
			return nil, fmt.Errorf("scan grouped stats: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (e *Engine) dailyCounts(f models.Filter, multi bool) ([]models.TimeSeriesPoint, error) {
	if e.db == nil {
		return nil, nil
	}
	where, params := store.BuildWhere(f)

	query := "SELECT date, COUNT(*)" + where + " GROUP BY date ORDER BY date"
	if multi {
		query = "SELECT date, physician_id, COUNT(*)" + where + " GROUP BY date, physician_id ORDER BY date"
	}

	rows, err := e.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	var out []models.TimeSeriesPoint
	for rows.Next() {
		var p models.TimeSeriesPoint
		if multi {
			err = rows.Scan(&p.Date, &p.Physician, &p.Count)
		} else {
			err = rows.Scan(&p.Date, &p.Count)
		}
		if err != nil {
			return nil, fmt.Errorf("scan daily counts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
