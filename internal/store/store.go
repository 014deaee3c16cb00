// Package store persists exam dose records in Postgres and compiles filter
// predicates for the reporting queries.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

// ErrNotConfigured is returned by write operations when no database is
// attached. Read operations return empty results instead.
var ErrNotConfigured = errors.New("record store not configured")

// ErrNotFound marks a lookup, update or delete that matched no exam.
var ErrNotFound = errors.New("exam not found")

const examColumns = "id, date, physician_id, exam_label, dose_mgy, duration, dap, patient_id, sex, room"

// ExamStore is the record store. It holds no state beyond the connection
// pool; every call stands alone.
type ExamStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a store over db. A nil db is a valid "not configured" store.
func New(db *sql.DB, logger *zap.Logger) *ExamStore {
	return &ExamStore{db: db, logger: logger}
}

// Init creates the exams table, the registry tables and the query indexes.
func (s *ExamStore) Init() error {
	if s.db == nil {
		return ErrNotConfigured
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exams (
			id SERIAL PRIMARY KEY,
			date TEXT,
			physician_id TEXT,
			exam_label TEXT,
			dose_mgy TEXT,
			duration TEXT,
			dap TEXT,
			patient_id TEXT,
			sex TEXT,
			room TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS exam_types (name TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS equipment_types (name TEXT PRIMARY KEY)`,
		`CREATE INDEX IF NOT EXISTS idx_exams_date ON exams(date)`,
		`CREATE INDEX IF NOT EXISTS idx_exams_physician ON exams(physician_id)`,
		`CREATE INDEX IF NOT EXISTS idx_exams_exam ON exams(exam_label)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
	}
	return nil
}

// InsertExam stores one record and returns its id. The insert carries all
// nine fields or fails as a whole.
func (s *ExamStore) InsertExam(rec models.ExamRecord) (int64, error) {
	if s.db == nil {
		return 0, ErrNotConfigured
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO exams (date, physician_id, exam_label, dose_mgy, duration, dap, patient_id, sex, room)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		rec.Date, rec.PhysicianID, rec.ExamLabel,
		models.FormatDecimal(rec.DoseMGy), rec.Duration, models.FormatDecimal(rec.DAP),
		rec.PatientID, string(rec.Sex), rec.Room,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert exam: %w", err)
	}
	return id, nil
}

// GetExam fetches one record by id.
func (s *ExamStore) GetExam(id int64) (*models.ExamRecord, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}
	row := s.db.QueryRow("SELECT "+examColumns+" FROM exams WHERE id = $1", id)
	rec, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam %d: %w", id, err)
	}
	return rec, nil
}

// UpdateExam rewrites every field of an existing record.
func (s *ExamStore) UpdateExam(id int64, rec models.ExamRecord) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	res, err := s.db.Exec(
		`UPDATE exams SET date=$1, physician_id=$2, exam_label=$3, dose_mgy=$4,
		 duration=$5, dap=$6, patient_id=$7, sex=$8, room=$9 WHERE id=$10`,
		rec.Date, rec.PhysicianID, rec.ExamLabel,
		models.FormatDecimal(rec.DoseMGy), rec.Duration, models.FormatDecimal(rec.DAP),
		rec.PatientID, string(rec.Sex), rec.Room, id,
	)
	if err != nil {
		return fmt.Errorf("update exam %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExam removes one record by id.
func (s *ExamStore) DeleteExam(id int64) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	res, err := s.db.Exec("DELETE FROM exams WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete exam %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExams returns one page of records matching the filter, newest first,
// along with the total match count. An unconfigured store lists nothing.
func (s *ExamStore) ListExams(f models.Filter, limit, offset int) ([]models.ExamRecord, int, error) {
	if s.db == nil {
		return nil, 0, nil
	}
	where, params := BuildWhere(f)

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*)"+where, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	query := fmt.Sprintf("SELECT %s%s ORDER BY date DESC LIMIT $%d OFFSET $%d",
		examColumns, where, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var recs []models.ExamRecord
	for rows.Next() {
		rec, serr := scanExam(rows)
		if serr != nil {
			return nil, 0, fmt.Errorf("scan exam: %w", serr)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}
	return recs, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanExam reads one exams row, parsing the text dose columns into numbers
// at the store boundary.
func scanExam(r rowScanner) (*models.ExamRecord, error) {
	var (
		rec       models.ExamRecord
		dose, dap string
		sex       string
	)
	if err := r.Scan(&rec.ID, &rec.Date, &rec.PhysicianID, &rec.ExamLabel,
		&dose, &rec.Duration, &dap, &rec.PatientID, &sex, &rec.Room); err != nil {
		return nil, err
	}
	rec.Sex = models.ParseSex(sex)
	if v, err := models.ParseDecimal(dose); err == nil {
		rec.DoseMGy = v
	}
	if v, err := models.ParseDecimal(dap); err == nil {
		rec.DAP = v
	}
	return &rec, nil
}

// ExamTypes lists the registered exam type names.
func (s *ExamStore) ExamTypes() ([]string, error) {
	return s.listNames("exam_types")
}

// AddExamType registers an exam type name. Names are stored uppercase.
func (s *ExamStore) AddExamType(name string) error {
	return s.addName("exam_types", strings.ToUpper(strings.TrimSpace(name)))
}

// RemoveExamType removes a registered exam type.
func (s *ExamStore) RemoveExamType(name string) error {
	return s.removeName("exam_types", strings.ToUpper(strings.TrimSpace(name)))
}

// EquipmentTypes lists the registered equipment names.
func (s *ExamStore) EquipmentTypes() ([]string, error) {
	return s.listNames("equipment_types")
}

// AddEquipmentType registers an equipment name.
func (s *ExamStore) AddEquipmentType(name string) error {
	return s.addName("equipment_types", strings.TrimSpace(name))
}

// RemoveEquipmentType removes a registered equipment name.
func (s *ExamStore) RemoveEquipmentType(name string) error {
	return s.removeName("equipment_types", strings.TrimSpace(name))
}

func (s *ExamStore) listNames(table string) ([]string, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT name FROM %s ORDER BY name", table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *ExamStore) addName(table, name string) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	if name == "" {
		return fmt.Errorf("add to %s: empty name", table)
	}
	if _, err := s.db.Exec(fmt.Sprintf("INSERT INTO %s (name) VALUES ($1)", table), name); err != nil {
		return fmt.Errorf("add to %s: %w", table, err)
	}
	return nil
}

func (s *ExamStore) removeName(table, name string) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE name = $1", table), name); err != nil {
		return fmt.Errorf("remove from %s: %w", table, err)
	}
	return nil
}
