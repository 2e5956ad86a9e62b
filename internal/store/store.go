// Package store persists completed assessments, one row per submission.
// SQLite is the default for a local install; Postgres is supported through pgx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Skufu/GlucoRisk/internal/advice"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownKind       = errors.New("unknown record kind")
	ErrUnsupportedFilter = errors.New("filter does not apply to this record kind")
)

// Kind names one of the two assessment tables.
type Kind string

const (
	KindClinical  Kind = "clinical"
	KindLifestyle Kind = "lifestyle"
)

// ParseKind maps a user supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClinical, KindLifestyle:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) table() string {
	if k == KindLifestyle {
		return "lifestyle_predictions"
	}
	return "clinical_predictions"
}

type dialect struct {
	driver  string
	idType  string
	numType string
	dollar  bool
}

var dialects = map[string]dialect{
	"sqlite":   {driver: "sqlite", idType: "INTEGER PRIMARY KEY AUTOINCREMENT", numType: "REAL"},
	"postgres": {driver: "pgx", idType: "BIGSERIAL PRIMARY KEY", numType: "DOUBLE PRECISION", dollar: true},
}

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS clinical_predictions (
	id                {{id}},
	ref               TEXT NOT NULL UNIQUE,
	created_at        TEXT NOT NULL,
	pregnancies       INTEGER NOT NULL,
	glucose           {{num}} NOT NULL,
	blood_pressure    {{num}} NOT NULL,
	skin_thickness    {{num}} NOT NULL,
	insulin           {{num}} NOT NULL,
	bmi               {{num}} NOT NULL,
	diabetes_pedigree {{num}} NOT NULL,
	age               INTEGER NOT NULL,
	prediction        INTEGER NOT NULL,
	risk_percentage   {{num}} NOT NULL,
	status            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lifestyle_predictions (
	id                {{id}},
	ref               TEXT NOT NULL UNIQUE,
	created_at        TEXT NOT NULL,
	high_bp           INTEGER NOT NULL,
	high_chol         INTEGER NOT NULL,
	bmi               {{num}} NOT NULL,
	smoker            INTEGER NOT NULL,
	physical_activity INTEGER NOT NULL,
	fruits            INTEGER NOT NULL,
	vegetables        INTEGER NOT NULL,
	heavy_alcohol     INTEGER NOT NULL,
	general_health    INTEGER NOT NULL,
	mental_health     INTEGER NOT NULL,
	prediction        INTEGER NOT NULL,
	risk_class        TEXT NOT NULL,
	status            TEXT NOT NULL
);
`

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
	d  dialect
}

// Open connects using driver ("sqlite" or "postgres") and creates missing tables.
func Open(driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if d.driver == "sqlite" {
		// A single writer avoids SQLITE_BUSY under concurrent submissions.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	schema := strings.NewReplacer("{{id}}", d.idType, "{{num}}", d.numType).Replace(schemaTemplate)
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{db: db, d: d}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; it backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if !s.d.dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ClinicalRecord is one stored clinical assessment.
type ClinicalRecord struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"createdAt"`
	advice.ClinicalFeatures
	Prediction     int     `json:"prediction"`
	RiskPercentage float64 `json:"riskPercentage"`
	Status         string  `json:"status"`
}

// LifestyleRecord is one stored lifestyle assessment.
type LifestyleRecord struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"createdAt"`
	advice.LifestyleFeatures
	Prediction int    `json:"prediction"`
	RiskClass  string `json:"riskClass"`
	Status     string `json:"status"`
}

// Filter narrows a record listing. Zero values mean no restriction.
// MinGlucose applies to clinical rows only, RiskClass to lifestyle rows only.
type Filter struct {
	Limit      int
	ID         int64
	Prediction *int
	MinGlucose float64
	MinBMI     float64
	RiskClass  string
}

func (f Filter) clause(k Kind) (string, []any, error) {
	var conds []string
	var args []any
	if f.ID > 0 {
		conds = append(conds, "id = ?")
		args = append(args, f.ID)
	}
	if f.Prediction != nil {
		conds = append(conds, "prediction = ?")
		args = append(args, *f.Prediction)
	}
	if f.MinGlucose > 0 {
		if k != KindClinical {
			return "", nil, fmt.Errorf("%w: min glucose on %s records", ErrUnsupportedFilter, k)
		}
		conds = append(conds, "glucose >= ?")
		args = append(args, f.MinGlucose)
	}
	if f.MinBMI > 0 {
		conds = append(conds, "bmi >= ?")
		args = append(args, f.MinBMI)
	}
	if f.RiskClass != "" {
		if k != KindLifestyle {
			return "", nil, fmt.Errorf("%w: risk class on %s records", ErrUnsupportedFilter, k)
		}
		conds = append(conds, "LOWER(risk_class) = LOWER(?)")
		args = append(args, f.RiskClass)
	}

	var sb strings.Builder
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	return sb.String(), args, nil
}

// SaveClinical inserts rec and fills in ID, Ref and CreatedAt.
func (s *Store) SaveClinical(ctx context.Context, rec *ClinicalRecord) error {
	rec.Ref = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	f := rec.ClinicalFeatures
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO clinical_predictions
		(ref, created_at, pregnancies, glucose, blood_pressure, skin_thickness, insulin, bmi,
		 diabetes_pedigree, age, prediction, risk_percentage, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		rec.Ref, rec.CreatedAt.Format(time.RFC3339Nano), f.Pregnancies, f.Glucose, f.BloodPressure,
		f.SkinThickness, f.Insulin, f.BMI, f.Pedigree, f.Age, rec.Prediction, rec.RiskPercentage, rec.Status,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert clinical: %w", err)
	}
	return nil
}

// SaveLifestyle inserts rec and fills in ID, Ref and CreatedAt.
func (s *Store) SaveLifestyle(ctx context.Context, rec *LifestyleRecord) error {
	rec.Ref = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	f := rec.LifestyleFeatures
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO lifestyle_predictions
		(ref, created_at, high_bp, high_chol, bmi, smoker, physical_activity, fruits, vegetables,
		 heavy_alcohol, general_health, mental_health, prediction, risk_class, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		rec.Ref, rec.CreatedAt.Format(time.RFC3339Nano), bit(f.HighBP), bit(f.HighChol), f.BMI, bit(f.Smoker),
		bit(f.PhysicalActivity), bit(f.Fruits), bit(f.Vegetables), bit(f.HeavyAlcohol), f.GeneralHealth,
		f.MentalHealthDays, rec.Prediction, rec.RiskClass, rec.Status,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert lifestyle: %w", err)
	}
	return nil
}

// ClinicalRecords lists clinical rows, newest first.
func (s *Store) ClinicalRecords(ctx context.Context, f Filter) ([]ClinicalRecord, error) {
	where, args, err := f.clause(KindClinical)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, ref, created_at, pregnancies, glucose, blood_pressure, skin_thickness, insulin, bmi,
		       diabetes_pedigree, age, prediction, risk_percentage, status
		FROM clinical_predictions`+where), args...)
	if err != nil {
		return nil, fmt.Errorf("query clinical: %w", err)
	}
	defer rows.Close()

	out := []ClinicalRecord{}
	for rows.Next() {
		var r ClinicalRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Ref, &created, &r.Pregnancies, &r.Glucose, &r.BloodPressure,
			&r.SkinThickness, &r.Insulin, &r.BMI, &r.Pedigree, &r.Age, &r.Prediction, &r.RiskPercentage, &r.Status); err != nil {
			return nil, fmt.Errorf("scan clinical: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LifestyleRecords lists lifestyle rows, newest first.
func (s *Store) LifestyleRecords(ctx context.Context, f Filter) ([]LifestyleRecord, error) {
	where, args, err := f.clause(KindLifestyle)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, ref, created_at, high_bp, high_chol, bmi, smoker, physical_activity, fruits, vegetables,
		       heavy_alcohol, general_health, mental_health, prediction, risk_class, status
		FROM lifestyle_predictions`+where), args...)
	if err != nil {
		return nil, fmt.Errorf("query lifestyle: %w", err)
	}
	defer rows.Close()

	out := []LifestyleRecord{}
	for rows.Next() {
		var r LifestyleRecord
		var created string
		var hbp, hchol, smoker, act, fruits, veg, alc int
		if err := rows.Scan(&r.ID, &r.Ref, &created, &hbp, &hchol, &r.BMI, &smoker, &act, &fruits, &veg,
			&alc, &r.GeneralHealth, &r.MentalHealthDays, &r.Prediction, &r.RiskClass, &r.Status); err != nil {
			return nil, fmt.Errorf("scan lifestyle: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		r.HighBP, r.HighChol, r.Smoker = hbp == 1, hchol == 1, smoker == 1
		r.PhysicalActivity, r.Fruits, r.Vegetables, r.HeavyAlcohol = act == 1, fruits == 1, veg == 1, alc == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes one row from the table named by kind.
func (s *Store) Delete(ctx context.Context, kind Kind, id int64) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+kind.table()+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAll empties both tables in one transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, k := range []Kind{KindClinical, KindLifestyle} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+k.table()); err != nil {
			return fmt.Errorf("clear %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
