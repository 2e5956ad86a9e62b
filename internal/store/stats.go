package store

import (
	"context"
	"fmt"
	"time"
)

// Statistics are the headline counts shown on the admin dashboard.
type Statistics struct {
	TotalClinical        int64 `json:"totalClinical"`
	DiabeticClinical     int64 `json:"diabeticClinical"`
	NonDiabeticClinical  int64 `json:"nonDiabeticClinical"`
	TotalLifestyle       int64 `json:"totalLifestyle"`
	DiabeticLifestyle    int64 `json:"diabeticLifestyle"`
	PreDiabeticLifestyle int64 `json:"preDiabeticLifestyle"`
	HealthyLifestyle     int64 `json:"healthyLifestyle"`

	TotalScreenings int64 `json:"totalScreenings"`
	// Diabetic from both models plus lifestyle pre-diabetic.
	HighRisk int64 `json:"highRisk"`
	Healthy  int64 `json:"healthy"`
}

// Statistics counts rows by model class. Clinical status overrides do not count
// as diabetic here; the stored prediction is the model's own class.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN prediction = 1 THEN 1 ELSE 0 END), 0)
		FROM clinical_predictions`).Scan(&st.TotalClinical, &st.DiabeticClinical)
	if err != nil {
		return Statistics{}, fmt.Errorf("clinical stats: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN prediction = 2 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN prediction = 1 THEN 1 ELSE 0 END), 0)
		FROM lifestyle_predictions`).Scan(&st.TotalLifestyle, &st.DiabeticLifestyle, &st.PreDiabeticLifestyle)
	if err != nil {
		return Statistics{}, fmt.Errorf("lifestyle stats: %w", err)
	}

	st.NonDiabeticClinical = st.TotalClinical - st.DiabeticClinical
	st.HealthyLifestyle = st.TotalLifestyle - st.DiabeticLifestyle - st.PreDiabeticLifestyle
	st.TotalScreenings = st.TotalClinical + st.TotalLifestyle
	st.HighRisk = st.DiabeticClinical + st.DiabeticLifestyle + st.PreDiabeticLifestyle
	st.Healthy = st.NonDiabeticClinical + st.HealthyLifestyle
	return st, nil
}

// RiskFactorCounts is how often each lifestyle risk factor was reported.
type RiskFactorCounts struct {
	HighBloodPressure   int64 `json:"highBloodPressure"`
	HighCholesterol     int64 `json:"highCholesterol"`
	Smoker              int64 `json:"smoker"`
	HeavyAlcohol        int64 `json:"heavyAlcohol"`
	LowPhysicalActivity int64 `json:"lowPhysicalActivity"`
	NoDailyFruits       int64 `json:"noDailyFruits"`
	NoDailyVegetables   int64 `json:"noDailyVegetables"`
}

func (s *Store) RiskFactorCounts(ctx context.Context) (RiskFactorCounts, error) {
	var rf RiskFactorCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(high_bp), 0),
		       COALESCE(SUM(high_chol), 0),
		       COALESCE(SUM(smoker), 0),
		       COALESCE(SUM(heavy_alcohol), 0),
		       COALESCE(SUM(CASE WHEN physical_activity = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN fruits = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN vegetables = 0 THEN 1 ELSE 0 END), 0)
		FROM lifestyle_predictions`).Scan(&rf.HighBloodPressure, &rf.HighCholesterol, &rf.Smoker,
		&rf.HeavyAlcohol, &rf.LowPhysicalActivity, &rf.NoDailyFruits, &rf.NoDailyVegetables)
	if err != nil {
		return RiskFactorCounts{}, fmt.Errorf("risk factor counts: %w", err)
	}
	return rf, nil
}

// AgeSummary describes the age spread of clinical submissions.
type AgeSummary struct {
	Average  float64 `json:"average"`
	Youngest int64   `json:"youngest"`
	Oldest   int64   `json:"oldest"`
}

func (s *Store) ClinicalAgeSummary(ctx context.Context) (AgeSummary, error) {
	var a AgeSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(CAST(AVG(age) AS DOUBLE PRECISION), 0), COALESCE(MIN(age), 0), COALESCE(MAX(age), 0)
		FROM clinical_predictions`).Scan(&a.Average, &a.Youngest, &a.Oldest)
	if err != nil {
		return AgeSummary{}, fmt.Errorf("age summary: %w", err)
	}
	return a, nil
}

// DailyCount is the number of assessments saved on one UTC day.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// DailyCounts returns one entry per day for the last days days, oldest first and
// ending today (UTC). Days without assessments have a zero count.
func (s *Store) DailyCounts(ctx context.Context, kind Kind, days int) ([]DailyCount, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT SUBSTR(created_at, 1, 10) AS day, COUNT(*)
		FROM `+kind.table()+`
		WHERE created_at >= ?
		GROUP BY SUBSTR(created_at, 1, 10)`), first.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("daily counts %s: %w", kind, err)
	}
	defer rows.Close()

	byDay := make(map[string]int64, days)
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		byDay[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]DailyCount, days)
	for i := range out {
		day := first.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DailyCount{Day: day, Count: byDay[day]}
	}
	return out, nil
}
