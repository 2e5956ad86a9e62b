package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Skufu/GlucoRisk/internal/advice"
)

func TestSearchFilters(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	low := saveClinical(t, s, 95, 30, 0)
	saveClinical(t, s, 130, 40, 0)
	high := saveClinical(t, s, 185, 60, 1)

	saveLifestyle(t, s, advice.LifestyleFeatures{BMI: 22}, advice.LifestyleHealthy)
	saveLifestyle(t, s, advice.LifestyleFeatures{BMI: 34}, advice.LifestyleDiabetic)
	saveLifestyle(t, s, advice.LifestyleFeatures{BMI: 28}, advice.LifestylePreDiabetic)

	ids := func(rows []ClinicalRecord) []int64 {
		var out []int64
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"min glucose inclusive", Filter{MinGlucose: 130}, 2},
		{"min glucose above all", Filter{MinGlucose: 200}, 0},
		{"by id", Filter{ID: low.ID}, 1},
		{"id and prediction disagree", Filter{ID: low.ID, Prediction: ptr(1)}, 0},
		{"min glucose with limit", Filter{MinGlucose: 100, Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ClinicalRecords(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d rows, got %v", tt.want, ids(got))
			}
		})
	}

	newest, _ := s.ClinicalRecords(ctx, Filter{MinGlucose: 100, Limit: 1})
	if newest[0].ID != high.ID {
		t.Fatalf("expected newest matching row %d, got %d", high.ID, newest[0].ID)
	}

	heavy, err := s.LifestyleRecords(ctx, Filter{MinBMI: 28})
	if err != nil {
		t.Fatalf("list lifestyle: %v", err)
	}
	if len(heavy) != 2 {
		t.Fatalf("expected 2 rows with bmi >= 28, got %d", len(heavy))
	}

	pre, err := s.LifestyleRecords(ctx, Filter{RiskClass: "pre-diabetic"})
	if err != nil {
		t.Fatalf("list lifestyle: %v", err)
	}
	if len(pre) != 1 || pre[0].RiskClass != "Pre-diabetic" {
		t.Fatalf("risk class match should ignore case, got %+v", pre)
	}
}

func TestSearchFiltersRejectWrongKind(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	if _, err := s.LifestyleRecords(ctx, Filter{MinGlucose: 100}); !errors.Is(err, ErrUnsupportedFilter) {
		t.Fatalf("expected ErrUnsupportedFilter for lifestyle glucose, got %v", err)
	}
	if _, err := s.ClinicalRecords(ctx, Filter{RiskClass: "Healthy"}); !errors.Is(err, ErrUnsupportedFilter) {
		t.Fatalf("expected ErrUnsupportedFilter for clinical risk class, got %v", err)
	}
}

func TestDailyCounts(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	saveClinical(t, s, 100, 30, 0)
	saveClinical(t, s, 110, 31, 0)
	saveLifestyle(t, s, advice.LifestyleFeatures{BMI: 22}, advice.LifestyleHealthy)

	// A row from well outside the window.
	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO clinical_predictions
		(ref, created_at, pregnancies, glucose, blood_pressure, skin_thickness, insulin, bmi,
		 diabetes_pedigree, age, prediction, risk_percentage, status)
		VALUES ('old', ?, 0, 90, 70, 20, 80, 22, 0.3, 30, 0, 10, 'status')`, old); err != nil {
		t.Fatalf("insert old row: %v", err)
	}

	days, err := s.DailyCounts(ctx, KindClinical, 7)
	if err != nil {
		t.Fatalf("daily counts: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	today := time.Now().UTC().Format(time.DateOnly)
	if days[6].Day != today || days[6].Count != 2 {
		t.Fatalf("expected 2 assessments today, got %+v", days[6])
	}
	var total int64
	for _, d := range days {
		total += d.Count
	}
	if total != 2 {
		t.Fatalf("old row leaked into the window: %+v", days)
	}

	life, err := s.DailyCounts(ctx, KindLifestyle, 1)
	if err != nil {
		t.Fatalf("daily counts lifestyle: %v", err)
	}
	if diff := cmp.Diff([]DailyCount{{Day: today, Count: 1}}, life); diff != "" {
		t.Fatalf("lifestyle trend mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.DailyCounts(ctx, KindClinical, 0); err == nil {
		t.Fatal("expected error for zero days")
	}
	if _, err := s.DailyCounts(ctx, Kind("users"), 7); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	saveClinical(t, s, 142.5, 51, 1)
	saveLifestyle(t, s, advice.LifestyleFeatures{HighBP: true, BMI: 31.2, Fruits: true, GeneralHealth: 4}, advice.LifestyleDiabetic)

	clinical, _ := s.ClinicalRecords(ctx, Filter{})
	var buf bytes.Buffer
	if err := WriteClinicalCSV(&buf, clinical); err != nil {
		t.Fatalf("write clinical csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 || len(rows[1]) != len(clinicalCSVHeader) {
		t.Fatalf("unexpected clinical csv %v", rows)
	}
	if rows[1][4] != "142.5" || rows[1][10] != "51" || rows[1][11] != "1" {
		t.Fatalf("unexpected clinical row %v", rows[1])
	}

	lifestyle, _ := s.LifestyleRecords(ctx, Filter{})
	lifestyle[0].Status = `DIABETIC (High Risk - 70.0% Match), "review"`
	buf.Reset()
	if err := WriteLifestyleCSV(&buf, lifestyle); err != nil {
		t.Fatalf("write lifestyle csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,ref,created_at,high_bp") {
		t.Fatalf("missing header: %q", buf.String())
	}
	rows, err = csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := []string{"1", "0", "31.2", "0", "0", "1", "0", "0", "4", "0", "2", "Diabetic", `DIABETIC (High Risk - 70.0% Match), "review"`}
	if diff := cmp.Diff(want, rows[1][3:]); diff != "" {
		t.Fatalf("lifestyle row mismatch (-want +got):\n%s", diff)
	}
}

func ptr(v int) *int { return &v }
