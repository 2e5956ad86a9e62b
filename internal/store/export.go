package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var clinicalCSVHeader = []string{
	"id", "ref", "created_at", "pregnancies", "glucose", "blood_pressure", "skin_thickness",
	"insulin", "bmi", "diabetes_pedigree", "age", "prediction", "risk_percentage", "status",
}

var lifestyleCSVHeader = []string{
	"id", "ref", "created_at", "high_bp", "high_chol", "bmi", "smoker", "physical_activity",
	"fruits", "vegetables", "heavy_alcohol", "general_health", "mental_health", "prediction",
	"risk_class", "status",
}

// WriteClinicalCSV writes rows with a header line, using the table's column names.
func WriteClinicalCSV(w io.Writer, rows []ClinicalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(clinicalCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10), r.Ref, r.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(r.Pregnancies), num(r.Glucose), num(r.BloodPressure), num(r.SkinThickness),
			num(r.Insulin), num(r.BMI), num(r.Pedigree), strconv.Itoa(r.Age),
			strconv.Itoa(r.Prediction), num(r.RiskPercentage), r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLifestyleCSV writes rows with a header line. Flags are written as 0/1.
func WriteLifestyleCSV(w io.Writer, rows []LifestyleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(lifestyleCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10), r.Ref, r.CreatedAt.Format(time.RFC3339),
			flag(r.HighBP), flag(r.HighChol), num(r.BMI), flag(r.Smoker), flag(r.PhysicalActivity),
			flag(r.Fruits), flag(r.Vegetables), flag(r.HeavyAlcohol), strconv.Itoa(r.GeneralHealth),
			strconv.Itoa(r.MentalHealthDays), strconv.Itoa(r.Prediction), r.RiskClass, r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flag(b bool) string {
	return strconv.Itoa(bit(b))
}
