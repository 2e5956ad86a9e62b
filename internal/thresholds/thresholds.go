// Package thresholds holds the severity boundaries shared by the advice engines.
package thresholds

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a threshold table is internally inconsistent.
var ErrInvalid = errors.New("invalid thresholds")

// Level is a qualitative severity bucket for a single measurement.
type Level int

const (
	Normal Level = iota
	Elevated
	High
)

func (l Level) String() string {
	switch l {
	case Elevated:
		return "elevated"
	case High:
		return "high"
	default:
		return "normal"
	}
}

// Thresholds is the full tier table. Treat values as immutable once handed to an engine.
type Thresholds struct {
	// Glucose in mg/dL. Reasons: > Elevated, >= High. Overrides: >= Elevated, >= Diabetic.
	GlucoseElevated float64 `yaml:"glucose_elevated"`
	GlucoseDiabetic float64 `yaml:"glucose_diabetic"`
	GlucoseHigh     float64 `yaml:"glucose_high"`

	BMIElevated float64 `yaml:"bmi_elevated"`
	BMIHigh     float64 `yaml:"bmi_high"`

	// Diastolic, mmHg.
	BloodPressureHigh float64 `yaml:"blood_pressure_high"`
	AgeElevated       int     `yaml:"age_elevated"`
	// Self-reported 1 (excellent) .. 5 (poor).
	GeneralHealthPoor int `yaml:"general_health_poor"`
}

// Default returns the standard table.
func Default() Thresholds {
	return Thresholds{
		GlucoseElevated:   100,
		GlucoseDiabetic:   126,
		GlucoseHigh:       140,
		BMIElevated:       25,
		BMIHigh:           30,
		BloodPressureHigh: 80,
		AgeElevated:       45,
		GeneralHealthPoor: 4,
	}
}

// Validate checks that every boundary is positive and the tiers are ordered.
func (t Thresholds) Validate() error {
	switch {
	case t.GlucoseElevated <= 0 || t.BMIElevated <= 0 || t.BloodPressureHigh <= 0 || t.AgeElevated <= 0:
		return fmt.Errorf("%w: boundaries must be positive", ErrInvalid)
	case t.GlucoseElevated >= t.GlucoseDiabetic:
		return fmt.Errorf("%w: glucose_elevated (%g) must be below glucose_diabetic (%g)", ErrInvalid, t.GlucoseElevated, t.GlucoseDiabetic)
	case t.GlucoseDiabetic > t.GlucoseHigh:
		return fmt.Errorf("%w: glucose_diabetic (%g) must not exceed glucose_high (%g)", ErrInvalid, t.GlucoseDiabetic, t.GlucoseHigh)
	case t.BMIElevated >= t.BMIHigh:
		return fmt.Errorf("%w: bmi_elevated (%g) must be below bmi_high (%g)", ErrInvalid, t.BMIElevated, t.BMIHigh)
	case t.GeneralHealthPoor < 1 || t.GeneralHealthPoor > 5:
		return fmt.Errorf("%w: general_health_poor must be within 1..5, got %d", ErrInvalid, t.GeneralHealthPoor)
	}
	return nil
}

// Load reads a YAML table from path. Keys missing from the file keep their default value.
func Load(path string) (Thresholds, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML table on top of Default and validates the result.
func Parse(raw []byte) (Thresholds, error) {
	t := Default()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Thresholds{}, fmt.Errorf("decode thresholds: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Marshal renders the table as YAML.
func (t Thresholds) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// GlucoseReading grades glucose for explanations. The higher tier wins and is inclusive.
func (t Thresholds) GlucoseReading(glucose float64) Level {
	switch {
	case glucose >= t.GlucoseHigh:
		return High
	case glucose > t.GlucoseElevated:
		return Elevated
	default:
		return Normal
	}
}

// GlucoseOverride grades glucose for the override path: High means diabetic range,
// Elevated means pre-diabetic range.
func (t Thresholds) GlucoseOverride(glucose float64) Level {
	switch {
	case glucose >= t.GlucoseDiabetic:
		return High
	case glucose >= t.GlucoseElevated:
		return Elevated
	default:
		return Normal
	}
}

func (t Thresholds) BMI(bmi float64) Level {
	switch {
	case bmi > t.BMIHigh:
		return High
	case bmi > t.BMIElevated:
		return Elevated
	default:
		return Normal
	}
}

func (t Thresholds) HighBloodPressure(diastolic float64) bool {
	return diastolic > t.BloodPressureHigh
}

func (t Thresholds) ElevatedAge(age int) bool {
	return age > t.AgeElevated
}

func (t Thresholds) PoorGeneralHealth(score int) bool {
	return score >= t.GeneralHealthPoor
}
