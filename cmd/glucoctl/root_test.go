package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Skufu/GlucoRisk/internal/advice"
	"github.com/Skufu/GlucoRisk/internal/store"
)

// run executes the CLI in-process. Flags are reset to their defaults first
// because cobra keeps flag values on the package-level commands.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd, args)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command, args []string) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		sv, ok := f.Value.(pflag.SliceValue)
		if !ok {
			_ = f.Value.Set(f.DefValue)
			return
		}
		// Once set, a slice flag appends on every later Set and Replace does not
		// undo that. Empty it when the coming run passes the flag, otherwise
		// restore the default.
		if passesFlag(args, f.Name) {
			_ = sv.Replace(nil)
			return
		}
		var def []string
		if trimmed := strings.Trim(f.DefValue, "[]"); trimmed != "" {
			def = strings.Split(trimmed, ",")
		}
		_ = sv.Replace(def)
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c, args)
	}
}

func passesFlag(args []string, name string) bool {
	for _, a := range args {
		if a == "--"+name || strings.HasPrefix(a, "--"+name+"=") {
			return true
		}
	}
	return false
}

func seededDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := store.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, rec := range []store.ClinicalRecord{
		{ClinicalFeatures: advice.ClinicalFeatures{Glucose: 95, BMI: 22, Age: 30}, Prediction: 0, RiskPercentage: 12.5, Status: "NON-DIABETIC (Low Risk - 87.5% confidence)"},
		{ClinicalFeatures: advice.ClinicalFeatures{Glucose: 180, BMI: 33, Age: 55}, Prediction: 1, RiskPercentage: 88, Status: "DIABETIC (High Risk - 88.0% probability)"},
	} {
		rec := rec
		if err := s.SaveClinical(ctx, &rec); err != nil {
			t.Fatalf("save clinical: %v", err)
		}
	}
	life := store.LifestyleRecord{
		LifestyleFeatures: advice.LifestyleFeatures{HighBP: true, Smoker: true, BMI: 31, GeneralHealth: 4},
		Prediction:        1,
		RiskClass:         "Pre-diabetic",
		Status:            "PRE-DIABETIC (Moderate Risk - 55.0% Match)",
	}
	if err := s.SaveLifestyle(ctx, &life); err != nil {
		t.Fatalf("save lifestyle: %v", err)
	}
	return path
}

func TestAssessClinical_ElevatedOverride(t *testing.T) {
	out, err := run(t, "assess", "clinical", "--glucose", "130", "--bmi", "22", "--bp", "70", "--age", "30", "--class", "0", "--prob", "10")
	if err != nil {
		t.Fatalf("assess clinical: %v\n%s", err, out)
	}
	for _, want := range []string{
		"PRE-DIABETIC (Elevated Glucose)",
		string(advice.TierPreDiabeticOverride),
		"Elevated Glucose (130 mg/dL)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAssessClinical_RejectsUnknownClass(t *testing.T) {
	if _, err := run(t, "assess", "clinical", "--class", "2"); err == nil {
		t.Fatal("expected error for class 2")
	}
}

func TestAssessLifestyle_Precautions(t *testing.T) {
	out, err := run(t, "assess", "lifestyle", "--high-bp", "--bmi", "22", "--class", "0", "--probs", "80,15,5")
	if err != nil {
		t.Fatalf("assess lifestyle: %v\n%s", err, out)
	}
	if !strings.Contains(out, "HEALTHY (Low Risk - 80.0% Match)") {
		t.Errorf("unexpected status:\n%s", out)
	}
	if !strings.Contains(out, "Hypertension:") {
		t.Errorf("expected blood pressure reason:\n%s", out)
	}
}

func TestAssessLifestyle_RepeatedRuns(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"--class", "2", "--probs", "10,20,70"}, "DIABETIC (High Risk - 70.0% Match)"},
		{[]string{"--class", "1", "--probs", "30,60,10"}, "PRE-DIABETIC (Moderate Risk - 60.0% Match)"},
		{[]string{"--class", "0"}, "HEALTHY (Low Risk - 100.0% Match)"},
		{[]string{"--class", "0", "--probs=55,40,5"}, "HEALTHY (Low Risk - 55.0% Match)"},
	} {
		out, err := run(t, append([]string{"assess", "lifestyle"}, tc.args...)...)
		if err != nil {
			t.Fatalf("%v: %v\n%s", tc.args, err, out)
		}
		if !strings.Contains(out, tc.want) {
			t.Errorf("%v: expected %q in:\n%s", tc.args, tc.want, out)
		}
	}
}

func TestRecords(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "records", "clinical", "--db", db, "--limit", "0")
	if err != nil {
		t.Fatalf("records: %v\n%s", err, out)
	}
	if !strings.Contains(out, "DIABETIC (High Risk - 88.0% probability)") || !strings.Contains(out, "NON-DIABETIC") {
		t.Errorf("expected both clinical rows:\n%s", out)
	}

	out, err = run(t, "records", "clinical", "--db", db, "--prediction", "1")
	if err != nil {
		t.Fatalf("records filtered: %v\n%s", err, out)
	}
	if strings.Contains(out, "NON-DIABETIC") {
		t.Errorf("filter leaked class 0 row:\n%s", out)
	}

	out, err = run(t, "records", "lifestyle", "--db", db, "--markdown")
	if err != nil {
		t.Fatalf("records lifestyle: %v\n%s", err, out)
	}
	if !strings.Contains(out, "| Pre-diabetic |") {
		t.Errorf("expected markdown row:\n%s", out)
	}
}

func TestRecords_SearchAndCSV(t *testing.T) {
	db := seededDB(t)

	out, err := run(t, "records", "clinical", "--db", db, "--min-glucose", "150", "--csv")
	if err != nil {
		t.Fatalf("records csv: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "id,ref,created_at") || !strings.Contains(lines[1], ",180,") {
		t.Fatalf("unexpected csv:\n%s", out)
	}

	out, err = run(t, "records", "lifestyle", "--db", db, "--risk-class", "healthy")
	if err != nil {
		t.Fatalf("records risk class: %v\n%s", err, out)
	}
	if strings.Contains(out, "Pre-diabetic") {
		t.Errorf("risk class filter leaked row:\n%s", out)
	}

	out, err = run(t, "records", "lifestyle", "--db", db, "--min-bmi", "30", "--csv")
	if err != nil {
		t.Fatalf("records min bmi: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Pre-diabetic") {
		t.Errorf("expected lifestyle row with bmi 31:\n%s", out)
	}

	if _, err := run(t, "records", "lifestyle", "--db", db, "--min-glucose", "100"); err == nil {
		t.Fatal("expected error for glucose filter on lifestyle records")
	}
}

func TestRecords_UnknownKind(t *testing.T) {
	db := seededDB(t)
	if _, err := run(t, "records", "dental", "--db", db); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestStats(t *testing.T) {
	db := seededDB(t)
	out, err := run(t, "stats", "--db", db)
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, out)
	}
	for _, want := range []string{"Clinical", "Lifestyle", "High Blood Pressure", "youngest 30, oldest 55"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestThresholds(t *testing.T) {
	out, err := run(t, "thresholds")
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	if !strings.Contains(out, "glucose_diabetic: 126") {
		t.Errorf("expected default table:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("glucose_diabetic: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "thresholds", "--thresholds", path)
	if err != nil {
		t.Fatalf("thresholds override: %v", err)
	}
	if !strings.Contains(out, "glucose_diabetic: 120") || !strings.Contains(out, "bmi_high: 30") {
		t.Errorf("expected merged table:\n%s", out)
	}
}
