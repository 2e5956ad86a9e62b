package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skufu/GlucoRisk/internal/store"
)

var recordsFlags struct {
	limit      int
	prediction int
	id         int64
	minGlucose float64
	minBMI     float64
	riskClass  string
	csv        bool
}

var recordsCmd = &cobra.Command{
	Use:       "records <clinical|lifestyle>",
	Short:     "List stored assessments, newest first",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(store.KindClinical), string(store.KindLifestyle)},
	RunE:      runRecords,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show screening totals and lifestyle risk factor frequency",
	RunE:  runStats,
}

func init() {
	recordsCmd.Flags().IntVar(&recordsFlags.limit, "limit", 5, "Number of records (0 for all)")
	recordsCmd.Flags().IntVar(&recordsFlags.prediction, "prediction", -1, "Only rows with this model class (-1 for any)")
	recordsCmd.Flags().Int64Var(&recordsFlags.id, "id", 0, "Only the row with this ID")
	recordsCmd.Flags().Float64Var(&recordsFlags.minGlucose, "min-glucose", 0, "Clinical rows with glucose at or above this value")
	recordsCmd.Flags().Float64Var(&recordsFlags.minBMI, "min-bmi", 0, "Rows with BMI at or above this value")
	recordsCmd.Flags().StringVar(&recordsFlags.riskClass, "risk-class", "", "Lifestyle rows with this risk class (Healthy, Pre-diabetic, Diabetic)")
	recordsCmd.Flags().BoolVar(&recordsFlags.csv, "csv", false, "Write CSV instead of a table")
}

func runRecords(cmd *cobra.Command, args []string) error {
	kind, err := store.ParseKind(args[0])
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	filter := store.Filter{
		Limit:      recordsFlags.limit,
		ID:         recordsFlags.id,
		MinGlucose: recordsFlags.minGlucose,
		MinBMI:     recordsFlags.minBMI,
		RiskClass:  recordsFlags.riskClass,
	}
	if recordsFlags.prediction >= 0 {
		p := recordsFlags.prediction
		filter.Prediction = &p
	}
	out := cmd.OutOrStdout()

	if kind == store.KindLifestyle {
		rows, err := s.LifestyleRecords(ctx, filter)
		if err != nil {
			return err
		}
		if recordsFlags.csv {
			return store.WriteLifestyleCSV(out, rows)
		}
		t := newTable("ID", "When", "BMI", "Risk Class", "Status")
		for _, r := range rows {
			t.AppendRow([]any{r.ID, r.CreatedAt.Local().Format(time.DateTime), r.BMI, r.RiskClass, r.Status})
		}
		fmt.Fprintln(out, render(t))
		return nil
	}

	rows, err := s.ClinicalRecords(ctx, filter)
	if err != nil {
		return err
	}
	if recordsFlags.csv {
		return store.WriteClinicalCSV(out, rows)
	}
	t := newTable("ID", "When", "Glucose", "BMI", "Age", "Risk %", "Status")
	for _, r := range rows {
		t.AppendRow([]any{r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Glucose, r.BMI, r.Age, r.RiskPercentage, r.Status})
	}
	fmt.Fprintln(out, render(t))
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	st, err := s.Statistics(ctx)
	if err != nil {
		return err
	}
	rf, err := s.RiskFactorCounts(ctx)
	if err != nil {
		return err
	}
	ages, err := s.ClinicalAgeSummary(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	t := newTable("Assessment", "Total", "Healthy", "Pre-diabetic", "Diabetic")
	t.AppendRow([]any{"Clinical", st.TotalClinical, st.NonDiabeticClinical, "-", st.DiabeticClinical})
	t.AppendRow([]any{"Lifestyle", st.TotalLifestyle, st.HealthyLifestyle, st.PreDiabeticLifestyle, st.DiabeticLifestyle})
	t.AppendFooter([]any{"All", st.TotalScreenings, st.Healthy, "", st.HighRisk})
	fmt.Fprintln(out, render(t))

	f := newTable("Risk Factor", "Count")
	f.AppendRow([]any{"High Blood Pressure", rf.HighBloodPressure})
	f.AppendRow([]any{"High Cholesterol", rf.HighCholesterol})
	f.AppendRow([]any{"Smoker", rf.Smoker})
	f.AppendRow([]any{"Heavy Alcohol", rf.HeavyAlcohol})
	f.AppendRow([]any{"Low Physical Activity", rf.LowPhysicalActivity})
	f.AppendRow([]any{"No Daily Fruits", rf.NoDailyFruits})
	f.AppendRow([]any{"No Daily Vegetables", rf.NoDailyVegetables})
	fmt.Fprintln(out, render(f))

	fmt.Fprintf(out, "Clinical ages: avg %.1f, youngest %d, oldest %d\n", ages.Average, ages.Youngest, ages.Oldest)
	return nil
}
