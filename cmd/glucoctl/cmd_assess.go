package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Skufu/GlucoRisk/internal/advice"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Derive a verdict from a known prediction without calling the model service",
}

var clinicalFlags struct {
	features advice.ClinicalFeatures
	class    int
	prob     float64
}

var assessClinicalCmd = &cobra.Command{
	Use:   "clinical",
	Short: "Verdict for lab values and a clinical model prediction",
	RunE:  runAssessClinical,
}

var lifestyleFlags struct {
	features advice.LifestyleFeatures
	class    int
	probs    []float64
}

var assessLifestyleCmd = &cobra.Command{
	Use:   "lifestyle",
	Short: "Verdict for survey answers and a lifestyle model prediction",
	RunE:  runAssessLifestyle,
}

func init() {
	c := assessClinicalCmd.Flags()
	c.IntVar(&clinicalFlags.features.Pregnancies, "pregnancies", 0, "Number of pregnancies")
	c.Float64Var(&clinicalFlags.features.Glucose, "glucose", 100, "Plasma glucose (mg/dL)")
	c.Float64Var(&clinicalFlags.features.BloodPressure, "bp", 70, "Diastolic blood pressure (mmHg)")
	c.Float64Var(&clinicalFlags.features.SkinThickness, "skin", 20, "Triceps skin fold thickness (mm)")
	c.Float64Var(&clinicalFlags.features.Insulin, "insulin", 80, "2-hour serum insulin (mu U/ml)")
	c.Float64Var(&clinicalFlags.features.BMI, "bmi", 25, "Body mass index")
	c.Float64Var(&clinicalFlags.features.Pedigree, "pedigree", 0.5, "Diabetes pedigree function")
	c.IntVar(&clinicalFlags.features.Age, "age", 30, "Age in years")
	c.IntVar(&clinicalFlags.class, "class", 0, "Model class (0 non-diabetic, 1 diabetic)")
	c.Float64Var(&clinicalFlags.prob, "prob", 0, "Diabetic probability in percent")

	l := assessLifestyleCmd.Flags()
	l.BoolVar(&lifestyleFlags.features.HighBP, "high-bp", false, "Diagnosed high blood pressure")
	l.BoolVar(&lifestyleFlags.features.HighChol, "high-chol", false, "Diagnosed high cholesterol")
	l.Float64Var(&lifestyleFlags.features.BMI, "bmi", 22, "Body mass index")
	l.BoolVar(&lifestyleFlags.features.Smoker, "smoker", false, "Smoked 100+ cigarettes")
	l.BoolVar(&lifestyleFlags.features.PhysicalActivity, "active", true, "Physical activity in the last 30 days")
	l.BoolVar(&lifestyleFlags.features.Fruits, "fruits", true, "Eats fruit daily")
	l.BoolVar(&lifestyleFlags.features.Vegetables, "vegetables", true, "Eats vegetables daily")
	l.BoolVar(&lifestyleFlags.features.HeavyAlcohol, "heavy-alcohol", false, "Heavy drinker")
	l.IntVar(&lifestyleFlags.features.GeneralHealth, "general-health", 3, "General health, 1 excellent to 5 poor")
	l.IntVar(&lifestyleFlags.features.MentalHealthDays, "mental-health-days", 0, "Days of poor mental health in the last 30")
	l.IntVar(&lifestyleFlags.class, "class", 0, "Model class (0 healthy, 1 pre-diabetic, 2 diabetic)")
	l.Float64SliceVar(&lifestyleFlags.probs, "probs", []float64{100, 0, 0}, "Class distribution in percent: healthy,pre-diabetic,diabetic")

	assessCmd.AddCommand(assessClinicalCmd)
	assessCmd.AddCommand(assessLifestyleCmd)
}

func runAssessClinical(cmd *cobra.Command, _ []string) error {
	if clinicalFlags.class != 0 && clinicalFlags.class != 1 {
		return fmt.Errorf("--class must be 0 or 1, got %d", clinicalFlags.class)
	}
	th, err := loadThresholds()
	if err != nil {
		return err
	}
	v := advice.New(th).Clinical(advice.ClinicalClass(clinicalFlags.class), clinicalFlags.features, clinicalFlags.prob)
	printVerdict(cmd.OutOrStdout(), v)
	return nil
}

func runAssessLifestyle(cmd *cobra.Command, _ []string) error {
	if len(lifestyleFlags.probs) != 3 {
		return fmt.Errorf("--probs needs 3 values, got %d", len(lifestyleFlags.probs))
	}
	th, err := loadThresholds()
	if err != nil {
		return err
	}
	var pct [3]float64
	copy(pct[:], lifestyleFlags.probs)
	v := advice.New(th).Lifestyle(advice.LifestyleClass(lifestyleFlags.class), lifestyleFlags.features, pct)
	printVerdict(cmd.OutOrStdout(), v)
	return nil
}

func printVerdict(out io.Writer, v advice.Verdict) {
	fmt.Fprintf(out, "Status:   %s\n", v.Status)
	fmt.Fprintf(out, "Tier:     %s (%s)\n", v.Tier, v.Tier.Severity())
	fmt.Fprintf(out, "Why:\n")
	for _, r := range v.Reasons {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	fmt.Fprintf(out, "Tips:\n")
	for _, t := range v.Tips {
		fmt.Fprintf(out, "  - %s\n", t)
	}
}
