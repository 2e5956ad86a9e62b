package advice

import (
	"fmt"
	"math"
	"slices"

	"github.com/Skufu/GlucoRisk/internal/thresholds"
)

// Engine derives verdicts against one threshold table.
type Engine struct {
	th thresholds.Thresholds
}

// New returns an engine bound to th. The table is copied.
func New(th thresholds.Thresholds) *Engine {
	return &Engine{th: th}
}

// Thresholds returns the table the engine was built with.
func (e *Engine) Thresholds() thresholds.Thresholds {
	return e.th
}

var (
	diabeticCareTips = []string{
		"Immediate Action: Consult an endocrinologist for a formal diagnostic test (HbA1c).",
		"Nutrition: Adopt a 'Diabetes Plate Method': half non-starchy vegetables, one-quarter protein, one-quarter starch.",
		"Monitoring: Start a log of your daily blood sugar levels to identify patterns.",
		"Activity: Aim for at least 30 minutes of brisk walking daily to help lower blood sugar.",
		"Medication: Discuss treatment options with your healthcare provider.",
	}
	nonDiabeticTips = []string{
		"Keep It Up: Your blood sugar levels are currently in a healthy range.",
		"Fiber: Focus on high-fiber foods to maintain steady insulin levels.",
		"Checkups: Perform a fasting glucose test annually.",
		"Weight: Maintain a healthy BMI (18.5-24.9).",
	}

	lifestyleDiabeticTips = []string{
		"Medical Consultation: You should seek professional medical advice for a diagnostic screening.",
		"Lifestyle Change: If you smoke, consider a cessation program to improve insulin sensitivity.",
		"Diet: Minimize intake of 'white' carbohydrates (white bread, white rice, sugar).",
		"Hydration: Replace all sugary drinks and sodas with water.",
		"Treatment: Discuss medication options with your healthcare provider.",
		"Monitoring: Begin tracking your blood sugar levels regularly.",
	}
	lifestylePreDiabeticTips = []string{
		"Warning: This stage is often reversible with immediate lifestyle changes!",
		"Movement: Increase physical activity. Strength training twice a week can improve glucose uptake.",
		"Diet: Double your intake of green leafy vegetables.",
		"Weight Loss: Losing even 5-7% of body weight can reduce pre-diabetes risk by 50%.",
		"Monitoring: Get your blood sugar tested every 3-6 months.",
		"Exercise: Aim for 150 minutes of moderate activity per week.",
	}
	lifestylePrecautionTips = []string{
		"Precaution: Although the model classifies you as healthy, your specific risk factors (BMI/Smoking/BP) are high.",
		"Weight: Aiming to reduce your BMI toward 24.9 will keep you in this healthy category.",
		"Smoking: Quitting now will significantly improve your long-term insulin sensitivity.",
		"Prevention: Schedule a fasting glucose test annually to ensure you remain in the healthy range.",
		"Activity: Increase daily movement to counteract high-risk factors.",
	}
	lifestyleHealthyTips = []string{
		"Keep It Up: Your lifestyle habits are currently providing strong protection.",
		"Sleep: Ensure 7-9 hours of quality sleep to maintain healthy glucose metabolism.",
		"Nutrition: Continue with a balanced diet rich in fiber and whole foods.",
		"Exercise: Maintain regular physical activity to keep your metabolism strong.",
		"Checkups: Annual health checkups are the best way to catch changes early.",
	}
)

// Clinical derives the verdict for a lab-values assessment. diabeticPct is the
// model's class-1 probability as a percentage.
//
// A negative model prediction is overridden from raw glucose alone; a positive one
// is taken as-is.
func (e *Engine) Clinical(class ClinicalClass, f ClinicalFeatures, diabeticPct float64) Verdict {
	reasons := e.clinicalReasons(f)

	var v Verdict
	if class == ClinicalDiabetic {
		v.Tier = TierDiabetic
		v.Status = fmt.Sprintf("DIABETIC (High Risk - %.1f%% probability)", diabeticPct)
		v.Tips = slices.Clone(diabeticCareTips)
		if len(reasons) == 0 {
			reasons = append(reasons, "Your clinical markers indicate a high probability of diabetes based on the model analysis.")
		}
		v.Reasons = reasons
		return v
	}

	switch e.th.GlucoseOverride(f.Glucose) {
	case thresholds.High:
		v.Tier = TierDiabeticOverride
		v.Status = "DIABETIC (High Glucose Override)"
		v.Tips = []string{
			fmt.Sprintf("CRITICAL ALERT: Your glucose is in the diabetic range (%g+ mg/dL).", e.th.GlucoseDiabetic),
			"Immediate Action: Consult a doctor for an HbA1c test immediately.",
			"Verification: Ensure this was a fasting test (no food for 8+ hours).",
			"Diet: Cut out all sugary drinks and refined sweets until you see a doctor.",
		}
	case thresholds.Elevated:
		v.Tier = TierPreDiabeticOverride
		v.Status = "PRE-DIABETIC (Elevated Glucose)"
		v.Tips = []string{
			fmt.Sprintf("PRE-DIABETIC WARNING: Your glucose (%s mg/dL) is above normal.", e.preDiabeticRange()),
			"Reversible: This stage can often be reversed with diet and exercise.",
			"Monitoring: Get a follow-up test in 3 months.",
			"Exercise: Aim for 150 minutes of activity per week.",
		}
	default:
		v.Tier = TierNonDiabetic
		v.Status = fmt.Sprintf("NON-DIABETIC (Low Risk - %.1f%% confidence)", 100-diabeticPct)
		v.Tips = slices.Clone(nonDiabeticTips)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Your clinical markers are currently within the healthy reference range.")
	}
	v.Reasons = reasons
	return v
}

// clinicalReasons evaluates glucose, BMI, blood pressure and age in that order.
func (e *Engine) clinicalReasons(f ClinicalFeatures) []string {
	var reasons []string
	switch e.th.GlucoseReading(f.Glucose) {
	case thresholds.High:
		reasons = append(reasons, fmt.Sprintf("High Glucose (%g mg/dL): Your blood sugar is elevated, which is the primary indicator of diabetes.", f.Glucose))
	case thresholds.Elevated:
		reasons = append(reasons, fmt.Sprintf("Elevated Glucose (%g mg/dL): Your blood sugar is slightly above normal range.", f.Glucose))
	}
	switch e.th.BMI(f.BMI) {
	case thresholds.High:
		reasons = append(reasons, fmt.Sprintf("High BMI (%g): Excess weight can make your body's cells more resistant to insulin.", f.BMI))
	case thresholds.Elevated:
		reasons = append(reasons, fmt.Sprintf("Elevated BMI (%g): Being overweight increases diabetes risk.", f.BMI))
	}
	if e.th.HighBloodPressure(f.BloodPressure) {
		reasons = append(reasons, fmt.Sprintf("High Blood Pressure (%g mmHg): Hypertension often coexists with diabetes and increases cardiovascular risk.", f.BloodPressure))
	}
	if e.th.ElevatedAge(f.Age) {
		reasons = append(reasons, "Age Factor: Risk naturally increases as you get older, requiring more frequent monitoring.")
	}
	return reasons
}

// Lifestyle derives the verdict for a survey assessment. pct is the model's
// distribution in percent, indexed Healthy, Pre-diabetic, Diabetic.
//
// The model's class is trusted directly. A healthy result still switches to the
// precaution tips when BMI, smoking or blood pressure puts the person at risk.
func (e *Engine) Lifestyle(class LifestyleClass, f LifestyleFeatures, pct [3]float64) Verdict {
	reasons := e.lifestyleReasons(f)

	var v Verdict
	var fallback string
	switch class {
	case LifestyleDiabetic:
		v.Tier = TierDiabetic
		v.Status = fmt.Sprintf("DIABETIC (High Risk - %.1f%% Match)", pct[2])
		v.Tips = slices.Clone(lifestyleDiabeticTips)
		fallback = "Your lifestyle factors indicate a high probability of diabetes."
	case LifestylePreDiabetic:
		v.Tier = TierPreDiabetic
		v.Status = fmt.Sprintf("PRE-DIABETIC (Moderate Risk - %.1f%% Match)", pct[1])
		v.Tips = slices.Clone(lifestylePreDiabeticTips)
		fallback = "Your lifestyle patterns suggest you're at moderate risk for developing diabetes."
	default:
		v.Tier = TierHealthy
		v.Status = fmt.Sprintf("HEALTHY (Low Risk - %.1f%% Match)", pct[0])
		if e.needsPrecaution(f) {
			v.Tips = slices.Clone(lifestylePrecautionTips)
		} else {
			v.Tips = slices.Clone(lifestyleHealthyTips)
		}
		fallback = "Your lifestyle choices suggest a low current risk for diabetes."
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fallback)
	}
	v.Reasons = reasons
	return v
}

// preDiabeticRange renders the override band, "100-125" for whole-number
// thresholds and "100 to below 120.5" otherwise.
func (e *Engine) preDiabeticRange() string {
	lo, hi := e.th.GlucoseElevated, e.th.GlucoseDiabetic
	if hi == math.Trunc(hi) {
		return fmt.Sprintf("%g-%g", lo, hi-1)
	}
	return fmt.Sprintf("%g to below %g", lo, hi)
}

func (e *Engine) needsPrecaution(f LifestyleFeatures) bool {
	return e.th.BMI(f.BMI) == thresholds.High || f.Smoker || f.HighBP
}

func (e *Engine) lifestyleReasons(f LifestyleFeatures) []string {
	var reasons []string
	if f.HighBP {
		reasons = append(reasons, "Hypertension: Your history of high blood pressure significantly raises your metabolic risk.")
	}
	if f.HighChol {
		reasons = append(reasons, "High Cholesterol: Elevated lipids can interfere with metabolic health.")
	}
	switch e.th.BMI(f.BMI) {
	case thresholds.High:
		reasons = append(reasons, fmt.Sprintf("BMI (%g): Obesity is a leading driver of Type 2 Diabetes.", f.BMI))
	case thresholds.Elevated:
		reasons = append(reasons, fmt.Sprintf("BMI (%g): Being overweight increases your risk of developing diabetes.", f.BMI))
	}
	if f.Smoker {
		reasons = append(reasons, "Smoking: Nicotine can increase blood sugar levels and lead to insulin resistance.")
	}
	if f.HeavyAlcohol {
		reasons = append(reasons, "Alcohol Consumption: Heavy drinking can cause chronic inflammation of the pancreas.")
	}
	if !f.PhysicalActivity {
		reasons = append(reasons, "Physical Inactivity: Lack of exercise increases diabetes risk.")
	}
	if !f.Fruits || !f.Vegetables {
		reasons = append(reasons, "Poor Diet: Limited fruit/vegetable intake affects metabolic health.")
	}
	if e.th.PoorGeneralHealth(f.GeneralHealth) {
		reasons = append(reasons, "General Health: Self-reported poor health correlates with higher diabetes risk.")
	}
	return reasons
}
