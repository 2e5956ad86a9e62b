// Package advice turns a model prediction plus the raw assessment inputs into a
// verdict: a status line, the factors that contributed to it, and recommendations.
//
// Both engines are pure. They hold no mutable state and may be called concurrently.
package advice

// Tier is the semantic outcome of an assessment. Presentation (colour, emoji) is
// keyed off the tier by the caller; Status carries only plain text.
type Tier string

const (
	TierNonDiabetic         Tier = "non_diabetic"
	TierPreDiabeticOverride Tier = "pre_diabetic_override"
	TierDiabetic            Tier = "diabetic"
	TierDiabeticOverride    Tier = "diabetic_override"

	TierHealthy     Tier = "healthy"
	TierPreDiabetic Tier = "pre_diabetic"
)

// Severity groups tiers into the three display bands: low, moderate and high.
func (t Tier) Severity() string {
	switch t {
	case TierDiabetic, TierDiabeticOverride:
		return "high"
	case TierPreDiabetic, TierPreDiabeticOverride:
		return "moderate"
	default:
		return "low"
	}
}

// Verdict is produced fresh on every call and owned by the caller.
type Verdict struct {
	Tier    Tier     `json:"tier"`
	Status  string   `json:"status"`
	Reasons []string `json:"reasons"`
	Tips    []string `json:"tips"`
}

// ClinicalClass is the binary output of the lab-values model.
type ClinicalClass int

const (
	ClinicalNonDiabetic ClinicalClass = 0
	ClinicalDiabetic    ClinicalClass = 1
)

// LifestyleClass is the three-way output of the survey model.
type LifestyleClass int

const (
	LifestyleHealthy     LifestyleClass = 0
	LifestylePreDiabetic LifestyleClass = 1
	LifestyleDiabetic    LifestyleClass = 2
)

// Label is the risk class name stored alongside lifestyle records.
// Unknown classes are reported as Healthy, matching the engine's fallback branch.
func (c LifestyleClass) Label() string {
	switch c {
	case LifestyleDiabetic:
		return "Diabetic"
	case LifestylePreDiabetic:
		return "Pre-diabetic"
	default:
		return "Healthy"
	}
}

// ClinicalFeatures are lab values from a clinical report.
type ClinicalFeatures struct {
	Pregnancies   int     `json:"pregnancies"`
	Glucose       float64 `json:"glucose"`
	BloodPressure float64 `json:"bloodPressure"`
	SkinThickness float64 `json:"skinThickness"`
	Insulin       float64 `json:"insulin"`
	BMI           float64 `json:"bmi"`
	Pedigree      float64 `json:"pedigree"`
	Age           int     `json:"age"`
}

// Vector returns the features in the order the clinical model was trained on.
func (f ClinicalFeatures) Vector() []float64 {
	return []float64{
		float64(f.Pregnancies),
		f.Glucose,
		f.BloodPressure,
		f.SkinThickness,
		f.Insulin,
		f.BMI,
		f.Pedigree,
		float64(f.Age),
	}
}

// LifestyleFeatures are answers to the behavioural survey.
type LifestyleFeatures struct {
	HighBP           bool    `json:"highBP"`
	HighChol         bool    `json:"highChol"`
	BMI              float64 `json:"bmi"`
	Smoker           bool    `json:"smoker"`
	PhysicalActivity bool    `json:"physicalActivity"`
	Fruits           bool    `json:"fruits"`
	Vegetables       bool    `json:"vegetables"`
	HeavyAlcohol     bool    `json:"heavyAlcohol"`
	GeneralHealth    int     `json:"generalHealth"`
	MentalHealthDays int     `json:"mentalHealthDays"`
}

// Vector returns the features in the order the lifestyle model was trained on,
// with flags encoded as 0/1.
func (f LifestyleFeatures) Vector() []float64 {
	return []float64{
		flag(f.HighBP),
		flag(f.HighChol),
		f.BMI,
		flag(f.Smoker),
		flag(f.PhysicalActivity),
		flag(f.Fruits),
		flag(f.Vegetables),
		flag(f.HeavyAlcohol),
		float64(f.GeneralHealth),
		float64(f.MentalHealthDays),
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
