// Package assessment runs one submission end to end: model prediction, verdict,
// and persistence of the outcome.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Skufu/GlucoRisk/internal/advice"
	"github.com/Skufu/GlucoRisk/internal/predict"
	"github.com/Skufu/GlucoRisk/internal/store"
)

// ErrPrediction marks failures of the model service, as opposed to storage failures.
var ErrPrediction = errors.New("prediction failed")

// Recorder is the subset of the store the service writes to.
type Recorder interface {
	SaveClinical(ctx context.Context, rec *store.ClinicalRecord) error
	SaveLifestyle(ctx context.Context, rec *store.LifestyleRecord) error
}

type Service struct {
	predictor predict.Predictor
	engine    *advice.Engine
	records   Recorder
}

func NewService(p predict.Predictor, e *advice.Engine, r Recorder) *Service {
	return &Service{predictor: p, engine: e, records: r}
}

// ClinicalResult is returned to the UI after a clinical submission.
type ClinicalResult struct {
	ID             int64          `json:"id"`
	Ref            string         `json:"ref"`
	Prediction     int            `json:"prediction"`
	RiskPercentage float64        `json:"riskPercentage"`
	Severity       string         `json:"severity"`
	Verdict        advice.Verdict `json:"verdict"`
}

// LifestyleResult is returned to the UI after a lifestyle submission.
type LifestyleResult struct {
	ID            int64          `json:"id"`
	Ref           string         `json:"ref"`
	Prediction    int            `json:"prediction"`
	RiskClass     string         `json:"riskClass"`
	Probabilities [3]float64     `json:"probabilities"`
	Severity      string         `json:"severity"`
	Verdict       advice.Verdict `json:"verdict"`
}

func (s *Service) RunClinical(ctx context.Context, f advice.ClinicalFeatures) (ClinicalResult, error) {
	p, err := s.predictor.PredictClinical(ctx, f)
	if err != nil {
		return ClinicalResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(p.Probabilities) != 2 {
		return ClinicalResult{}, fmt.Errorf("%w: %w: %d clinical probabilities", ErrPrediction, predict.ErrBadResponse, len(p.Probabilities))
	}
	risk := predict.Percentages(p.Probabilities)[1]
	v := s.engine.Clinical(advice.ClinicalClass(p.Class), f, risk)

	rec := store.ClinicalRecord{
		ClinicalFeatures: f,
		Prediction:       p.Class,
		RiskPercentage:   risk,
		Status:           v.Status,
	}
	if err := s.records.SaveClinical(ctx, &rec); err != nil {
		log.Printf("save clinical assessment failed: %v", err)
		return ClinicalResult{}, fmt.Errorf("save clinical: %w", err)
	}
	log.Printf("clinical assessment %d saved: prediction=%d tier=%s", rec.ID, p.Class, v.Tier)

	return ClinicalResult{
		ID:             rec.ID,
		Ref:            rec.Ref,
		Prediction:     p.Class,
		RiskPercentage: risk,
		Severity:       v.Tier.Severity(),
		Verdict:        v,
	}, nil
}

func (s *Service) RunLifestyle(ctx context.Context, f advice.LifestyleFeatures) (LifestyleResult, error) {
	p, err := s.predictor.PredictLifestyle(ctx, f)
	if err != nil {
		return LifestyleResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(p.Probabilities) != 3 {
		return LifestyleResult{}, fmt.Errorf("%w: %w: %d lifestyle probabilities", ErrPrediction, predict.ErrBadResponse, len(p.Probabilities))
	}
	var pct [3]float64
	copy(pct[:], predict.Percentages(p.Probabilities))
	class := advice.LifestyleClass(p.Class)
	v := s.engine.Lifestyle(class, f, pct)

	rec := store.LifestyleRecord{
		LifestyleFeatures: f,
		Prediction:        p.Class,
		RiskClass:         class.Label(),
		Status:            v.Status,
	}
	if err := s.records.SaveLifestyle(ctx, &rec); err != nil {
		log.Printf("save lifestyle assessment failed: %v", err)
		return LifestyleResult{}, fmt.Errorf("save lifestyle: %w", err)
	}
	log.Printf("lifestyle assessment %d saved: class=%s tier=%s", rec.ID, rec.RiskClass, v.Tier)

	return LifestyleResult{
		ID:            rec.ID,
		Ref:           rec.Ref,
		Prediction:    p.Class,
		RiskClass:     rec.RiskClass,
		Probabilities: pct,
		Severity:      v.Tier.Severity(),
		Verdict:       v,
	}, nil
}
