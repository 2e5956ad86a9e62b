// Package predict talks to the model service that hosts the trained clinical and
// lifestyle classifiers. Scaling and inference happen on the service side.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Skufu/GlucoRisk/internal/advice"
)

// ErrBadResponse is returned when the model service answers with an unusable payload.
var ErrBadResponse = errors.New("bad model response")

// Predictor produces a class and probability distribution for one assessment.
type Predictor interface {
	PredictClinical(ctx context.Context, f advice.ClinicalFeatures) (Prediction, error)
	PredictLifestyle(ctx context.Context, f advice.LifestyleFeatures) (Prediction, error)
}

// Prediction is the model output. Probabilities are fractions indexed by class.
type Prediction struct {
	Class         int       `json:"class"`
	Probabilities []float64 `json:"probabilities"`
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

// Client is the HTTP Predictor.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) PredictClinical(ctx context.Context, f advice.ClinicalFeatures) (Prediction, error) {
	return c.predict(ctx, "/predict/clinical", f.Vector(), 2)
}

func (c *Client) PredictLifestyle(ctx context.Context, f advice.LifestyleFeatures) (Prediction, error) {
	return c.predict(ctx, "/predict/lifestyle", f.Vector(), 3)
}

func (c *Client) predict(ctx context.Context, path string, features []float64, classes int) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return Prediction{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("call model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("model service %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if err := out.check(classes); err != nil {
		return Prediction{}, err
	}
	return out, nil
}

func (p Prediction) check(classes int) error {
	if len(p.Probabilities) != classes {
		return fmt.Errorf("%w: expected %d probabilities, got %d", ErrBadResponse, classes, len(p.Probabilities))
	}
	if p.Class < 0 || p.Class >= classes {
		return fmt.Errorf("%w: class %d out of range", ErrBadResponse, p.Class)
	}
	for _, v := range p.Probabilities {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: probability %v outside [0,1]", ErrBadResponse, v)
		}
	}
	return nil
}

// Percentages converts fractions to percentages rounded to two decimals.
func Percentages(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = math.Round(v*10000) / 100
	}
	return out
}
