package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Skufu/GlucoRisk/internal/advice"
)

func newModelServer(t *testing.T, handler func(path string, features []float64) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		code, body := handler(r.URL.Path, req.Features)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredictClinical(t *testing.T) {
	var gotPath string
	var gotFeatures []float64
	srv := newModelServer(t, func(path string, features []float64) (int, string) {
		gotPath, gotFeatures = path, features
		return http.StatusOK, `{"class":1,"probabilities":[0.127,0.873]}`
	})

	c := NewClient(srv.URL+"/", time.Second)
	f := advice.ClinicalFeatures{Pregnancies: 1, Glucose: 180, BloodPressure: 90, SkinThickness: 20, Insulin: 80, BMI: 32, Pedigree: 0.5, Age: 50}
	p, err := c.PredictClinical(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/predict/clinical" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if diff := cmp.Diff(f.Vector(), gotFeatures); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
	if p.Class != 1 || len(p.Probabilities) != 2 {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestPredictLifestyle(t *testing.T) {
	srv := newModelServer(t, func(path string, features []float64) (int, string) {
		if path != "/predict/lifestyle" || len(features) != 10 {
			return http.StatusBadRequest, "bad"
		}
		return http.StatusOK, `{"class":0,"probabilities":[0.92,0.05,0.03]}`
	})

	p, err := NewClient(srv.URL, time.Second).PredictLifestyle(context.Background(), advice.LifestyleFeatures{BMI: 22})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Class != 0 || len(p.Probabilities) != 3 {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestPredictRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong arity", `{"class":0,"probabilities":[0.9,0.05,0.05]}`},
		{"class out of range", `{"class":2,"probabilities":[0.1,0.9]}`},
		{"probability out of range", `{"class":0,"probabilities":[1.4,-0.4]}`},
		{"not json", `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newModelServer(t, func(string, []float64) (int, string) {
				return http.StatusOK, tt.body
			})
			_, err := NewClient(srv.URL, time.Second).PredictClinical(context.Background(), advice.ClinicalFeatures{})
			if !errors.Is(err, ErrBadResponse) {
				t.Fatalf("expected ErrBadResponse, got %v", err)
			}
		})
	}
}

func TestPredictSurfacesStatus(t *testing.T) {
	srv := newModelServer(t, func(string, []float64) (int, string) {
		return http.StatusServiceUnavailable, "model not loaded"
	})
	_, err := NewClient(srv.URL, time.Second).PredictClinical(context.Background(), advice.ClinicalFeatures{})
	if err == nil || !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPredictHonoursContext(t *testing.T) {
	srv := newModelServer(t, func(string, []float64) (int, string) {
		return http.StatusOK, `{"class":0,"probabilities":[0.9,0.1]}`
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL, time.Second).PredictClinical(ctx, advice.ClinicalFeatures{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPercentages(t *testing.T) {
	got := Percentages([]float64{0.1234, 0.873, 0.00456, 0})
	want := []float64{12.34, 87.3, 0.46, 0}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("percentages mismatch (-want +got):\n%s", diff)
	}
}
