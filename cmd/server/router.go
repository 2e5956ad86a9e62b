package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/GlucoRisk/internal/advice"
	"github.com/Skufu/GlucoRisk/internal/assessment"
	"github.com/Skufu/GlucoRisk/internal/store"
)

const (
	defaultRecentLimit = 5
	maxListLimit       = 500
	trendDays          = 7
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RecordStore is what the HTTP layer reads from the store.
type RecordStore interface {
	HealthChecker
	ClinicalRecords(ctx context.Context, f store.Filter) ([]store.ClinicalRecord, error)
	LifestyleRecords(ctx context.Context, f store.Filter) ([]store.LifestyleRecord, error)
	Statistics(ctx context.Context) (store.Statistics, error)
	RiskFactorCounts(ctx context.Context) (store.RiskFactorCounts, error)
	ClinicalAgeSummary(ctx context.Context) (store.AgeSummary, error)
	DailyCounts(ctx context.Context, kind store.Kind, days int) ([]store.DailyCount, error)
	Delete(ctx context.Context, kind store.Kind, id int64) error
	ClearAll(ctx context.Context) error
}

type Assessor interface {
	RunClinical(ctx context.Context, f advice.ClinicalFeatures) (assessment.ClinicalResult, error)
	RunLifestyle(ctx context.Context, f advice.LifestyleFeatures) (assessment.LifestyleResult, error)
}

type routerDeps struct {
	db          RecordStore
	assessments Assessor
	enableAdmin bool
	staticRoot  string
}

type clinicalRequest struct {
	Pregnancies   *int     `json:"pregnancies" binding:"required,gte=0,lte=20"`
	Glucose       *float64 `json:"glucose" binding:"required,gte=0,lte=300"`
	BloodPressure *float64 `json:"bloodPressure" binding:"required,gte=0,lte=150"`
	SkinThickness *float64 `json:"skinThickness" binding:"required,gte=0,lte=100"`
	Insulin       *float64 `json:"insulin" binding:"required,gte=0,lte=900"`
	BMI           *float64 `json:"bmi" binding:"required,gte=0,lte=70"`
	Pedigree      *float64 `json:"pedigree" binding:"required,gte=0,lte=3"`
	Age           *int     `json:"age" binding:"required,gte=1,lte=120"`
}

func (r clinicalRequest) features() advice.ClinicalFeatures {
	return advice.ClinicalFeatures{
		Pregnancies:   *r.Pregnancies,
		Glucose:       *r.Glucose,
		BloodPressure: *r.BloodPressure,
		SkinThickness: *r.SkinThickness,
		Insulin:       *r.Insulin,
		BMI:           *r.BMI,
		Pedigree:      *r.Pedigree,
		Age:           *r.Age,
	}
}

type lifestyleRequest struct {
	HighBP           *bool    `json:"highBP" binding:"required"`
	HighChol         *bool    `json:"highChol" binding:"required"`
	BMI              *float64 `json:"bmi" binding:"required,gte=10,lte=60"`
	Smoker           *bool    `json:"smoker" binding:"required"`
	PhysicalActivity *bool    `json:"physicalActivity" binding:"required"`
	Fruits           *bool    `json:"fruits" binding:"required"`
	Vegetables       *bool    `json:"vegetables" binding:"required"`
	HeavyAlcohol     *bool    `json:"heavyAlcohol" binding:"required"`
	GeneralHealth    *int     `json:"generalHealth" binding:"required,gte=1,lte=5"`
	MentalHealthDays *int     `json:"mentalHealthDays" binding:"required,gte=0,lte=30"`
}

func (r lifestyleRequest) features() advice.LifestyleFeatures {
	return advice.LifestyleFeatures{
		HighBP:           *r.HighBP,
		HighChol:         *r.HighChol,
		BMI:              *r.BMI,
		Smoker:           *r.Smoker,
		PhysicalActivity: *r.PhysicalActivity,
		Fruits:           *r.Fruits,
		Vegetables:       *r.Vegetables,
		HeavyAlcohol:     *r.HeavyAlcohol,
		GeneralHealth:    *r.GeneralHealth,
		MentalHealthDays: *r.MentalHealthDays,
	}
}

var fieldLabels = map[string]string{
	"Pregnancies":      "pregnancies",
	"Glucose":          "glucose",
	"BloodPressure":    "blood pressure",
	"SkinThickness":    "skin thickness",
	"Insulin":          "insulin",
	"BMI":              "BMI",
	"Pedigree":         "diabetes pedigree",
	"Age":              "age",
	"HighBP":           "high blood pressure",
	"HighChol":         "high cholesterol",
	"Smoker":           "smoker",
	"PhysicalActivity": "physical activity",
	"Fruits":           "fruits",
	"Vegetables":       "vegetables",
	"HeavyAlcohol":     "heavy alcohol",
	"GeneralHealth":    "general health",
	"MentalHealthDays": "mental health days",
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	if deps.staticRoot != "" {
		router.Static("/static", deps.staticRoot)
		router.StaticFile("/", filepath.Join(deps.staticRoot, "index.html"))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     "ok",
		})
	})

	api := router.Group("/api/assessments")
	api.POST("/clinical", func(c *gin.Context) {
		var payload clinicalRequest
		if !bindPayload(c, &payload) {
			return
		}
		result, err := deps.assessments.RunClinical(c.Request.Context(), payload.features())
		if err != nil {
			writeAssessmentError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
	api.POST("/lifestyle", func(c *gin.Context) {
		var payload lifestyleRequest
		if !bindPayload(c, &payload) {
			return
		}
		result, err := deps.assessments.RunLifestyle(c.Request.Context(), payload.features())
		if err != nil {
			writeAssessmentError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
	api.GET("/:kind/recent", func(c *gin.Context) {
		listRecords(c, deps.db, store.Filter{Limit: defaultRecentLimit})
	})

	if deps.enableAdmin {
		registerAdmin(router.Group("/api/admin"), deps.db)
	}

	return router
}

// registerAdmin mounts the dashboard endpoints. The service does no authentication;
// deployments expose /api/admin only behind their own gateway.
func registerAdmin(admin *gin.RouterGroup, db RecordStore) {
	admin.GET("/stats", func(c *gin.Context) {
		var (
			stats   store.Statistics
			factors store.RiskFactorCounts
			ages    store.AgeSummary
			trend   = map[store.Kind][]store.DailyCount{}
			mu      sync.Mutex
		)
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() (err error) {
			stats, err = db.Statistics(ctx)
			return err
		})
		g.Go(func() (err error) {
			factors, err = db.RiskFactorCounts(ctx)
			return err
		})
		g.Go(func() (err error) {
			ages, err = db.ClinicalAgeSummary(ctx)
			return err
		})
		for _, kind := range []store.Kind{store.KindClinical, store.KindLifestyle} {
			kind := kind
			g.Go(func() error {
				days, err := db.DailyCounts(ctx, kind, trendDays)
				if err != nil {
					return err
				}
				mu.Lock()
				trend[kind] = days
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"statistics":  stats,
			"riskFactors": factors,
			"clinicalAge": ages,
			"trend":       trend,
		})
	})

	admin.GET("/records/:kind", func(c *gin.Context) {
		listRecords(c, db, store.Filter{})
	})

	admin.DELETE("/records/:kind/:id", func(c *gin.Context) {
		kind, err := store.ParseKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown record kind"})
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		switch err := db.Delete(c.Request.Context(), kind, id); {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		default:
			c.Status(http.StatusNoContent)
		}
	})

	admin.DELETE("/records", func(c *gin.Context) {
		if err := db.ClearAll(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// listRecords serves a listing for the :kind path parameter. Query parameters
// (limit, id, prediction, min_glucose, min_bmi, risk_class) narrow the defaults in f,
// and format=csv returns the listing as a CSV download.
func listRecords(c *gin.Context, db RecordStore, f store.Filter) {
	kind, err := store.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown record kind"})
		return
	}
	if msg := parseFilter(c, &f); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	asCSV := c.Query("format") == "csv"

	var (
		records any
		csvBody bytes.Buffer
	)
	if kind == store.KindLifestyle {
		var rows []store.LifestyleRecord
		rows, err = db.LifestyleRecords(c.Request.Context(), f)
		if err == nil && asCSV {
			err = store.WriteLifestyleCSV(&csvBody, rows)
		}
		records = rows
	} else {
		var rows []store.ClinicalRecord
		rows, err = db.ClinicalRecords(c.Request.Context(), f)
		if err == nil && asCSV {
			err = store.WriteClinicalCSV(&csvBody, rows)
		}
		records = rows
	}
	switch {
	case errors.Is(err, store.ErrUnsupportedFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "records unavailable"})
		return
	}

	if asCSV {
		name := fmt.Sprintf("%s_filtered_%s.csv", kind, time.Now().Format("20060102_150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", csvBody.Bytes())
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "records": records})
}

// parseFilter applies query parameters to f and returns a client error message, if any.
func parseFilter(c *gin.Context, f *store.Filter) string {
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			return fmt.Sprintf("limit must be between 1 and %d", maxListLimit)
		}
		f.Limit = n
	}
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return "invalid id"
		}
		f.ID = id
	}
	if raw := c.Query("prediction"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "invalid prediction"
		}
		f.Prediction = &n
	}
	if raw := c.Query("min_glucose"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return "invalid min_glucose"
		}
		f.MinGlucose = v
	}
	if raw := c.Query("min_bmi"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return "invalid min_bmi"
		}
		f.MinBMI = v
	}
	f.RiskClass = c.Query("risk_class")
	return ""
}

func bindPayload(c *gin.Context, payload any) bool {
	err := c.ShouldBindJSON(payload)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"fields": validationMessages(verrs),
		})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	return false
}

func validationMessages(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", label))
		case "gte":
			out = append(out, fmt.Sprintf("%s must be at least %s", label, fe.Param()))
		case "lte":
			out = append(out, fmt.Sprintf("%s must be at most %s", label, fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", label))
		}
	}
	return out
}

func writeAssessmentError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, assessment.ErrPrediction) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "prediction service unavailable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment could not be saved"})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
