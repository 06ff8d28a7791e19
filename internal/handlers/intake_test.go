package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/labworks/intake-backend/internal/db"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/repos"
	"github.com/labworks/intake-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.EnsureLogIndexes(gdb); err != nil {
		t.Fatalf("ensure log indexes: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	svc := services.NewIntakeService(
		gdb,
		log,
		repos.NewSampleRepo(gdb, log),
		repos.NewSampleSetRepo(gdb, log),
		repos.NewMaterialTestRepo(gdb, log),
		repos.NewLogbookRepo(gdb, log),
	)
	handler := NewIntakeHandler(log, svc)

	router := gin.New()
	router.POST("/api/samples", handler.RegisterSample)
	router.GET("/api/samples/:id", handler.GetSample)
	return router
}

const receiptPayload = `{
	"clientName": "Acme Builders",
	"projectTitle": "Warehouse Extension",
	"receivedDate": "2025-02-03",
	"receivedBy": "J. Cruz",
	"tests": [
		{"materialTest": "Compressive Strength Test"},
		{"materialTest": "Water Absorption Test"}
	],
	"sets": [
		{
			"category": "CONCRETE",
			"class": "C25",
			"l": "150", "w": "150", "h": "150",
			"serialNumbers": ["001","002","003"],
			"assignedTests": []
		},
		{
			"category": "CONCRETE",
			"class": "C25",
			"serialNumbers": "004,005,006",
			"assignedTests": "[\"Water Absorption Test\"]"
		}
	]
}`

func TestRegisterSampleEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader(receiptPayload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, want 201; body=%s", rec.Code, rec.Body.String())
	}

	var result struct {
		Sample struct {
			ID         uuid.UUID `json:"id"`
			SampleCode string    `json:"sample_code"`
		} `json:"sample"`
		Outcomes []struct {
			Category string `json:"category"`
			Status   string `json:"status"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Sample.SampleCode == "" {
		t.Fatal("sample_code missing from response")
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes=%d, want 2", len(result.Outcomes))
	}
	if result.Outcomes[0].Category != "concrete_cube" || result.Outcomes[0].Status != "written" {
		t.Fatalf("outcome 0=%+v", result.Outcomes[0])
	}
	if result.Outcomes[1].Category != "water_absorption" || result.Outcomes[1].Status != "written" {
		t.Fatalf("outcome 1=%+v", result.Outcomes[1])
	}

	// The created sample is readable back with its sets and tests.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/samples/"+result.Sample.ID.String(), nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d, want 200; body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegisterSampleEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader(`{"projectTitle":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "validation_failed" {
		t.Fatalf("code=%q, want validation_failed", envelope.Error.Code)
	}
}

func TestGetSampleEndpointNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/samples/"+uuid.NewString(), nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404; body=%s", rec.Code, rec.Body.String())
	}
}
