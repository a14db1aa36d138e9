package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository"
	"github.com/mamadbah2/rtm-traders/internal/service/auth"
	"github.com/mamadbah2/rtm-traders/internal/service/export"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

type stubRecords struct {
	listed  records.Filter
	created models.Record
	err     error
}

func (s *stubRecords) List(_ context.Context, f records.Filter) ([]models.Record, error) {
	s.listed = f
	return nil, s.err
}

func (s *stubRecords) Create(_ context.Context, record models.Record) (models.Record, error) {
	s.created = record
	record.ID = "7"
	return record, s.err
}

func (s *stubRecords) Update(_ context.Context, id string, record models.Record) (models.Record, error) {
	record.ID = models.RecordID(id)
	return record, s.err
}

func (s *stubRecords) Delete(context.Context, string) error { return s.err }

type stubReports struct{ err error }

func (s stubReports) Summary(context.Context, records.Filter) (models.Summary, error) {
	return models.Summary{TotalLoads: 2, TotalProfit: 10}, s.err
}

func (s stubReports) Monthly(context.Context, records.Filter) ([]models.MonthlyPoint, error) {
	return nil, s.err
}

type stubExports struct {
	synced int
	err    error
}

func (s stubExports) WriteWorkbook(_ context.Context, _ records.Filter, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("xlsx"))
	return err
}

func (s stubExports) SyncSheets(context.Context) (int, error) { return s.synced, s.err }

type stubAuth struct{ err error }

func (s stubAuth) Login(_ context.Context, username, _ string) (string, models.UserInfo, error) {
	if s.err != nil {
		return "", models.UserInfo{}, s.err
	}
	return "signed", models.UserInfo{Username: username, Name: "RTM Owner"}, nil
}

func serve(method, path, body string, register func(r *gin.Engine)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordsHandler_ErrorMapping(t *testing.T) {
	storageErr := errors.New("disk on fire")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantLogged bool
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("delete record 9: %w", repository.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Record not found"}`,
		},
		{
			name:       "invalid record",
			err:        fmt.Errorf("delete record 9: %w", repository.ErrInvalidRecord),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"delete record 9: invalid record"}`,
		},
		{
			name:       "storage failure is generic",
			err:        storageErr,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to delete record"}`,
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			h := NewRecordsHandler(&stubRecords{err: tt.err}, stubReports{}, stubExports{}, zap.New(core))

			w := serve(http.MethodDelete, "/api/records/9", "", func(r *gin.Engine) {
				r.DELETE("/api/records/:id", h.Delete)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			if tt.wantLogged {
				require.Equal(t, 1, logs.Len())
				assert.Equal(t, storageErr.Error(), logs.All()[0].ContextMap()["error"])
			} else {
				assert.Equal(t, 0, logs.Len())
			}
		})
	}
}

func TestRecordsHandler_ListPassesFilter(t *testing.T) {
	stub := &stubRecords{}
	h := NewRecordsHandler(stub, stubReports{}, stubExports{}, nil)

	w := serve(http.MethodGet, "/api/records?sort=profit-desc&months=3", "", func(r *gin.Engine) {
		r.GET("/api/records", h.List)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, records.SortProfitDesc, stub.listed.Sort)
	assert.Equal(t, 3, stub.listed.Months)
}

func TestRecordsHandler_ListFailure(t *testing.T) {
	h := NewRecordsHandler(&stubRecords{err: errors.New("boom")}, stubReports{}, stubExports{}, nil)

	w := serve(http.MethodGet, "/api/records", "", func(r *gin.Engine) {
		r.GET("/api/records", h.List)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to read records"}`, w.Body.String())
}

func TestRecordsHandler_CreateKeepsMissingAmountsAsNaN(t *testing.T) {
	stub := &stubRecords{}
	h := NewRecordsHandler(stub, stubReports{}, stubExports{}, nil)

	w := serve(http.MethodPost, "/api/records", `{"date":"2025-03-10","vehicleNumber":"TN01","totalProfit":500}`, func(r *gin.Engine) {
		r.POST("/api/records", h.Create)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.created.WeightInTons.IsNaN())
	assert.Equal(t, 500.0, stub.created.TotalProfit.Float())
	assert.Contains(t, w.Body.String(), `"id":7`)
	assert.Contains(t, w.Body.String(), `"weightInTons":null`)
}

func TestRecordsHandler_Reports(t *testing.T) {
	h := NewRecordsHandler(&stubRecords{}, stubReports{}, stubExports{}, nil)
	register := func(r *gin.Engine) {
		r.GET("/summary", h.Summary)
		r.GET("/monthly", h.Monthly)
	}

	w := serve(http.MethodGet, "/summary", "", register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalProfit":10,"totalInvestment":0,"totalLoads":2,"totalExtraSpend":0}`, w.Body.String())

	w = serve(http.MethodGet, "/monthly", "", register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = serve(http.MethodGet, "/summary?to=yesterday", "", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordsHandler_Exports(t *testing.T) {
	tests := []struct {
		name       string
		exports    stubExports
		path       string
		method     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "workbook",
			exports:    stubExports{},
			method:     http.MethodGet,
			path:       "/export.xlsx",
			wantStatus: http.StatusOK,
			wantBody:   "xlsx",
		},
		{
			name:       "workbook failure",
			exports:    stubExports{err: errors.New("zip failed")},
			method:     http.MethodGet,
			path:       "/export.xlsx",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to export records"}`,
		},
		{
			name:       "sheets disabled",
			exports:    stubExports{err: export.ErrSheetsDisabled},
			method:     http.MethodPost,
			path:       "/sync",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"Google Sheets sync is not configured"}`,
		},
		{
			name:       "sheets synced",
			exports:    stubExports{synced: 4},
			method:     http.MethodPost,
			path:       "/sync",
			wantStatus: http.StatusOK,
			wantBody:   `{"synced":4,"message":"4 records synced"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRecordsHandler(&stubRecords{}, stubReports{}, tt.exports, nil)
			w := serve(tt.method, tt.path, "", func(r *gin.Engine) {
				r.GET("/export.xlsx", h.ExportXLSX)
				r.POST("/sync", h.SyncSheets)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK && tt.path == "/export.xlsx" {
				assert.Equal(t, tt.wantBody, w.Body.String())
				assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
				return
			}
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		auth       stubAuth
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			body:       `{"username":"owner@rtm.example","password":"pw"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"token":"signed","user":{"username":"owner@rtm.example","name":"RTM Owner"}}`,
		},
		{
			name:       "bad credentials",
			auth:       stubAuth{err: auth.ErrInvalidCredentials},
			body:       `{"username":"owner@rtm.example","password":"pw"}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"success":false,"error":"Invalid credentials"}`,
		},
		{
			name:       "missing password",
			body:       `{"username":"owner@rtm.example"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"Username and password are required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(tt.auth, nil)
			w := serve(http.MethodPost, "/api/login", tt.body, func(r *gin.Engine) {
				r.POST("/api/login", h.Login)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAuthHandler_VerifyWithoutClaims(t *testing.T) {
	h := NewAuthHandler(stubAuth{}, nil)
	w := serve(http.MethodGet, "/api/verify", "", func(r *gin.Engine) {
		r.GET("/api/verify", h.Verify)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfig(t *testing.T) {
	w := serve(http.MethodGet, "/api/config", "", func(r *gin.Engine) {
		r.GET("/api/config", Config("http://localhost:3000"))
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"apiUrl":"http://localhost:3000"}`, w.Body.String())
}
