package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var created []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/login":
			_, _ = w.Write([]byte(`{"success":true,"token":"tok-1","user":{"username":"owner","name":"Owner"}}`))
		case r.Header.Get("Authorization") != "Bearer tok-1":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Access token required"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/records":
			_, _ = w.Write([]byte(`[{"id":1,"date":"2025-03-10","vehicleNumber":"TN01","city":"Chennai","destination":"Madurai","weightInTons":10,"totalProfit":500}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/records":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			created = append(created, body)
			body["id"] = 2
			_ = json.NewEncoder(w).Encode(body)
		case r.URL.Path == "/api/records/summary":
			_, _ = w.Write([]byte(`{"totalProfit":500,"totalInvestment":900,"totalLoads":1,"totalExtraSpend":50}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"message":"Record deleted successfully"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestRun_Commands(t *testing.T) {
	srv, created := fakeAPI(t)
	t.Setenv("RTM_TOKEN", "tok-1")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "login", args: []string{"login", "-u", "owner", "-p", "pw"}, want: []string{"tok-1\n"}},
		{name: "list", args: []string{"list", "-sort", "profit-desc"}, want: []string{"TN01", "Chennai -> Madurai", "500"}},
		{name: "summary", args: []string{"summary"}, want: []string{"loads:       1", "profit:      500.00"}},
		{name: "add", args: []string{"add", "-date", "2025-03-11", "-vehicle", "TN02", "-weight", "10", "-buy", "100", "-sell", "150"}, want: []string{"created record 2 (profit 500)"}},
		{name: "delete", args: []string{"delete", "-id", "2"}, want: []string{"deleted record 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{"-api", srv.URL}, tt.args...)
			require.NoError(t, run(context.Background(), args, &out))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	require.Len(t, *created, 1)
	assert.Equal(t, 500.0, (*created)[0]["totalProfit"])
	assert.Equal(t, "TN02", (*created)[0]["vehicleNumber"])
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"explode"}},
		{name: "login without password", args: []string{"login", "-u", "owner"}},
		{name: "add without vehicle", args: []string{"add", "-date", "2025-03-11"}},
		{name: "add with bad date", args: []string{"add", "-vehicle", "TN01", "-date", "11/03/2025"}},
		{name: "delete without id", args: []string{"delete"}},
		{name: "unknown flag", args: []string{"list", "-color"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUsage))
		})
	}
}

func TestRun_MissingToken(t *testing.T) {
	srv, _ := fakeAPI(t)
	t.Setenv("RTM_TOKEN", "")

	err := run(context.Background(), []string{"-api", srv.URL, "list"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}
