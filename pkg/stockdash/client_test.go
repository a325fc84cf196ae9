package stockdash

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8090"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.rc == nil {
		t.Fatal("expected non-nil resty client")
	}
}

func TestStocksQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks" || r.URL.Query().Get("sort") != "gain" {
			t.Errorf("request = %s", r.URL)
		}
		io.WriteString(w, `{"sort":"GAIN","count":1,"rows":[{"code":"600519","pctLabel":"+2.10%"}]}`)
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL).Stocks(context.Background(), "gain")
	if err != nil {
		t.Fatalf("Stocks: %v", err)
	}
	if list.Count != 1 || list.Rows[0].PctLabel != "+2.10%" {
		t.Errorf("list = %+v", list)
	}
}

func TestDailyDecodesView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/charts/600519/daily" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"code":"600519","view":"daily","data":{"code":"600519",
			"candles":[{"date":"2024-06-03","open":10,"close":11}],
			"ma":[{"window":5,"values":[null]}]}}`)
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL).Daily(context.Background(), "600519")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(d.Candles) != 1 || d.Candles[0].Close != 11 {
		t.Errorf("candles = %+v", d.Candles)
	}
	if len(d.MA) != 1 || d.MA[0].Values[0] != nil {
		t.Errorf("ma = %+v", d.MA)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":"backend down","code":"backend_500"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Intraday(context.Background(), "600519")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Code != "backend_500" || apiErr.Message != "backend down" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
