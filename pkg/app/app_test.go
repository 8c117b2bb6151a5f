package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"TrendRadar/pkg/config"
)

// fakeBinance 返回价格不变的K线
func fakeBinance(t *testing.T, bars int) (*httptest.Server, *sync.Map) {
	t.Helper()
	requested := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		requested.Store(symbol, true)

		var b strings.Builder
		b.WriteString("[")
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < bars; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			open := start.Add(time.Duration(i) * time.Hour).UnixMilli()
			fmt.Fprintf(&b, `[%d,"100","100","100","100","10",%d,"1000",1,"5","500","0"]`, open, open+3599999)
		}
		b.WriteString("]")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv, requested
}

func newTestApp(t *testing.T, baseURL string) (*App, string) {
	t.Helper()
	t.Setenv("BINANCE_BASE_URL", "")
	cfg := config.DefaultConfig()
	cfg.Market.BaseURL = baseURL
	cfg.Market.SymbolDelay = 0
	cfg.HoldingList = []string{"BTCUSDT"}
	cfg.WatchList = []string{"ETHUSDT", "BTCUSDT"}

	path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
	if err := config.WriteConfig(path, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return New(cfg, path, zerolog.Nop()), path
}

func TestRunOnceChecksEverySymbol(t *testing.T) {
	srv, requested := fakeBinance(t, 60)
	a, _ := newTestApp(t, srv.URL)
	defer a.Close()

	if err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
		if _, ok := requested.Load(symbol); !ok {
			t.Errorf("%s was not fetched", symbol)
		}
	}
	if got := a.Signals().Summary().TotalChecks; got != 2 {
		t.Fatalf("expected 2 checks, got %d", got)
	}
	if status := a.Engine().Status(); status.Passes != 1 || status.LastRunErr != "" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestRunOnceUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	if err := a.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected an error when every symbol fails")
	}
}

func TestReloadReplacesMembership(t *testing.T) {
	srv, _ := fakeBinance(t, 60)
	a, path := newTestApp(t, srv.URL)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.HoldingList = []string{"SOLUSDT"}
	cfg.WatchList = []string{"ADAUSDT"}
	if err := config.WriteConfig(path, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := a.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	status := a.Engine().Status()
	if len(status.Symbols) != 2 || status.Symbols[0] != "ADAUSDT" || status.Symbols[1] != "SOLUSDT" {
		t.Fatalf("unexpected symbols %v", status.Symbols)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	srv, _ := fakeBinance(t, 60)
	a, _ := newTestApp(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Monitor(ctx, time.Hour) }()

	deadline := time.After(5 * time.Second)
	for a.Engine().Status().Passes == 0 {
		select {
		case <-deadline:
			t.Fatalf("first pass did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Monitor returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Monitor did not stop after cancel")
	}
}

func TestPingURL(t *testing.T) {
	if got := pingURL(""); got != "https://api.binance.com/api/v3/ping" {
		t.Fatalf("unexpected default ping url %s", got)
	}
	if got := pingURL("http://localhost:9000/"); got != "http://localhost:9000/api/v3/ping" {
		t.Fatalf("unexpected ping url %s", got)
	}
}

type connState bool

func (c connState) IsConnected() bool { return bool(c) }

func TestNATSCheck(t *testing.T) {
	if err := natsCheck(connState(true))(context.Background()); err != nil {
		t.Fatalf("expected connected client to pass, got %v", err)
	}
	if err := natsCheck(connState(false))(context.Background()); err != errNATSDisconnected {
		t.Fatalf("expected errNATSDisconnected, got %v", err)
	}
}
