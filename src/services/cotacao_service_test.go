package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/estrategista/sistema-saques/src/config"
	"github.com/estrategista/sistema-saques/src/models"
)

func newCotacaoService(t *testing.T) *CotacaoService {
	t.Helper()
	conn := newTestDB(t)
	return NewCotacaoService(conn, NewConfigService(conn), 2*time.Second, 5*time.Minute)
}

func floatPtr(v float64) *float64 { return &v }

func TestCotacaoLatestDefault(t *testing.T) {
	svc := newCotacaoService(t)

	c, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if c.Valor != config.DefaultCotacao {
		t.Errorf("default cotacao: got %v want %v", c.Valor, config.DefaultCotacao)
	}
	if c.Timestamp == "" {
		t.Error("default cotacao has empty timestamp")
	}
	if c.Manual {
		t.Error("default cotacao should not be marked manual")
	}
}

func TestCotacaoSaveAndLatest(t *testing.T) {
	svc := newCotacaoService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, models.CotacaoInput{
		Valor:     floatPtr(5.10),
		Timestamp: "2026-01-01 08:00:00",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := svc.Save(ctx, models.CotacaoInput{
		Valor:     floatPtr(5.62),
		Timestamp: "2026-02-01 08:00:00",
		Manual:    true,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Older timestamp inserted last must not win.
	if _, err := svc.Save(ctx, models.CotacaoInput{
		Valor:     floatPtr(4.90),
		Timestamp: "2025-12-01 08:00:00",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if c.Valor != 5.62 {
		t.Errorf("latest cotacao: got %v want 5.62", c.Valor)
	}
	if !c.Manual {
		t.Error("latest cotacao should be the manual entry")
	}
}

func TestCotacaoSaveDefaultsTimestamp(t *testing.T) {
	svc := newCotacaoService(t)

	c, err := svc.Save(context.Background(), models.CotacaoInput{Valor: floatPtr(5.20)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if c.Timestamp == "" {
		t.Error("Save should fill in the timestamp")
	}
	if _, err := time.Parse(config.TimestampLayout, c.Timestamp); err != nil {
		t.Errorf("timestamp not in expected layout: %q", c.Timestamp)
	}
}

func TestCotacaoRefreshFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"USDBRL":{"high":"5.6100"}}`))
	}))
	defer srv.Close()

	svc := newCotacaoService(t)
	ctx := context.Background()
	if err := svc.configSvc.SaveAll(ctx, map[string]any{"apiUrl": srv.URL}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	c, msg, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.Valor != 5.61 {
		t.Errorf("refreshed cotacao: got %v want 5.61", c.Valor)
	}
	if !strings.Contains(msg, "Cotação atualizada") {
		t.Errorf("unexpected message: %q", msg)
	}

	// The fetched rate must be persisted in the log.
	latest, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Valor != 5.61 {
		t.Errorf("refresh not persisted: got %v", latest.Valor)
	}
}

// A manual save must drop the cached quote, so the next Refresh refetches
// instead of replaying a quote older than the manual entry.
func TestCotacaoManualSaveInvalidatesQuoteCache(t *testing.T) {
	quotes := []string{"5.6100", "5.7000"}
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"USDBRL":{"high":"` + quotes[calls] + `"}}`))
		calls++
	}))
	defer srv.Close()

	svc := newCotacaoService(t)
	ctx := context.Background()
	if err := svc.configSvc.SaveAll(ctx, map[string]any{"apiUrl": srv.URL}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	if c, _, err := svc.Refresh(ctx); err != nil || c.Valor != 5.61 {
		t.Fatalf("first refresh: %v %v", c, err)
	}
	// Inside the TTL the cache answers without hitting upstream.
	if c, _, err := svc.Refresh(ctx); err != nil || c.Valor != 5.61 {
		t.Fatalf("cached refresh: %v %v", c, err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls before manual save: %d", calls)
	}

	if _, err := svc.Save(ctx, models.CotacaoInput{Valor: floatPtr(6.00), Manual: true}); err != nil {
		t.Fatalf("manual save: %v", err)
	}

	c, _, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh after manual save: %v", err)
	}
	if calls != 2 {
		t.Errorf("manual save did not invalidate the cache: %d upstream calls", calls)
	}
	if c.Valor != 5.70 {
		t.Errorf("refreshed cotacao: got %v want 5.70", c.Valor)
	}
}

func TestCotacaoRefreshFallsBackWhenAPIDown(t *testing.T) {
	svc := newCotacaoService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, models.CotacaoInput{
		Valor:     floatPtr(5.45),
		Timestamp: "2026-01-15 12:00:00",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.configSvc.SaveAll(ctx, map[string]any{"apiUrl": "http://127.0.0.1:1"}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	c, msg, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh should degrade, not fail: %v", err)
	}
	if c.Valor != 5.45 {
		t.Errorf("fallback cotacao: got %v want 5.45", c.Valor)
	}
	if msg == "" {
		t.Error("expected a warning message about the stale rate")
	}
}
