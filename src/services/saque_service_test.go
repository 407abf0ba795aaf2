package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/estrategista/sistema-saques/src/models"
)

func exampleInput() models.SaqueInput {
	return models.SaqueInput{
		Nome:       "João Silva",
		CPF:        "123.456.789-00",
		IDExterno:  "77736",
		Banco:      "picpay",
		Agencia:    "0001",
		Conta:      "12345678-9",
		Pix:        "joao@example.com",
		ValorUSD:   100.00,
		Cotacao:    5.37,
		ValorTotal: 534.50,
		TaxaSaque:  2.50,
	}
}

func TestGenerateIDInternoUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := GenerateIDInterno()
		if !strings.HasPrefix(id, "saque_") {
			t.Fatalf("unexpected id format: %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestSaqueCreateAndGet(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	id, ts, err := svc.Create(ctx, exampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" || ts == "" {
		t.Fatalf("Create returned empty id or timestamp: %q %q", id, ts)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Nome != "João Silva" || got.CPF != "123.456.789-00" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.ValorUSD != 100.00 || got.ValorTotal != 534.50 {
		t.Errorf("amounts not preserved: %+v", got)
	}
	if got.Timestamp != ts {
		t.Errorf("timestamp mismatch: got %q want %q", got.Timestamp, ts)
	}
}

func TestSaqueGetNotFound(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))

	_, err := svc.Get(context.Background(), "saque_000_ffffffff")
	if !errors.Is(err, ErrSaqueNaoEncontrado) {
		t.Fatalf("want ErrSaqueNaoEncontrado, got %v", err)
	}
}

func TestSaqueDelete(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	id, _, err := svc.Create(ctx, exampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrSaqueNaoEncontrado) {
		t.Fatalf("record still present after delete: %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrSaqueNaoEncontrado) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestSaqueListNewestFirst(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	older := models.SyncSaque{Saque: models.Saque{
		IDInterno: "saque_1000_aaaaaaaa",
		Timestamp: "2026-01-01 09:00:00",
		Nome:      "Antigo",
		ValorUSD:  10,
	}}
	newer := models.SyncSaque{Saque: models.Saque{
		IDInterno: "saque_2000_bbbbbbbb",
		Timestamp: "2026-02-01 09:00:00",
		Nome:      "Recente",
		ValorUSD:  20,
	}}
	if _, err := svc.BulkUpsert(ctx, []models.SyncSaque{older, newer}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 records, got %d", len(list))
	}
	if list[0].IDInterno != "saque_2000_bbbbbbbb" || list[1].IDInterno != "saque_1000_aaaaaaaa" {
		t.Errorf("list not ordered newest first: %q, %q", list[0].IDInterno, list[1].IDInterno)
	}
}

func TestSaqueListEmpty(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil {
		t.Fatal("List should return an empty slice, not nil")
	}
	if len(list) != 0 {
		t.Fatalf("want empty list, got %d records", len(list))
	}
}

func TestBulkUpsertIdempotent(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	item := models.SyncSaque{Saque: models.Saque{
		IDInterno: "saque_3000_cccccccc",
		Timestamp: "2026-03-01 10:00:00",
		Nome:      "Maria",
		ValorUSD:  50,
	}}

	for i := 0; i < 2; i++ {
		n, err := svc.BulkUpsert(ctx, []models.SyncSaque{item})
		if err != nil {
			t.Fatalf("BulkUpsert round %d: %v", i, err)
		}
		if n != 1 {
			t.Fatalf("round %d: want 1 processed, got %d", i, n)
		}
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("upsert duplicated the record: %d rows", len(list))
	}
}

func TestBulkUpsertUpdatesExisting(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	item := models.SyncSaque{Saque: models.Saque{
		IDInterno: "saque_4000_dddddddd",
		Timestamp: "2026-03-02 10:00:00",
		Nome:      "Pedro",
		ValorUSD:  30,
	}}
	if _, err := svc.BulkUpsert(ctx, []models.SyncSaque{item}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	item.Saque.Nome = "Pedro Alves"
	item.Saque.ValorUSD = 45
	if _, err := svc.BulkUpsert(ctx, []models.SyncSaque{item}); err != nil {
		t.Fatalf("BulkUpsert update: %v", err)
	}

	got, err := svc.Get(ctx, "saque_4000_dddddddd")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Nome != "Pedro Alves" || got.ValorUSD != 45 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestBulkUpsertRejectsEmptyID(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	valid := models.SyncSaque{Saque: models.Saque{
		IDInterno: "saque_5000_eeeeeeee",
		Timestamp: "2026-03-03 10:00:00",
		Nome:      "Ok",
	}}
	invalid := models.SyncSaque{Saque: models.Saque{Nome: "Sem ID"}}

	if _, err := svc.BulkUpsert(ctx, []models.SyncSaque{valid, invalid}); err == nil {
		t.Fatal("want error for record without id")
	}

	// Whole batch rolls back, including the valid record.
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("partial batch committed: %d rows", len(list))
	}
}

func TestSaqueCreateSanitizesInput(t *testing.T) {
	svc := NewSaqueService(newTestDB(t))
	ctx := context.Background()

	in := exampleInput()
	in.Nome = "<script>alert(1)</script>João"
	id, _, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if strings.Contains(got.Nome, "<script>") {
		t.Errorf("markup not stripped: %q", got.Nome)
	}
}
