package run

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
)

func testRun(id, symbol, strategy string, created time.Time) *backtest.Result {
	return &backtest.Result{
		ID:        id,
		Symbol:    symbol,
		Strategy:  strategy,
		CreatedAt: created,
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	r := testRun("abc", "RELIANCE", "ema_crossover", time.Now())
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Symbol != "RELIANCE" {
		t.Errorf("Symbol = %s, want RELIANCE", got.Symbol)
	}

	_, err = store.Get(ctx, "missing")
	if !errors.Is(err, core.ErrRunNotFound) {
		t.Errorf("error = %v, want RUN_NOT_FOUND", err)
	}
}

func TestMemoryStore_SaveRejectsMissingID(t *testing.T) {
	store := NewMemoryStore(10)
	if err := store.Save(context.Background(), &backtest.Result{}); err == nil {
		t.Error("expected error for run without ID")
	}
}

func TestMemoryStore_CapacityTrimsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Save(ctx, testRun(fmt.Sprintf("run-%d", i), "NIFTY", "momentum", time.Now()))
	}

	if _, err := store.Get(ctx, "run-0"); !errors.Is(err, core.ErrRunNotFound) {
		t.Error("oldest run should be trimmed")
	}
	if _, err := store.Get(ctx, "run-4"); err != nil {
		t.Error("newest run should survive")
	}
}

func TestMemoryStore_ListFiltersAndOrders(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Save(ctx, testRun("a", "NIFTY", "momentum", base))
	store.Save(ctx, testRun("b", "RELIANCE", "momentum", base.Add(time.Hour)))
	store.Save(ctx, testRun("c", "NIFTY", "ema_crossover", base.Add(2*time.Hour)))

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if all[0].ID != "c" {
		t.Errorf("expected newest first, got %s", all[0].ID)
	}

	nifty, _ := store.List(ctx, ListFilter{Symbol: "NIFTY"})
	if len(nifty) != 2 {
		t.Errorf("expected 2 NIFTY runs, got %d", len(nifty))
	}

	momentum, _ := store.List(ctx, ListFilter{Strategy: "momentum"})
	if len(momentum) != 2 {
		t.Errorf("expected 2 momentum runs, got %d", len(momentum))
	}

	recent, _ := store.List(ctx, ListFilter{From: base.Add(30 * time.Minute)})
	if len(recent) != 2 {
		t.Errorf("expected 2 recent runs, got %d", len(recent))
	}
}

func TestMemoryStore_ListPagination(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Save(ctx, testRun(fmt.Sprintf("run-%d", i), "NIFTY", "momentum", time.Now()))
	}

	page, _ := store.List(ctx, ListFilter{Limit: 2, Offset: 1})
	if len(page) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(page))
	}
	if page[0].ID != "run-3" {
		t.Errorf("expected run-3 first, got %s", page[0].ID)
	}

	empty, _ := store.List(ctx, ListFilter{Offset: 99})
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d", len(empty))
	}
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	store.Save(ctx, testRun("a", "NIFTY", "momentum", time.Now()))
	store.Save(ctx, testRun("b", "RELIANCE", "momentum", time.Now()))

	n, err := store.Count(ctx, ListFilter{Symbol: "NIFTY"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
