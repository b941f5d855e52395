package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
	"github.com/marketcalls/quantbt/internal/report"
)

// Archiver writes completed runs to a storage backend under
// runs/<id>/, one JSON result plus a CSV trade list per run.
type Archiver struct {
	storage Storage
}

// NewArchiver creates an archiver over the given backend
func NewArchiver(storage Storage) *Archiver {
	return &Archiver{storage: storage}
}

// SaveRun persists the serialized result and its trade list
func (a *Archiver) SaveRun(ctx context.Context, r *backtest.Result) error {
	data, err := report.Marshal(r, true)
	if err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("serializing run %s: %w", r.ID, err))
	}
	if err := a.storage.Write(ctx, runPath(r.ID, "result.json"), data); err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing run %s: %w", r.ID, err))
	}

	var buf bytes.Buffer
	if err := report.WriteTrades(&buf, r.Trades); err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("serializing trades for %s: %w", r.ID, err))
	}
	if err := a.storage.Write(ctx, runPath(r.ID, "trades.csv"), buf.Bytes()); err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing trades for %s: %w", r.ID, err))
	}

	return nil
}

// LoadRun reads an archived result back
func (a *Archiver) LoadRun(ctx context.Context, id string) ([]byte, error) {
	data, err := a.storage.Read(ctx, runPath(id, "result.json"))
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("reading run %s: %w", id, err))
	}
	return data, nil
}

// ListRuns returns the IDs of all archived runs
func (a *Archiver) ListRuns(ctx context.Context) ([]string, error) {
	paths, err := a.storage.List(ctx, "runs")
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, p := range paths {
		dir := path.Base(path.Dir(p))
		if dir != "" && dir != "runs" && !seen[dir] {
			seen[dir] = true
			ids = append(ids, dir)
		}
	}
	return ids, nil
}

func runPath(id, name string) string {
	return path.Join("runs", id, name)
}
