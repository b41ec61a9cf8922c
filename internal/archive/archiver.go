// Package archive moves aged monitoring data from the database to
// S3-compatible cold storage and prunes it from the primary store.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// BlobChecker verifies that an uploaded archive object exists. Pruning only
// happens after the export has been confirmed.
type BlobChecker interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Narrow store views: the archiver only needs the time-ranged query and the
// matching prune, not the full store interfaces.

// OpportunityArchiveStore provides read and prune access to aged
// opportunities.
type OpportunityArchiveStore interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]domain.ArbitrageOpportunity, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CycleArchiveStore provides read and prune access to aged cycle records.
type CycleArchiveStore interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]domain.CycleRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver exports records older than the retention window as JSONL objects
// and deletes them from Postgres once the upload is verified.
type Archiver struct {
	writer        domain.BlobWriter
	checker       BlobChecker
	opportunities OpportunityArchiveStore
	cycles        CycleArchiveStore
	retentionDays int
	logger        *slog.Logger

	now func() time.Time
}

// New creates an Archiver. checker may be nil, in which case uploads are
// trusted without a verification read.
func New(
	cfg config.MonitoringConfig,
	writer domain.BlobWriter,
	checker BlobChecker,
	opportunities OpportunityArchiveStore,
	cycles CycleArchiveStore,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		writer:        writer,
		checker:       checker,
		opportunities: opportunities,
		cycles:        cycles,
		retentionDays: cfg.RetentionDays,
		logger:        logger.With(slog.String("component", "archiver")),
		now:           time.Now,
	}
}

// Run executes a single archive pass over both tables. A failure on one
// table does not block the other; the first error is returned.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := a.now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	oppErr := a.archiveOpportunities(ctx, cutoff)
	if oppErr != nil {
		a.logger.ErrorContext(ctx, "archive opportunities failed", slog.String("error", oppErr.Error()))
	}

	cycleErr := a.archiveCycles(ctx, cutoff)
	if cycleErr != nil {
		a.logger.ErrorContext(ctx, "archive cycles failed", slog.String("error", cycleErr.Error()))
	}

	if oppErr != nil {
		return oppErr
	}
	return cycleErr
}

// RunPeriodic runs an archive pass immediately and then once per interval
// until the context is cancelled.
func (a *Archiver) RunPeriodic(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver stopped")
			return
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
			}
			timer.Reset(interval)
		}
	}
}

func (a *Archiver) archiveOpportunities(ctx context.Context, cutoff time.Time) error {
	opps, err := a.opportunities.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: list opportunities: %w", err)
	}
	if len(opps) == 0 {
		return nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return fmt.Errorf("archive: marshal opportunities: %w", err)
	}

	path := archivePath("opportunities", cutoff)
	if err := a.export(ctx, path, buf); err != nil {
		return err
	}

	pruned, err := a.opportunities.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: prune opportunities: %w", err)
	}

	a.logger.InfoContext(ctx, "archived opportunities",
		slog.String("path", path),
		slog.Int("exported", len(opps)),
		slog.Int64("pruned", pruned),
	)
	return nil
}

func (a *Archiver) archiveCycles(ctx context.Context, cutoff time.Time) error {
	records, err := a.cycles.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: list cycles: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("archive: marshal cycles: %w", err)
	}

	path := archivePath("cycles", cutoff)
	if err := a.export(ctx, path, buf); err != nil {
		return err
	}

	pruned, err := a.cycles.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: prune cycles: %w", err)
	}

	a.logger.InfoContext(ctx, "archived cycles",
		slog.String("path", path),
		slog.Int("exported", len(records)),
		slog.Int64("pruned", pruned),
	)
	return nil
}

// export uploads an encoded JSONL payload and, when a checker is configured,
// confirms the object exists before the caller prunes anything.
func (a *Archiver) export(ctx context.Context, path string, buf []byte) error {
	if err := a.writer.Put(ctx, path, buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("archive: upload %s: %w", path, err)
	}

	if a.checker != nil {
		ok, err := a.checker.Exists(ctx, path)
		if err != nil {
			return fmt.Errorf("archive: verify %s: %w", path, err)
		}
		if !ok {
			return fmt.Errorf("archive: object %s missing after upload", path)
		}
	}

	return nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/opportunities/2025-01.jsonl
//	archive/cycles/2025-01.jsonl
func archivePath(kind string, cutoff time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, cutoff.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
