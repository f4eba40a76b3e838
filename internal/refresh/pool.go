package refresh

import (
	"context"
	"sync"

	"github.com/wonny/bigorder/internal/contracts"
)

// EnrichResult represents the result of one enrichment fetch
type EnrichResult struct {
	Ref    contracts.StockRef
	Record *contracts.Enrichment
	Error  error
}

// enrichAll fans refs out over min(Workers, len(refs)) workers and collects
// successful records in completion order. Failures are counted, not retried.
func (o *Orchestrator) enrichAll(ctx context.Context, refs []contracts.StockRef) ([]contracts.Enrichment, int) {
	if len(refs) == 0 {
		return []contracts.Enrichment{}, 0
	}

	workers := o.cfg.Workers
	if workers > len(refs) {
		workers = len(refs)
	}

	o.logger.WithFields(map[string]interface{}{
		"symbols": len(refs),
		"workers": workers,
	}).Info("Starting enrichment")

	refCh := make(chan contracts.StockRef, len(refs))
	resultCh := make(chan EnrichResult, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.enrichWorker(ctx, workerID, refCh, resultCh)
		}(i)
	}

	for _, ref := range refs {
		refCh <- ref
	}
	close(refCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	records := make([]contracts.Enrichment, 0, len(refs))
	failed := 0
	for result := range resultCh {
		if result.Error != nil {
			failed++
			continue
		}
		records = append(records, *result.Record)
	}

	o.logger.WithFields(map[string]interface{}{
		"success": len(records),
		"failed":  failed,
		"total":   len(refs),
	}).Info("Enrichment completed")

	return records, failed
}

// enrichWorker processes enrichment for refs until the channel drains
func (o *Orchestrator) enrichWorker(ctx context.Context, workerID int, refCh <-chan contracts.StockRef, resultCh chan<- EnrichResult) {
	for ref := range refCh {
		select {
		case <-ctx.Done():
			resultCh <- EnrichResult{Ref: ref, Error: ctx.Err()}
			continue
		default:
		}

		record, err := o.enricher.Enrich(ctx, ref)
		if err != nil {
			o.logger.WithStock(ref.Symbol, ref.Name).WithError(err).WithField("worker", workerID).
				Warn("Enrichment dropped")
			resultCh <- EnrichResult{Ref: ref, Error: err}
			continue
		}

		resultCh <- EnrichResult{Ref: ref, Record: record}
	}
}
