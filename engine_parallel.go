package lintel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/store"
)

// workItem holds everything a parallel analysis worker needs.
type workItem struct {
	path    string
	content []byte
	hash    string
	fileID  int64
	batch   *store.BatchedStore // nil without a store
}

// workResult is handed from a worker to the writer.
type workResult struct {
	item workItem
	out  unitResult
}

// analyzeFilesParallel runs a three-phase pipeline:
//
//	Phase A (serial):   Language filter, read, hash check, file records.
//	Phase B (parallel): Parse and dispatch via an errgroup capped at e.jobs.
//	Phase C (serial):   A single writer commits each unit's batch to SQLite.
func (e *Engine) analyzeFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []workItem
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, skip, err := e.prepareFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", p, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	// ---- Phase C: Serial commit, started first so workers never block ----
	results := make(chan workResult, e.jobs)
	commitErrs := make(chan []error, 1)
	go func() {
		var errs []error
		for res := range results {
			if err := e.commit(res); err != nil {
				errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			}
		}
		commitErrs <- errs
	}()

	// ---- Phase B: Parallel dispatch ----
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	unitErrs := make([]error, len(items))
	for i, item := range items {
		g.Go(func() error {
			out, err := e.analyzeUnit(gctx, item.path, item.content, item.batch)
			if err != nil {
				if isFatal(err) {
					return fmt.Errorf("analyze %s: %w", item.path, err)
				}
				unitErrs[i] = fmt.Errorf("analyze %s: %w", item.path, err)
				return nil
			}
			select {
			case results <- workResult{item: item, out: out}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	groupErr := g.Wait()
	close(results)
	errs = append(errs, <-commitErrs...)

	if groupErr != nil {
		// A cancelled parent context wins over whichever unit noticed it.
		if err := ctx.Err(); err != nil {
			return err
		}
		return groupErr
	}
	for _, err := range unitErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		for _, err := range errs {
			e.logger.Warn("file failed", zap.Error(err))
		}
		return fmt.Errorf("lintel: analysis had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// prepareFile does Phase A work for a single file. skip=true means the file
// is unsupported, filtered out or unchanged.
func (e *Engine) prepareFile(p string) (workItem, bool, error) {
	if !e.supported(p) {
		return workItem{}, true, nil
	}
	content, err := readSource(p)
	if err != nil {
		return workItem{}, false, err
	}
	item := workItem{path: p, content: content, hash: store.ContentHash(content)}
	if e.store == nil {
		return item, false, nil
	}

	existing, err := e.store.FileByPath(p)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == item.hash {
		e.logger.Debug("unchanged", zap.String("path", p))
		return workItem{}, true, nil
	}

	if existing != nil {
		item.fileID = existing.ID
	} else {
		// The hash is written on commit, so a failed unit is retried next run.
		facade, _ := lang.ForFile(p)
		id, err := e.store.InsertFile(&store.File{Path: p, Language: facade.Name()})
		if err != nil {
			return workItem{}, false, fmt.Errorf("insert file: %w", err)
		}
		item.fileID = id
	}
	item.batch = store.NewBatchedStore(item.fileID)
	return item, false, nil
}

// commit writes one unit's batch and then records its hash.
func (e *Engine) commit(res workResult) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.CommitBatch(res.item.batch); err != nil {
		return err
	}
	facade, _ := lang.ForFile(res.item.path)
	return e.store.UpdateFile(&store.File{
		ID:           res.item.fileID,
		Path:         res.item.path,
		Language:     facade.Name(),
		Hash:         res.item.hash,
		LineCount:    res.out.lines,
		LastAnalyzed: time.Now(),
	})
}
