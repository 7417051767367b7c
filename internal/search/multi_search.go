package search

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/services"
)

// maxMultiSearchWorkers bounds how many named queries of one request run at once.
var maxMultiSearchWorkers = runtime.GOMAXPROCS(0)

// MultiSearch runs named queries concurrently against the index and returns their results by
// name. Page and page size apply to every query. The first failing query cancels the rest and
// its error is returned; a cancelled ctx stops the request as well.
func (s *Service) MultiSearch(ctx context.Context, multiQuery services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	start := time.Now()

	if err := validateNamedQueries(multiQuery.Queries); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := maxMultiSearchWorkers
	if workers > len(multiQuery.Queries) {
		workers = len(multiQuery.Queries)
	}
	jobs := make(chan services.NamedSearchQuery)

	var (
		mu       sync.Mutex
		results  = make(map[string]services.SearchResult, len(multiQuery.Queries))
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for nq := range jobs {
				result, err := s.Search(services.SearchQuery{
					Query:            nq.Query,
					Page:             multiQuery.Page,
					PageSize:         multiQuery.PageSize,
					Explain:          nq.Explain,
					RetrivableFields: nq.RetrivableFields,
				})
				if err != nil {
					fail(fmt.Errorf("error executing query '%s': %w", nq.Name, err))
					continue
				}
				mu.Lock()
				results[nq.Name] = result
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, nq := range multiQuery.Queries {
		select {
		case jobs <- nq:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("multi-search cancelled: %w", err)
	}

	s.logger.Debug("multi-search completed",
		zap.String("index", s.settings.Name),
		zap.Int("queries", len(multiQuery.Queries)),
		zap.Duration("took", time.Since(start)))

	return &services.MultiSearchResult{
		Results:          results,
		TotalQueries:     len(multiQuery.Queries),
		ProcessingTimeMs: float64(time.Since(start).Nanoseconds()) / 1e6,
	}, nil
}

func validateNamedQueries(queries []services.NamedSearchQuery) error {
	if len(queries) == 0 {
		return apperrors.NewValidationError("queries", "at least one query is required")
	}
	seen := make(map[string]struct{}, len(queries))
	for _, nq := range queries {
		if nq.Name == "" {
			return apperrors.NewValidationError("queries", "each query must have a non-empty name")
		}
		if _, dup := seen[nq.Name]; dup {
			return apperrors.NewValidationError("queries", fmt.Sprintf("duplicate query name '%s'", nq.Name))
		}
		seen[nq.Name] = struct{}{}
	}
	return nil
}
