// Package entries fetches journal entries from a source and collapses
// transport failures into an empty result.
package entries

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerview/internal/metrics"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// ErrLedgerUnavailable is wrapped when entries could not be fetched.
var ErrLedgerUnavailable = errors.New("could not load ledger")

// ErrTooManyPages is wrapped when the filtered set spans more pages than
// the fetcher is allowed to walk.
var ErrTooManyPages = errors.New("filtered set exceeds the page cap")

// ErrIncomplete is wrapped when the source stops serving rows before the
// total it reported.
var ErrIncomplete = errors.New("source ended before the reported total")

// Defaults for walking every page of a filtered set.
const (
	DefaultPageSize = 500
	DefaultMaxPages = 200
)

// Source returns one page of entries matching a query plus the size of the
// whole filtered set. Sources do not guarantee any ordering.
type Source interface {
	Query(ctx context.Context, q model.EntryQuery) (model.EntryPage, error)
}

// Fetcher wraps a Source.
type Fetcher struct {
	source   Source
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher. Non-positive sizes use the defaults.
func NewFetcher(source Source, pageSize, maxPages int, logger *zap.Logger) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{source: source, pageSize: pageSize, maxPages: maxPages, logger: logger}
}

// Query fetches one page. Invalid queries are rejected before dispatch.
// Source failures return an empty page and an error wrapping
// ErrLedgerUnavailable.
func (f *Fetcher) Query(ctx context.Context, q model.EntryQuery) (model.EntryPage, error) {
	if err := q.Validate(); err != nil {
		return model.EntryPage{}, err
	}
	page, err := f.source.Query(ctx, q)
	if err != nil {
		f.fail(q, err)
		return model.EntryPage{}, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	metrics.RecordEntriesFetched(len(page.Entries))
	return page, nil
}

// All fetches the complete filtered set, ignoring q's Page and PageSize.
// The walk ends once Total entries have arrived. A source that returns
// fewer rows than asked for is treated as capping its page size, and the
// walk continues at that size. A Total lower than the rows already received
// is not trusted: the walk then ends on the first short page. Any failed
// page, an empty page before Total is reached, or running past the page cap
// fails the whole fetch so a partial history is never returned.
func (f *Fetcher) All(ctx context.Context, q model.EntryQuery) ([]model.JournalEntry, error) {
	q.Page = 1
	q.PageSize = f.pageSize
	if err := q.Validate(); err != nil {
		return nil, err
	}

	size := f.pageSize
	var all []model.JournalEntry
	for n := 0; n < f.maxPages; n++ {
		q.PageSize = size
		q.Page = len(all)/size + 1
		page, err := f.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		got := len(page.Entries)
		all = append(all, page.Entries...)

		switch {
		case len(all) == page.Total:
			return all, nil
		case len(all) > page.Total:
			if got < size {
				return all, nil
			}
		case got == 0:
			return nil, f.incomplete(q, len(all), page.Total)
		case got < size:
			// Offsets are page * size, so the next page must start exactly
			// where this one ended.
			if len(all)%got != 0 {
				return nil, f.incomplete(q, len(all), page.Total)
			}
			f.logger.Debug("source capped the page size",
				zap.Int("requested", size),
				zap.Int("served", got))
			size = got
		}
	}

	f.logger.Warn("entry fetch hit the page cap",
		zap.Int("max_pages", f.maxPages),
		zap.Int("fetched", len(all)),
		zap.Stringer("scope", q.Scope))
	metrics.RecordFetchFailure("entries")
	return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, ErrTooManyPages)
}

func (f *Fetcher) incomplete(q model.EntryQuery, fetched, total int) error {
	f.logger.Warn("entry source ended before its reported total",
		zap.Stringer("scope", q.Scope),
		zap.Int("page", q.Page),
		zap.Int("fetched", fetched),
		zap.Int("total", total))
	metrics.RecordFetchFailure("entries")
	return fmt.Errorf("%w: %w (%d of %d)", ErrLedgerUnavailable, ErrIncomplete, fetched, total)
}

func (f *Fetcher) fail(q model.EntryQuery, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	metrics.RecordFetchFailure("entries")
	f.logger.Warn("entry fetch failed",
		zap.Stringer("scope", q.Scope),
		zap.Int("page", q.Page),
		zap.Error(err))
}
