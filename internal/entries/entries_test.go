package entries

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// sliceSource pages over a fixed slice and records the queries it served.
type sliceSource struct {
	entries   []model.JournalEntry
	failOn    int // page number that fails, 0 = never
	limit     int // largest page the source serves, 0 = no limit
	reported  int // total to report instead of len(entries), 0 = exact
	emptyFrom int // page number from which no rows are served, 0 = never
	queries   []model.EntryQuery
}

func (s *sliceSource) Query(_ context.Context, q model.EntryQuery) (model.EntryPage, error) {
	s.queries = append(s.queries, q)
	if s.failOn != 0 && q.Page == s.failOn {
		return model.EntryPage{}, errors.New("502 bad gateway")
	}
	page := model.EntryPage{Total: len(s.entries)}
	if s.reported != 0 {
		page.Total = s.reported
	}
	if s.emptyFrom != 0 && q.Page >= s.emptyFrom {
		return page, nil
	}
	size := q.PageSize
	if s.limit != 0 {
		size = min(size, s.limit)
	}
	start := (q.Page - 1) * size
	if start >= len(s.entries) {
		return page, nil
	}
	end := min(start+size, len(s.entries))
	page.Entries = s.entries[start:end]
	return page, nil
}

func makeEntries(n int) []model.JournalEntry {
	out := make([]model.JournalEntry, n)
	for i := range out {
		out[i] = model.JournalEntry{
			ID:        fmt.Sprintf("e%03d", i),
			Date:      time.Date(2024, 1, 1+i%28, 0, 0, 0, 0, time.UTC),
			AccountID: "1010",
			Debit:     decimal.NewFromInt(int64(i + 1)),
		}
	}
	return out
}

func allQuery() model.EntryQuery {
	return model.EntryQuery{Scope: model.AllAccounts(), Page: 1, PageSize: 20}
}

func TestQuery_PassesThrough(t *testing.T) {
	src := &sliceSource{entries: makeEntries(5)}
	f := NewFetcher(src, 0, 0, zaptest.NewLogger(t))

	page, err := f.Query(context.Background(), allQuery())
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Entries, 5)
}

func TestQuery_RejectsInvalidBeforeDispatch(t *testing.T) {
	src := &sliceSource{}
	f := NewFetcher(src, 0, 0, zaptest.NewLogger(t))

	_, err := f.Query(context.Background(), model.EntryQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)
	assert.Empty(t, src.queries)
}

func TestQuery_FailureIsEmpty(t *testing.T) {
	src := &sliceSource{entries: makeEntries(3), failOn: 1}
	f := NewFetcher(src, 0, 0, zaptest.NewLogger(t))

	page, err := f.Query(context.Background(), allQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.Empty(t, page.Entries)
	assert.Zero(t, page.Total)
}

func TestAll_WalksEveryPage(t *testing.T) {
	src := &sliceSource{entries: makeEntries(23)}
	f := NewFetcher(src, 5, 0, zaptest.NewLogger(t))

	q := allQuery()
	q.Page = 3 // ignored
	got, err := f.All(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, got, 23)
	assert.Len(t, src.queries, 5)
	for i, sq := range src.queries {
		assert.Equal(t, i+1, sq.Page)
		assert.Equal(t, 5, sq.PageSize)
	}
}

func TestAll_ExactMultipleStopsOnTotal(t *testing.T) {
	src := &sliceSource{entries: makeEntries(10)}
	f := NewFetcher(src, 5, 0, zaptest.NewLogger(t))

	got, err := f.All(context.Background(), allQuery())
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Len(t, src.queries, 2)
}

func TestAll_Empty(t *testing.T) {
	src := &sliceSource{}
	f := NewFetcher(src, 5, 0, zaptest.NewLogger(t))

	got, err := f.All(context.Background(), allQuery())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, src.queries, 1)
}

func TestAll_FailedPageFailsWholeFetch(t *testing.T) {
	src := &sliceSource{entries: makeEntries(12), failOn: 2}
	f := NewFetcher(src, 5, 0, zaptest.NewLogger(t))

	got, err := f.All(context.Background(), allQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.Nil(t, got, "no partial history")
}

func TestAll_PageCap(t *testing.T) {
	src := &sliceSource{entries: makeEntries(30)}
	f := NewFetcher(src, 5, 2, zaptest.NewLogger(t))

	got, err := f.All(context.Background(), allQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyPages)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.Nil(t, got)
}

func ids(entries []model.JournalEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestAll_UnreliableSources(t *testing.T) {
	tests := []struct {
		name     string
		src      *sliceSource
		pageSize int
		wantLen  int
		wantErr  error
		queries  int
	}{
		{
			name:     "capped page size",
			src:      &sliceSource{entries: makeEntries(5), limit: 2},
			pageSize: 500,
			wantLen:  5,
			queries:  3,
		},
		{
			name:     "cap below requested size",
			src:      &sliceSource{entries: makeEntries(12), limit: 3},
			pageSize: 5,
			wantLen:  12,
			queries:  4,
		},
		{
			name:     "total too low",
			src:      &sliceSource{entries: makeEntries(12), reported: 4},
			pageSize: 5,
			wantLen:  12,
			queries:  3,
		},
		{
			name:     "empty page before total",
			src:      &sliceSource{entries: makeEntries(12), emptyFrom: 2},
			pageSize: 5,
			wantErr:  ErrIncomplete,
			queries:  2,
		},
		{
			name:     "total too high",
			src:      &sliceSource{entries: makeEntries(12), reported: 20},
			pageSize: 5,
			wantErr:  ErrIncomplete,
			queries:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.src, tt.pageSize, 0, zaptest.NewLogger(t))

			got, err := f.All(context.Background(), allQuery())
			assert.Len(t, tt.src.queries, tt.queries)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrLedgerUnavailable)
				assert.Nil(t, got, "no partial history")
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, ids(tt.src.entries), ids(got), "every row exactly once, in served order")
		})
	}
}

func TestAll_CappedSourceAdaptsPageSize(t *testing.T) {
	src := &sliceSource{entries: makeEntries(5), limit: 2}
	f := NewFetcher(src, 500, 0, zaptest.NewLogger(t))

	_, err := f.All(context.Background(), allQuery())
	require.NoError(t, err)
	require.Len(t, src.queries, 3)
	assert.Equal(t, 500, src.queries[0].PageSize)
	for i, q := range src.queries[1:] {
		assert.Equal(t, 2, q.PageSize)
		assert.Equal(t, i+2, q.Page)
	}
}
