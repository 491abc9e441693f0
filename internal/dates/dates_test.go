package dates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

func newTestService() (*Service, *store.MemStore) {
	mem := store.NewMemStore()
	return NewService(mem, zap.NewNop()), mem
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(DateFormat, value)
	require.NoError(t, err)
	return parsed
}

func TestRecord_IsIdempotent(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	when := day(t, "2025-03-01")
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, "acme", when))
	}

	assert.Equal(t, 1, mem.Len())
}

func TestRecord_SitesDoNotShareBuckets(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	when := day(t, "2025-03-01")
	require.NoError(t, svc.Record(ctx, "acme", when))
	require.NoError(t, svc.Record(ctx, "", when))

	assert.Equal(t, 2, mem.Len())
}

func TestMostRecent_PagesNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Twenty days spread over January through May 2025.
	months := []time.Month{time.January, time.February, time.March, time.April, time.May}
	var want []string
	for _, m := range months {
		for _, d := range []int{3, 9, 17, 24} {
			when := time.Date(2025, m, d, 12, 0, 0, 0, time.UTC)
			require.NoError(t, svc.Record(ctx, "", when))
			want = append(want, when.Format(DateFormat))
		}
	}
	// Newest first.
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}

	var got []string
	cursor := ""
	pages := 0
	for {
		page, err := svc.MostRecent(ctx, "", cursor, 10)
		require.NoError(t, err)
		pages++
		for _, item := range page.Items {
			got = append(got, DateOf(item))
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, want, got)
	assert.Equal(t, 2, pages)
}

func TestOnOrBefore(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, d := range []string{"2025-01-10", "2025-02-10", "2025-03-10", "2025-04-10"} {
		require.NoError(t, svc.Record(ctx, "", day(t, d)))
	}

	page, err := svc.OnOrBefore(ctx, "", "2025-03-10", "", 10)
	require.NoError(t, err)

	var got []string
	for _, item := range page.Items {
		got = append(got, DateOf(item))
	}
	assert.Equal(t, []string{"2025-03-10", "2025-02-10", "2025-01-10"}, got)
}

func TestOnOrBefore_GapDateReturnsNearestEarlierBuckets(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, d := range []string{"2025-01-10", "2025-02-10", "2025-03-10", "2025-04-10"} {
		require.NoError(t, svc.Record(ctx, "", day(t, d)))
	}

	// No bucket exists for the queried day itself; the scan lands on
	// the nearest earlier ones instead of erroring.
	page, err := svc.OnOrBefore(ctx, "", "2025-03-15", "", 10)
	require.NoError(t, err)

	var got []string
	for _, item := range page.Items {
		got = append(got, DateOf(item))
	}
	assert.Equal(t, []string{"2025-03-10", "2025-02-10", "2025-01-10"}, got)
}

func TestOnOrBefore_RejectsMalformedDate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.OnOrBefore(context.Background(), "", "03/10/2025", "", 10)
	assert.True(t, apperrors.IsValidation(err))
}
