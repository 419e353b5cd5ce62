package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

func TestReplaceThenQuery(t *testing.T) {
	t.Parallel()

	store := NewResortStore()
	ctx := context.Background()
	records := []resort.Record{
		{Name: "Small", Highest: 1200, Lowest: 900, Drop: 300},
		{Name: "Big", Highest: 3000, Lowest: 1000, Drop: 2000},
		{Name: "Mid", Highest: 2000, Lowest: 1000, Drop: 1000},
	}
	require.NoError(t, store.ReplaceRegion(ctx, "europe", records))

	got, err := store.Query(ctx, "europe", storage.DefaultSort())
	require.NoError(t, err)
	require.Equal(t, []string{"Big", "Mid", "Small"}, namesOf(got))

	got, err = store.Query(ctx, "europe", storage.NewSort("name", "ASC", 2))
	require.NoError(t, err)
	require.Equal(t, []string{"Big", "Mid"}, namesOf(got))
}

func TestReplaceIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewResortStore()
	ctx := context.Background()
	records := []resort.Record{{Name: "Only", Highest: 2, Lowest: 1, Drop: 1}}

	require.NoError(t, store.ReplaceRegion(ctx, "asia", records))
	first, err := store.Query(ctx, "asia", storage.DefaultSort())
	require.NoError(t, err)
	require.NoError(t, store.ReplaceRegion(ctx, "asia", records))
	second, err := store.Query(ctx, "asia", storage.DefaultSort())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, second, 1)
}

func TestQueryLimitsToTwenty(t *testing.T) {
	t.Parallel()

	store := NewResortStore()
	var records []resort.Record
	for i := 0; i < 30; i++ {
		records = append(records, resort.Record{Name: fmt.Sprintf("R%02d", i), Drop: float64(i)})
	}
	require.NoError(t, store.ReplaceRegion(context.Background(), "europe", records))

	got, err := store.Query(context.Background(), "europe", storage.Sort{})
	require.NoError(t, err)
	require.Len(t, got, storage.DefaultLimit)
	require.Equal(t, "R29", got[0].Name)
}

func TestQueryUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := NewResortStore().Query(context.Background(), "nowhere", storage.DefaultSort())
	require.ErrorIs(t, err, ErrNoTable)
	var pErr *storage.PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestReplaceRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	require.Error(t, NewResortStore().ReplaceRegion(context.Background(), "", nil))
}

func namesOf(records []resort.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}
