package meter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/catalog/catalogtest"
)

func TestWhereChainCountsEveryHop(t *testing.T) {
	store := catalogtest.NewStore()
	store.Components.Add(catalog.Component{Name: "zlib", Version: "1.3", Active: true})

	counter := NewCounter()
	c := Wrap(store.Client(), counter, PolicyEveryCall)

	got, err := catalog.From(c.Components).
		Where("name", catalog.OpEq, "zlib").
		Where("version", catalog.OpEq, "1.3").
		Where("active", catalog.OpEq, "true").
		First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(4), counter.Count())
}

func TestRoundTripPolicySkipsWhere(t *testing.T) {
	store := catalogtest.NewStore()
	counter := NewCounter()
	c := Wrap(store.Client(), counter, PolicyRoundTrips)

	_, err := catalog.From(c.Components).
		Where("name", catalog.OpEq, "zlib").
		Where("version", catalog.OpEq, "1.3").
		First(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), counter.Count())
	// the underlying repository still sees every hop
	assert.Equal(t, 2, store.Components.Calls("where"))
}

func TestMeterCountsEveryOperation(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore()
	counter := NewCounter()
	c := Wrap(store.Client(), counter, PolicyEveryCall)

	ml := catalog.MonitoringList{Name: "list", Comment: "comment"}
	require.NoError(t, c.MonitoringLists.Create(ctx, &ml))
	require.NoError(t, c.MonitoringLists.Update(ctx, &ml))
	_, err := catalog.From(c.Notifications).Where("monitoringLists.id", catalog.OpAny, ml.ID).All(ctx)
	require.NoError(t, err)
	_, err = c.Vulnerabilities.All(ctx, catalog.Query{})
	require.NoError(t, err)

	// create + update + where + all + all
	assert.Equal(t, int64(5), counter.Count())
}

func TestMeterIsTransparent(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore()
	store.Components.FailOn("first", errors.New("boom"))
	counter := NewCounter()
	c := Wrap(store.Client(), counter, PolicyEveryCall)

	got, err := c.Components.First(ctx, catalog.Query{})
	assert.Nil(t, got)
	assert.True(t, catalog.IsServiceError(err))
	// failed calls are still billed
	assert.Equal(t, int64(1), counter.Count())

	// zero results pass through unchanged
	ml, err := c.MonitoringLists.First(ctx, catalog.Query{})
	require.NoError(t, err)
	assert.Nil(t, ml)
}

func TestWrapDoesNotTouchOriginal(t *testing.T) {
	store := catalogtest.NewStore()
	raw := store.Client()
	counter := NewCounter()
	_ = Wrap(raw, counter, PolicyEveryCall)

	_, err := raw.Components.All(context.Background(), catalog.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counter.Count())
}

func TestCounterConcurrent(t *testing.T) {
	counter := NewCounter()
	c := Wrap(catalogtest.NewStore().Client(), counter, PolicyEveryCall)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = catalog.From(c.Components).Where("name", catalog.OpEq, "x").First(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), counter.Count())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicyEveryCall},
		{in: "every-call", want: PolicyEveryCall},
		{in: "round-trips", want: PolicyRoundTrips},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}

func TestEstimate(t *testing.T) {
	c := Estimate(40, 0.05, "EUR")
	assert.Equal(t, int64(40), c.Calls)
	assert.InDelta(t, 2.0, c.Weekly, 1e-9)
	assert.InDelta(t, 8.0, c.Monthly, 1e-9)
	assert.InDelta(t, 104.0, c.Yearly, 1e-9)
	assert.Equal(t, "EUR", c.Currency)

	zero := Estimate(0, 0.05, "EUR")
	assert.Zero(t, zero.Yearly)
}
