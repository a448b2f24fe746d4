package boundary

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/observability"
)

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) Resolve(_ context.Context, names []string) (*geojson.FeatureCollection, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	fc := geojson.NewFeatureCollection()
	for _, name := range names {
		f := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
		f.Properties["name"] = name
		fc.Append(f)
	}
	return fc, nil
}

func TestCachedResolver_HitSkipsInner(t *testing.T) {
	inner := &countingResolver{}
	cached := NewCachedResolver(inner, 8, observability.NewMetricsForTesting())
	ctx := context.Background()

	first, err := cached.Resolve(ctx, []string{"west", "east"})
	require.NoError(t, err)
	second, err := cached.Resolve(ctx, []string{"west", "east"})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Same(t, first, second)
}

func TestCachedResolver_KeyIgnoresNameOrder(t *testing.T) {
	inner := &countingResolver{}
	cached := NewCachedResolver(inner, 8, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := cached.Resolve(ctx, []string{"west", "east"})
	require.NoError(t, err)
	_, err = cached.Resolve(ctx, []string{"east", "west"})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedResolver_ErrorsNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("service down")}
	cached := NewCachedResolver(inner, 8, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := cached.Resolve(ctx, []string{"west"})
	require.Error(t, err)

	inner.err = nil
	_, err = cached.Resolve(ctx, []string{"west"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLRUCache(2)
	a := geojson.NewFeatureCollection()
	b := geojson.NewFeatureCollection()
	c := geojson.NewFeatureCollection()

	cache.put("a", a)
	cache.put("b", b)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put("c", c)

	_, ok = cache.get("b")
	assert.False(t, ok)
	got, ok := cache.get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = cache.get("c")
	assert.True(t, ok)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey([]string{"b", "a"}), cacheKey([]string{"a", "b"}))
	assert.NotEqual(t, cacheKey([]string{"a"}), cacheKey([]string{"a", "b"}))
}
