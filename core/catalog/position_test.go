package catalog_test

import (
	"testing"

	"inventory-reconciler/core/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_RoundTrip(t *testing.T) {
	p := catalog.Position{PageNum: 3, Seen: 4000, SearchAfter: `["mod09gq:a",1234]`}
	got, err := catalog.ParsePosition(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	start, err := catalog.ParsePosition("")
	require.NoError(t, err)
	assert.Equal(t, catalog.Start(), start)
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, s := range []string{"x", "1:2", "0:0:", "a:0:", "1:-1:", "1:b:"} {
		_, err := catalog.ParsePosition(s)
		assert.Error(t, err, s)
	}
}

func TestPosition_Advance(t *testing.T) {
	tests := []struct {
		name     string
		pos      catalog.Position
		n, hits  int
		wantDone bool
	}{
		{"FullPageMoreHits", catalog.Position{PageNum: 1}, 10, 25, false},
		{"ShortPage", catalog.Position{PageNum: 3, Seen: 20}, 5, 25, true},
		{"EmptyPage", catalog.Position{PageNum: 2, Seen: 10}, 0, 25, true},
		{"HitsReached", catalog.Position{PageNum: 2, Seen: 10}, 10, 20, true},
		{"UnknownHits", catalog.Position{PageNum: 1}, 10, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, done := tt.pos.Advance(tt.n, tt.hits, 10, "sa")
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, tt.pos.PageNum+1, next.PageNum)
			assert.Equal(t, tt.pos.Seen+tt.n, next.Seen)
			assert.Equal(t, "sa", next.SearchAfter)
		})
	}
}

func TestConfig_EffectivePageSize(t *testing.T) {
	assert.Equal(t, 2000, catalog.Config{}.EffectivePageSize())
	assert.Equal(t, 2000, catalog.Config{PageSize: 5000}.EffectivePageSize())
	assert.Equal(t, 50, catalog.Config{PageSize: 50}.EffectivePageSize())
}
