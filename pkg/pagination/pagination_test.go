package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 30, NormalizeLimit(30))
	assert.Equal(t, MaxLimit, NormalizeLimit(5000))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 12}.Offset())
	assert.Equal(t, 24, Params{Page: 3, Limit: 12}.Offset())
	assert.Equal(t, 0, Params{Page: 0, Limit: 0}.Offset())
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(Params{Page: 2, Limit: 10}, 35)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 4, meta.TotalPages)
	assert.Equal(t, int64(35), meta.TotalCount)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)

	last := BuildMeta(Params{Page: 4, Limit: 10}, 35)
	assert.False(t, last.HasNextPage)
	assert.True(t, last.HasPrevPage)
}

func TestBuildMetaEmptyResult(t *testing.T) {
	meta := BuildMeta(Params{Page: 1, Limit: 12}, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.Equal(t, int64(0), meta.TotalCount)
	assert.False(t, meta.HasNextPage)
	assert.False(t, meta.HasPrevPage)
}
