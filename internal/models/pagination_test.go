package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, 3, 10, 23)

	assert.Equal(t, 3, page.Pagination.CurrentPage)
	assert.Equal(t, 3, page.Pagination.LastPage)
	assert.Equal(t, 10, page.Pagination.PerPage)
	assert.Equal(t, int64(23), page.Pagination.Total)
	require.NotNil(t, page.Pagination.From)
	require.NotNil(t, page.Pagination.To)
	assert.Equal(t, 21, *page.Pagination.From)
	assert.Equal(t, 23, *page.Pagination.To)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage[string](nil, 0, 10, 0)

	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.LastPage)
	assert.Nil(t, page.Pagination.From)
	assert.Nil(t, page.Pagination.To)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(-4, 10))
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
}
