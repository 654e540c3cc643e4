package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_TracksPresence(t *testing.T) {
	var req struct {
		Excerpt   Optional[string] `json:"excerpt"`
		Published Optional[bool]   `json:"published"`
		Path      Optional[string] `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"excerpt":"hi","published":null}`), &req))

	assert.True(t, req.Excerpt.Set)
	require.NotNil(t, req.Excerpt.Value)
	assert.Equal(t, "hi", *req.Excerpt.Value)

	assert.True(t, req.Published.Set)
	assert.Nil(t, req.Published.Value)

	assert.False(t, req.Path.Set)
	stored := "images/1"
	assert.Equal(t, &stored, req.Path.Or(&stored))
	assert.Nil(t, req.Published.Or(ptr(true)))
}
