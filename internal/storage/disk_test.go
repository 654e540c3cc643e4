package storage

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"images/12", "images/12", false},
		{"images//12/", "images/12", false},
		{`images\12`, "images/12", false},
		{"images/../avatars/1", "avatars/1", false},
		{"../etc", "", true},
		{"images/../../etc", "", true},
		{"/etc/passwd", "", true},
		{"", "", true},
		{".", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Clean(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideRoot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("images/42", "images"))
	assert.True(t, Within("images/42", "images/"))
	assert.False(t, Within("images", "images"))
	assert.False(t, Within("avatars/1", "images"))
	assert.False(t, Within("images/../avatars/1", "images"))
	assert.False(t, Within("imagesx/1", "images"))
}

func TestDisk_Lifecycle(t *testing.T) {
	d := NewDisk(t.TempDir())

	assert.False(t, d.Exists("images/1"))
	require.NoError(t, d.MakeDir("images/1"))
	assert.True(t, d.Exists("images/1"))

	require.NoError(t, d.Put("images/1/cat.png", []byte("png")))
	assert.True(t, d.Exists("images/1/cat.png"))

	require.NoError(t, d.Delete("images/1/cat.png"))
	assert.ErrorIs(t, d.Delete("images/1/cat.png"), fs.ErrNotExist)

	require.NoError(t, d.Put("images/1/dog.png", []byte("png")))
	require.NoError(t, d.DeleteDir("images/1"))
	assert.False(t, d.Exists("images/1"))
	assert.ErrorIs(t, d.DeleteDir("images/1"), fs.ErrNotExist)

	assert.ErrorIs(t, d.Put("../escape.png", nil), ErrOutsideRoot)
}
