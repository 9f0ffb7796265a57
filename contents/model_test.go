package contents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/drives/errors"
)

func TestNewDirectory(t *testing.T) {
	dir := NewDirectory("docs", "alpha/docs", time.Time{}, nil)

	assert.True(t, dir.IsDir())
	assert.NotNil(t, dir.Children())
	assert.Empty(t, dir.Children())
	assert.Nil(t, dir.Size)
	assert.NoError(t, Validate(dir))
}

func TestNewFile(t *testing.T) {
	f := NewFile("a.txt", "alpha/a.txt", time.Time{}, 12, TypeFile, "text/plain", FormatText)

	assert.False(t, f.IsDir())
	require.NotNil(t, f.Size)
	assert.EqualValues(t, 12, *f.Size)
	assert.Nil(t, f.Content)
	assert.NoError(t, Validate(f))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		model   *Model
		wantErr bool
	}{
		{
			name:    "nil model",
			model:   nil,
			wantErr: true,
		},
		{
			name:    "missing type",
			model:   &Model{Name: "x"},
			wantErr: true,
		},
		{
			name:    "directory without list",
			model:   &Model{Name: "d", Type: TypeDirectory},
			wantErr: true,
		},
		{
			name:    "directory with size",
			model:   &Model{Name: "d", Type: TypeDirectory, Content: []Model{}, Size: SizeOf(0)},
			wantErr: true,
		},
		{
			name:    "file with list",
			model:   &Model{Name: "f", Type: TypeFile, Content: []Model{}},
			wantErr: true,
		},
		{
			name:    "unknown format",
			model:   &Model{Name: "f", Type: TypeFile, Format: "yaml"},
			wantErr: true,
		},
		{
			name: "invalid child",
			model: NewDirectory("d", "a/d", time.Time{}, []Model{
				{Name: "bad", Type: TypeDirectory},
			}),
			wantErr: true,
		},
		{
			name:  "fetched file",
			model: &Model{Name: "f", Type: TypeFile, Content: "hello", Format: FormatText, Size: SizeOf(5)},
		},
		{
			name: "nested directory",
			model: NewDirectory("d", "a/d", time.Time{}, []Model{
				*NewDirectory("e", "a/d/e", time.Time{}, nil),
				*NewFile("f.txt", "a/d/f.txt", time.Time{}, 1, TypeFile, "text/plain", FormatText),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.model)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestModelJSON(t *testing.T) {
	f := NewFile("a.txt", "alpha/a.txt", time.Time{}, 3, TypeFile, "text/plain", FormatText)
	data, err := json.Marshal(f)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"name": "a.txt",
		"path": "alpha/a.txt",
		"content": null,
		"format": "text",
		"mimetype": "text/plain",
		"size": 3,
		"writable": true,
		"type": "file"
	}`, string(data))
}
