package artifact

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/team"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	reg, err := team.Register([]string{"NYY", "BOS", "TOR"})
	require.NoError(t, err)

	leafValue := 0.8
	model := &ml.EnsembleModel{
		Version:     "2024.1",
		NumFeatures: 2,
		Classes:     []team.ID{0, 1},
		Trees: []ml.Tree{
			{Class: 0, Nodes: []ml.TreeNode{{Leaf: &leafValue}}},
		},
	}
	return NewBundle("2024.1", reg, model)
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"model.json", "model.msgpack"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := testBundle(t)

			require.NoError(t, Save(path, want))
			got, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, want, got)

			reg, err := got.Registry()
			require.NoError(t, err)
			assert.Equal(t, []string{"NYY", "BOS", "TOR"}, reg.Abbreviations())
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a/model.json", FormatJSON, false},
		{"model.MSGPACK", FormatMsgpack, false},
		{"model.mp", FormatMsgpack, false},
		{"model.pkl", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejectsInconsistentTables(t *testing.T) {
	b := testBundle(t)
	b.IDToAbbr[1] = "TOR"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, FormatJSON))
	_, err := Decode(&buf, FormatJSON)
	assert.ErrorIs(t, err, team.ErrInconsistentTables)
}

func TestDecodeRejectsUnmappedClass(t *testing.T) {
	b := testBundle(t)
	b.Model.Classes = []team.ID{0, 7}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, FormatMsgpack))
	_, err := Decode(&buf, FormatMsgpack)
	assert.ErrorIs(t, err, ErrClassNotRegistered)
}

func TestTablesOnlyBundle(t *testing.T) {
	b := testBundle(t)
	b.Model = nil

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, FormatJSON))
	got, err := Decode(&buf, FormatJSON)
	require.NoError(t, err)
	assert.Nil(t, got.Model)
}
