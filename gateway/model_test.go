package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/filetypes"
)

func rowsOf(keys ...string) []Row {
	rows := make([]Row, len(keys))
	for i, k := range keys {
		size := int64(10)
		if k[len(k)-1] == '/' {
			size = 0
		}
		rows[i] = Row{Path: k, LastModified: epoch.Add(time.Duration(i) * time.Minute), Size: size}
	}
	return rows
}

func names(m *contents.Model) []string {
	var out []string
	for _, c := range m.Children() {
		out = append(out, c.Name)
	}
	return out
}

func TestToDirectoryModel(t *testing.T) {
	reg := filetypes.New(filetypes.Builtin)
	rows := rowsOf(
		"docs/",
		"docs/b.txt",
		"docs/a.ipynb",
		"docs/sub/",
		"docs/sub/deep/c.png",
		"docs/nested/x.txt",
		"docs/nested/y.txt",
		"docs/empty",
	)
	rows[len(rows)-1].Size = 0

	dir := ToDirectoryModel("alpha", "docs", rows, reg)

	require.NoError(t, contents.Validate(dir))
	assert.Equal(t, "docs", dir.Name)
	assert.Equal(t, "alpha/docs", dir.Path)
	assert.Equal(t, []string{"a.ipynb", "b.txt", "empty", "nested", "sub"}, names(dir))

	byName := map[string]contents.Model{}
	for _, c := range dir.Children() {
		byName[c.Name] = c
	}

	nb := byName["a.ipynb"]
	assert.Equal(t, contents.TypeNotebook, nb.Type)
	assert.Equal(t, "alpha/docs/a.ipynb", nb.Path)
	require.NotNil(t, nb.Size)
	assert.EqualValues(t, 10, *nb.Size)
	assert.Nil(t, nb.Content)

	for _, name := range []string{"nested", "sub", "empty"} {
		c := byName[name]
		assert.Equal(t, contents.TypeDirectory, c.Type, name)
		assert.Equal(t, []contents.Model{}, c.Content, name)
		assert.Nil(t, c.Size, name)
	}
	assert.Equal(t, epoch.Add(6*time.Minute), byName["nested"].LastModified)
}

func TestToDirectoryModel_EmptyLeaves(t *testing.T) {
	reg := filetypes.New(filetypes.Builtin)
	rows := []Row{
		{Path: "src/.gitkeep", LastModified: epoch},
		{Path: "src/.keep", LastModified: epoch},
		{Path: "src/build", LastModified: epoch},
		{Path: "src/Makefile", LastModified: epoch, Size: 12},
	}

	dir := ToDirectoryModel("alpha", "src", rows, reg)
	require.NoError(t, contents.Validate(dir))

	types := map[string]contents.Type{}
	for _, c := range dir.Children() {
		types[c.Name] = c.Type
	}
	assert.Equal(t, map[string]contents.Type{
		".gitkeep": contents.TypeText,
		".keep":    contents.TypeText,
		"build":    contents.TypeDirectory,
		"Makefile": contents.TypeText,
	}, types)
}

func TestToDirectoryModel_Idempotent(t *testing.T) {
	reg := filetypes.New(filetypes.Builtin)
	rows := rowsOf("a/", "a/z.txt", "a/b/1.txt", "a/b/2.txt", "a/c.png")
	reversed := make([]Row, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	first := ToDirectoryModel("d", "a/", rows, reg)
	second := ToDirectoryModel("d", "a/", rows, reg)
	third := ToDirectoryModel("d", "a", reversed, reg)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, []string{"b", "c.png", "z.txt"}, names(first))
}

func TestToDirectoryModel_PrefixExcluded(t *testing.T) {
	dir := ToDirectoryModel("d", "a", rowsOf("a/", "a"), nil)
	assert.Empty(t, dir.Children())
}

func TestToDirectoryModel_DriveRoot(t *testing.T) {
	dir := ToDirectoryModel("alpha", "", rowsOf("top.txt", "docs/x.txt"), nil)

	assert.Equal(t, "alpha", dir.Name)
	assert.Equal(t, "alpha", dir.Path)
	assert.Equal(t, []string{"docs", "top.txt"}, names(dir))
	assert.Equal(t, "alpha/docs", dir.Children()[0].Path)
}

func TestToFileModel(t *testing.T) {
	reg := filetypes.New(filetypes.Builtin)
	row := Row{Path: "pics/cat.png", LastModified: epoch, Size: 3, Content: []byte{0x89, 'P', 'N'}}

	t.Run("unfetched", func(t *testing.T) {
		m := ToFileModel("alpha", "pics/cat.png", row, reg, false)
		assert.Equal(t, "cat.png", m.Name)
		assert.Equal(t, "alpha/pics/cat.png", m.Path)
		assert.Nil(t, m.Content)
		assert.Equal(t, contents.FormatNone, m.Format)
		assert.Equal(t, "image/png", m.MimeType)
	})

	t.Run("base64", func(t *testing.T) {
		m := ToFileModel("alpha", "pics/cat.png", row, reg, true)
		assert.Equal(t, contents.FormatBase64, m.Format)
		assert.Equal(t, "iVBO", m.Content)
	})

	t.Run("notebook as text", func(t *testing.T) {
		nb := Row{Path: "a.ipynb", Content: []byte(`{"cells":[]}`)}
		m := ToFileModel("alpha", "a.ipynb", nb, reg, true)
		assert.Equal(t, contents.FormatText, m.Format)
		assert.Equal(t, `{"cells":[]}`, m.Content)
	})

	t.Run("json format", func(t *testing.T) {
		jsonReg := filetypes.New([]filetypes.HostFileType{
			{Name: "data", Extensions: []string{"geojson"}, FileFormat: "json"},
		})
		m := ToFileModel("alpha", "map.geojson", Row{Content: []byte(`{"a":1}`)}, jsonReg, true)
		assert.Equal(t, contents.FormatJSON, m.Format)
		assert.Equal(t, json.RawMessage(`{"a":1}`), m.Content)

		m = ToFileModel("alpha", "map.geojson", Row{Content: []byte(`not json`)}, jsonReg, true)
		assert.Equal(t, contents.FormatText, m.Format)
	})
}

func TestChildNames(t *testing.T) {
	assert.Equal(t, []string{"a.txt", "sub"}, ChildNames("dir", rowsOf("dir/", "dir/a.txt", "dir/sub/x")))
}
