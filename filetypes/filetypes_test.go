package filetypes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmgilman/go/drives/contents"
)

func TestClassify(t *testing.T) {
	r := New([]HostFileType{
		{Name: "directory", Extensions: []string{""}, MimeTypes: []string{"text/directory"}, FileFormat: "json"},
		{Name: "notebook", Extensions: []string{".ipynb"}, MimeTypes: []string{"application/x-ipynb+json"}, FileFormat: "json"},
		{Name: "image", Extensions: []string{".png", "PNG"}, MimeTypes: []string{"image/png", "image/x-png"}, FileFormat: "base64"},
	})

	tests := []struct {
		name string
		ext  string
		want Classification
	}{
		{
			name: "registered with dot",
			ext:  ".png",
			want: Classification{Type: "image", MimeType: "image/png", Format: contents.FormatBase64},
		},
		{
			name: "case insensitive",
			ext:  "PNG",
			want: Classification{Type: "image", MimeType: "image/png", Format: contents.FormatBase64},
		},
		{
			name: "notebook forced to text",
			ext:  "ipynb",
			want: Classification{Type: "notebook", MimeType: "application/x-ipynb+json", Format: contents.FormatText},
		},
		{
			name: "unregistered falls back to default",
			ext:  "xyz",
			want: Default,
		},
		{
			name: "zero extension is the directory pseudo-type",
			ext:  "",
			want: Classification{Type: contents.TypeDirectory, MimeType: "text/directory", Format: contents.FormatJSON},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(tt.ext))
		})
	}
}

func TestClassify_NotebookOverrideWithoutRegistration(t *testing.T) {
	var r *Registry
	assert.Equal(t, contents.FormatText, r.Classify("ipynb").Format)
	assert.Equal(t, Default, r.Classify("txt"))
}

func TestNew_EmptyExtensionListIsDirectory(t *testing.T) {
	r := New([]HostFileType{{Name: "folder", FileFormat: "json"}})

	assert.Equal(t, contents.TypeDirectory, r.Classify("").Type)
	assert.Equal(t, contents.TypeDirectory, r.Directory().Type)
	assert.Equal(t, 1, r.Len())
}

func TestNew_LaterDeclarationWins(t *testing.T) {
	r := New([]HostFileType{
		{Name: "text", Extensions: []string{"json"}, MimeTypes: []string{"text/plain"}, FileFormat: "text"},
		{Name: "json", Extensions: []string{"json"}, MimeTypes: []string{"application/json"}, FileFormat: "json"},
	})

	assert.Equal(t, contents.Type("json"), r.Classify("json").Type)
}

func TestClassifyName(t *testing.T) {
	r := New(Builtin)

	assert.Equal(t, contents.Type("image"), r.ClassifyName("alpha/pics/cat.png").Type)
	assert.Equal(t, contents.TypeNotebook, r.ClassifyName("Untitled1.ipynb").Type)
	assert.Equal(t, contents.FormatText, r.ClassifyName("Untitled1.ipynb").Format)
	assert.Equal(t, Default, r.ClassifyName("Makefile"))
	assert.Equal(t, Default, r.ClassifyName(".env"))
}

func TestDirectory_Unregistered(t *testing.T) {
	r := New(nil)
	assert.Equal(t, contents.TypeDirectory, r.Directory().Type)
}
