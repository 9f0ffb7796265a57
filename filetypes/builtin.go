package filetypes

// Builtin is the type list used when the host declares none.
var Builtin = []HostFileType{
	{Name: "directory", Extensions: []string{""}, MimeTypes: []string{"text/directory"}, FileFormat: "json"},
	{Name: "notebook", Extensions: []string{".ipynb"}, MimeTypes: []string{"application/x-ipynb+json"}, FileFormat: "json"},
	{Name: "text", Extensions: []string{".txt", ".md", ".csv", ".log"}, MimeTypes: []string{"text/plain"}, FileFormat: "text"},
	{Name: "file", Extensions: []string{".py"}, MimeTypes: []string{"text/x-python"}, FileFormat: "text"},
	{Name: "json", Extensions: []string{".json"}, MimeTypes: []string{"application/json"}, FileFormat: "text"},
	{Name: "yaml", Extensions: []string{".yaml", ".yml"}, MimeTypes: []string{"application/x-yaml"}, FileFormat: "text"},
	{Name: "image", Extensions: []string{".png"}, MimeTypes: []string{"image/png"}, FileFormat: "base64"},
	{Name: "image", Extensions: []string{".jpg", ".jpeg"}, MimeTypes: []string{"image/jpeg"}, FileFormat: "base64"},
	{Name: "pdf", Extensions: []string{".pdf"}, MimeTypes: []string{"application/pdf"}, FileFormat: "base64"},
	{Name: "archive", Extensions: []string{".zip"}, MimeTypes: []string{"application/zip"}, FileFormat: "base64"},
}
