package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Keep-alive connections of the test client may still be closing
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func TestAll(t *testing.T) {
	documents := All()
	require.Len(t, documents, 2)

	assert.Equal(t, "General Financial Rules (GFR) 2017", documents[0].Title)
	assert.Equal(t, "/documents/gfr-2017.pdf", documents[0].Path)
	assert.Equal(t, "2.4 MB", documents[0].Size)
	assert.Equal(t, "March 2017", documents[0].LastUpdated)

	assert.Equal(t, "Procurement Manual (PM) 2025", documents[1].Title)
	assert.Equal(t, "/documents/pm-2025.pdf", documents[1].Path)
	assert.Equal(t, "3.1 MB", documents[1].Size)
	assert.Equal(t, "January 2025", documents[1].LastUpdated)

	documents[0].Title = "changed"
	assert.Equal(t, "General Financial Rules (GFR) 2017", All()[0].Title)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSlug string
		wantErr  bool
	}{
		{name: "slug", input: "gfr", wantSlug: "gfr"},
		{name: "slug upper case", input: "PM", wantSlug: "pm"},
		{name: "source", input: "GFR 2017", wantSlug: "gfr"},
		{name: "file name", input: "pm-2025.pdf", wantSlug: "pm"},
		{name: "file stem", input: "gfr-2017", wantSlug: "gfr"},
		{name: "unknown", input: "cvc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Lookup(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown document")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, doc.Slug)
		})
	}
}

func TestDocumentURL(t *testing.T) {
	doc, err := Lookup("gfr")
	require.NoError(t, err)

	assert.Equal(t, "gfr-2017.pdf", doc.FileName())
	assert.Equal(t, "https://suvidha.example/documents/gfr-2017.pdf", doc.URL("https://suvidha.example/"))
}

func newDocumentServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents/gfr-2017.pdf":
			w.Write([]byte("%PDF-1.4 gfr"))
		case "/documents/pm-2025.pdf":
			w.Write([]byte("%PDF-1.4 procurement manual"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDownload(t *testing.T) {
	server := newDocumentServer(t)
	dir := filepath.Join(t.TempDir(), "downloads")

	doc, err := Lookup("gfr")
	require.NoError(t, err)

	res, err := Download(context.Background(), server.Client(), server.URL, doc, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "gfr-2017.pdf"), res.Path)
	assert.Equal(t, int64(len("%PDF-1.4 gfr")), res.Bytes)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 gfr", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are removed")
}

func TestDownload_NotFound(t *testing.T) {
	server := newDocumentServer(t)
	dir := t.TempDir()

	doc := Document{Slug: "x", Path: "/documents/missing.pdf"}
	_, err := Download(context.Background(), server.Client(), server.URL, doc, dir)
	assert.ErrorContains(t, err, "status 404")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadAll(t *testing.T) {
	server := newDocumentServer(t)
	dir := t.TempDir()

	results, err := DownloadAll(context.Background(), server.Client(), server.URL, All(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "gfr", results[0].Document.Slug)
	assert.Equal(t, "pm", results[1].Document.Slug)
	for _, res := range results {
		data, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "%PDF-1.4"))
	}
}

func TestDownloadAll_Error(t *testing.T) {
	server := newDocumentServer(t)

	documents := append(All(), Document{Slug: "missing", Path: "/documents/missing.pdf"})
	_, err := DownloadAll(context.Background(), server.Client(), server.URL, documents, t.TempDir())
	assert.ErrorContains(t, err, "missing.pdf")
}

func TestAboutMentionsDocuments(t *testing.T) {
	for _, doc := range All() {
		assert.Contains(t, About, doc.Source)
	}
}
