// Package docs describes the reference documents the assistant answers from
// and downloads them from the web host.
package docs

import (
	"fmt"
	"path"
	"strings"
)

// Document is a downloadable reference document. The metadata is descriptive
// only; it is not checked against the file served at Path.
type Document struct {
	Slug        string
	Title       string
	Source      string // Citation source name used by the assistant
	Description string
	Path        string // URL path on the web host
	Size        string
	LastUpdated string
}

// FileName returns the base name of the document file
func (d Document) FileName() string {
	return path.Base(d.Path)
}

// URL returns the download URL of the document on the given host
func (d Document) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + d.Path
}

var catalog = []Document{
	{
		Slug:        "gfr",
		Title:       "General Financial Rules (GFR) 2017",
		Source:      "GFR 2017",
		Description: "The General Financial Rules (GFR) 2017 is a comprehensive document that contains rules and orders for regulating the financial matters of the Government of India. It covers various aspects of financial management including budgeting, accounting, procurement, and audit procedures.",
		Path:        "/documents/gfr-2017.pdf",
		Size:        "2.4 MB",
		LastUpdated: "March 2017",
	},
	{
		Slug:        "pm",
		Title:       "Procurement Manual (PM) 2025",
		Source:      "PM 2025",
		Description: "The Procurement Manual 2025 provides detailed guidelines and procedures for procurement of goods, services, and works by government departments. It includes best practices, standard procedures, and regulatory requirements for transparent and efficient procurement processes.",
		Path:        "/documents/pm-2025.pdf",
		Size:        "3.1 MB",
		LastUpdated: "January 2025",
	},
}

// All returns the documents in display order
func All() []Document {
	out := make([]Document, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a document by slug, source name or file name (case-insensitive)
func Lookup(name string) (Document, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, doc := range catalog {
		if name == doc.Slug ||
			name == strings.ToLower(doc.Source) ||
			name == doc.FileName() ||
			name == strings.TrimSuffix(doc.FileName(), ".pdf") {
			return doc, nil
		}
	}

	slugs := make([]string, len(catalog))
	for i, doc := range catalog {
		slugs[i] = doc.Slug
	}
	return Document{}, fmt.Errorf("unknown document: %s (available: %s)", name, strings.Join(slugs, ", "))
}
