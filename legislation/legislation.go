// Package legislation fetches and parses legislation.gov.uk contents documents.
package legislation

import (
	"context"

	"go.uber.org/zap"
)

const (
	base = "https://www.legislation.gov.uk"

	// DefaultURL is the contents document of The Power to Award Degrees etc.
	// (Higher Education Corporations) Order 2024.
	DefaultURL = base + "/uksi/2024/979/contents/made/data.xml"
)

// Namespaces used by legislation.gov.uk documents.
const (
	NamespaceLegislation = "http://www.legislation.gov.uk/namespaces/legislation"
	NamespaceMetadata    = "http://www.legislation.gov.uk/namespaces/metadata"
	NamespaceDublinCore  = "http://purl.org/dc/elements/1.1/"
)

type Metadata struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	MadeDate        string `json:"made_date"`
	ComingIntoForce string `json:"coming_into_force"`
}

// Item is one entry of the table of contents. Link is nil when the entry has
// no DocumentURI.
type Item struct {
	Number string  `json:"number"`
	Title  string  `json:"title"`
	Link   *string `json:"link"`
}

type Document struct {
	Metadata
	Items []Item `json:"items"`
}

// Load fetches url with f and parses the result.
func Load(ctx context.Context, f Fetcher, url string, log *zap.Logger) (Document, error) {
	raw, err := f.Fetch(ctx, url)
	if err != nil {
		return Document{}, err
	}

	p, err := NewParser(raw, log)
	if err != nil {
		return Document{}, err
	}
	return p.Document()
}
