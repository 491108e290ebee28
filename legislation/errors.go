package legislation

import "fmt"

// FetchError reports a failed retrieval: transport errors, non-2xx statuses
// and oversized bodies.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return "failed to fetch data: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a document that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "could not parse document: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a metadata element or attribute absent from an
// otherwise well-formed document.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("document is missing %s (%s)", e.Field, e.Path)
}
