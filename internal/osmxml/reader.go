// Package osmxml streams the first-level elements of an OSM XML export.
package osmxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"osmclean/internal/models"
)

// Reader errors.
var (
	ErrNoRoot           = errors.New("document has no root element")
	ErrContentAfterRoot = errors.New("element after document end")
)

// Reader hands out one fully materialised child of the root element per call.
// Child order inside each element is preserved.
type Reader struct {
	dec   *xml.Decoder
	root  *models.Element
	stack []*models.Element
	done  bool
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Root returns the root element without children, once the first call to Next has read it.
func (r *Reader) Root() *models.Element {
	return r.root
}

// Next returns the next first-level element, or io.EOF when the root closes.
func (r *Reader) Next() (*models.Element, error) {
	if r.done {
		return nil, io.EOF
	}

	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			r.done = true

			if r.root == nil {
				return nil, ErrNoRoot
			}

			return nil, io.EOF
		}

		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &models.Element{Kind: t.Name.Local, Attrs: attrs(t.Attr)}

			if r.root == nil {
				r.root = el
				r.stack = append(r.stack, el)

				continue
			}

			if len(r.stack) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrContentAfterRoot, t.Name.Local)
			}

			// first-level elements are handed out, not attached to the root
			if len(r.stack) > 1 {
				parent := r.stack[len(r.stack)-1]
				parent.Children = append(parent.Children, el)
			}

			r.stack = append(r.stack, el)
		case xml.EndElement:
			if len(r.stack) == 0 {
				continue
			}

			el := r.stack[len(r.stack)-1]
			r.stack = r.stack[:len(r.stack)-1]

			if len(r.stack) == 1 {
				return el, nil
			}
		}
	}
}

func attrs(in []xml.Attr) map[string]string {
	out := make(map[string]string, len(in))
	for _, a := range in {
		out[a.Name.Local] = a.Value
	}

	return out
}

// File is a Reader over an open export file.
type File struct {
	*Reader
	f *os.File
}

// Open opens an export file for streaming.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}

	return &File{Reader: NewReader(f), f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}
