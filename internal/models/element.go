// Package models defines the data structures shared by the reader, the audit pass and the normalizer.
package models

// Element kinds found in an OSM XML export.
const (
	KindRoot     = "osm"
	KindBounds   = "bounds"
	KindNote     = "note"
	KindMeta     = "meta"
	KindNode     = "node"
	KindWay      = "way"
	KindRelation = "relation"
	KindTag      = "tag"
	KindNd       = "nd"
	KindMember   = "member"
)

// Element is one node of the source tree as handed over by the reader.
type Element struct {
	Attrs    map[string]string
	Kind     string
	Children []*Element
}

// Attr returns the named attribute and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]

	return v, ok
}

// Tag returns the key/value view of a tag element.
// The second value is false for any other kind or when the key is empty.
func (e *Element) Tag() (Tag, bool) {
	if e.Kind != KindTag {
		return Tag{}, false
	}

	k := e.Attrs["k"]
	if k == "" {
		return Tag{}, false
	}

	return Tag{Key: k, Value: e.Attrs["v"]}, true
}

// Walk calls fn for e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)

	for _, child := range e.Children {
		child.Walk(fn)
	}
}

// Tag is a key/value pair attached to an element.
type Tag struct {
	Key   string
	Value string
}

// ElementSource hands out first-level elements in document order.
// Next returns io.EOF once the source is exhausted.
type ElementSource interface {
	Next() (*Element, error)
}
