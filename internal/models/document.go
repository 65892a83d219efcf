package models

import (
	"bytes"
	"encoding/json"
)

// Structural document keys. Tags never write over these.
const (
	FieldID      = "_id"
	FieldElement = "element"
	FieldCreated = "created"
	FieldPos     = "pos"
	FieldAddress = "address"
	FieldMember  = "member"
	FieldNd      = "nd"
)

// IsStructuralField reports whether key is reserved by the document layout.
func IsStructuralField(key string) bool {
	switch key {
	case FieldID, FieldElement, FieldCreated, FieldPos, FieldAddress, FieldMember, FieldNd:
		return true
	}

	return false
}

// Created holds the versioning and provenance block of a document.
type Created struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Changeset int64  `json:"changeset"`
	UID       int64  `json:"uid"`
	Version   int64  `json:"version"`
}

// Member is the last relation member seen on an element.
type Member struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Ref  int64  `json:"ref"`
}

// Document is the flat record produced for one source element.
type Document struct {
	Address map[string]string
	Fields  map[string]string
	Member  *Member
	Element string
	Pos     []float64
	Nd      []int64
	Created Created
	ID      int64
}

// NewDocument creates a document with its structural fields set.
func NewDocument(id int64, kind string, created Created) *Document {
	return &Document{
		ID:      id,
		Element: kind,
		Created: created,
		Fields:  map[string]string{},
	}
}

// Field returns a top-level scalar field.
func (d *Document) Field(key string) (string, bool) {
	v, ok := d.Fields[key]

	return v, ok
}

// SetField writes a top-level scalar field, replacing any previous value.
func (d *Document) SetField(key, value string) {
	if d.Fields == nil {
		d.Fields = map[string]string{}
	}

	d.Fields[key] = value
}

// AppendField joins value onto an existing field with ";".
// It returns false and leaves the document untouched when the field does not exist.
func (d *Document) AppendField(key, value string) bool {
	cur, ok := d.Fields[key]
	if !ok {
		return false
	}

	d.Fields[key] = cur + ";" + value

	return true
}

// SetAddress writes one address component.
func (d *Document) SetAddress(key, value string) {
	if d.Address == nil {
		d.Address = map[string]string{}
	}

	d.Address[key] = value
}

// AppendNd adds a node reference.
func (d *Document) AppendNd(ref int64) {
	d.Nd = append(d.Nd, ref)
}

// MarshalJSON renders the document as one flat object.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+7)
	for k, v := range d.Fields {
		out[k] = v
	}

	out[FieldID] = d.ID
	out[FieldElement] = d.Element
	out[FieldCreated] = d.Created

	if d.Pos != nil {
		out[FieldPos] = d.Pos
	}

	if d.Address != nil {
		out[FieldAddress] = d.Address
	}

	if d.Member != nil {
		out[FieldMember] = d.Member
	}

	if d.Nd != nil {
		out[FieldNd] = d.Nd
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(out); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
