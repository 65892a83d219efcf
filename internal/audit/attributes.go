package audit

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"osmclean/internal/config"
)

// TimestampLayout is the only timestamp format accepted in an export.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ErrNotFinite is reported for float attributes that parse as NaN or an infinity.
var ErrNotFinite = errors.New("value is not a finite number")

// AttrType is the type bucket an attribute is audited against.
type AttrType string

// Type buckets, in lookup precedence order.
const (
	TypeInt       AttrType = "int"
	TypeFloat     AttrType = "float"
	TypeTimestamp AttrType = "timestamp"
	TypeString    AttrType = "string"
	TypeUnaudited AttrType = "unaudited"
)

// FindingKind classifies an audit finding.
type FindingKind string

// Finding kinds.
const (
	FindingNotCovered       FindingKind = "attribute type not covered"
	FindingConversionFailed FindingKind = "conversion failed"
	FindingSpecialChar      FindingKind = "special character"
)

// Finding is one problem found on one attribute.
type Finding struct {
	Err       error
	Kind      FindingKind
	Element   string
	Attribute string
	Value     string
	Char      string
}

// String returns a one-line description of the finding.
func (f Finding) String() string {
	switch f.Kind {
	case FindingSpecialChar:
		return fmt.Sprintf("%s: special char %q found in %s=%q", f.Element, f.Char, f.Attribute, f.Value)
	case FindingConversionFailed:
		return fmt.Sprintf("%s: can't convert %s=%q", f.Element, f.Attribute, f.Value)
	default:
		return fmt.Sprintf("%s: attribute type not covered: %s", f.Element, f.Attribute)
	}
}

// AttributeValidator checks attribute values against their declared type.
type AttributeValidator struct {
	types        map[string]AttrType
	specialChars []rune
}

// NewAttributeValidator builds a validator from a type table and a set of special characters.
func NewAttributeValidator(table config.TypeTable, specialChars string) *AttributeValidator {
	v := &AttributeValidator{types: map[string]AttrType{}}

	buckets := []struct {
		typ   AttrType
		names []string
	}{
		{TypeInt, table.Int},
		{TypeFloat, table.Float},
		{TypeTimestamp, table.Timestamp},
		{TypeString, table.String},
		{TypeUnaudited, table.Unaudited},
	}

	for _, b := range buckets {
		for _, name := range b.names {
			if _, taken := v.types[name]; !taken {
				v.types[name] = b.typ
			}
		}
	}

	for _, r := range specialChars {
		if !slices.Contains(v.specialChars, r) {
			v.specialChars = append(v.specialChars, r)
		}
	}

	return v
}

// TypeOf returns the bucket of an attribute name.
func (v *AttributeValidator) TypeOf(name string) (AttrType, bool) {
	t, ok := v.types[name]

	return t, ok
}

// Validate checks every attribute of one element, in name order.
func (v *AttributeValidator) Validate(kind string, attrs map[string]string) []Finding {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}

	slices.Sort(names)

	var findings []Finding

	for _, name := range names {
		for _, f := range v.Check(name, attrs[name]) {
			f.Element = kind
			findings = append(findings, f)
		}
	}

	return findings
}

// Check audits a single attribute value. A nil result means the value is clean.
func (v *AttributeValidator) Check(name, value string) []Finding {
	typ, ok := v.types[name]
	if !ok {
		return []Finding{{Kind: FindingNotCovered, Attribute: name, Value: value}}
	}

	var err error

	switch typ {
	case TypeInt:
		_, err = strconv.ParseInt(value, 10, 64)
	case TypeFloat:
		err = parseFinite(value)
	case TypeTimestamp:
		_, err = time.Parse(TimestampLayout, value)
	case TypeString:
		return v.scanSpecial(name, value)
	case TypeUnaudited:
		return nil
	}

	if err != nil {
		return []Finding{{Kind: FindingConversionFailed, Attribute: name, Value: value, Err: err}}
	}

	return nil
}

func parseFinite(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrNotFinite
	}

	return nil
}

func (v *AttributeValidator) scanSpecial(name, value string) []Finding {
	var findings []Finding

	for _, r := range v.specialChars {
		if strings.ContainsRune(value, r) {
			findings = append(findings, Finding{
				Kind:      FindingSpecialChar,
				Attribute: name,
				Value:     value,
				Char:      string(r),
			})
		}
	}

	return findings
}
