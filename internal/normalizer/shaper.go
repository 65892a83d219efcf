package normalizer

import (
	"slices"
	"strings"

	"osmclean/internal/audit"
	"osmclean/internal/models"
)

const addressPrefix = "addr:"

// Route is where the shaper put a tag.
type Route string

// Shaper routes.
const (
	RouteAddress Route = "address"
	RouteMulti   Route = "multi"
	RouteScalar  Route = "scalar"
	RouteDropped Route = "dropped"
)

// Shaper folds rewritten tags into a document.
type Shaper struct {
	prefixes []string
}

// NewShaper creates a shaper for the given multi-field prefixes.
func NewShaper(multiFields []string) *Shaper {
	prefixes := append([]string(nil), multiFields...)
	// longest first so "building:levels" wins over a shorter prefix of it
	slices.SortFunc(prefixes, func(a, b string) int { return len(b) - len(a) })

	return &Shaper{prefixes: prefixes}
}

// Shape writes tag into doc and reports the route taken. The first matching rule wins:
//
//  1. addr:<part> goes to doc.Address[part], last write wins.
//  2. <prefix>_<n> for a multi-field prefix is appended to doc[prefix] with ";".
//     When doc[prefix] has not been written yet the tag is dropped.
//  3. lower and lower_colon keys become scalar fields.
//  4. everything else is dropped.
func (s *Shaper) Shape(doc *models.Document, tag models.Tag) Route {
	if part, ok := strings.CutPrefix(tag.Key, addressPrefix); ok {
		doc.SetAddress(part, tag.Value)

		return RouteAddress
	}

	if prefix, ok := s.multiPrefix(tag.Key); ok {
		if doc.AppendField(prefix, tag.Value) {
			return RouteMulti
		}

		return RouteDropped
	}

	switch audit.ClassifyKey(tag.Key) {
	case audit.KeyLower, audit.KeyLowerColon:
		if models.IsStructuralField(tag.Key) {
			return RouteDropped
		}

		doc.SetField(tag.Key, tag.Value)

		return RouteScalar
	default:
		return RouteDropped
	}
}

func (s *Shaper) multiPrefix(key string) (string, bool) {
	for _, p := range s.prefixes {
		if strings.HasPrefix(key, p+"_") {
			return p, true
		}
	}

	return "", false
}
