package normalizer

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"osmclean/internal/config"
	"osmclean/internal/logger"
	"osmclean/internal/models"
)

type sliceSource struct {
	err      error
	elements []*models.Element
}

func (s *sliceSource) Next() (*models.Element, error) {
	if len(s.elements) == 0 {
		if s.err != nil {
			return nil, s.err
		}

		return nil, io.EOF
	}

	el := s.elements[0]
	s.elements = s.elements[1:]

	return el, nil
}

type memorySink struct {
	err  error
	docs []*models.Document
}

func (s *memorySink) Write(doc *models.Document) error {
	if s.err != nil {
		return s.err
	}

	s.docs = append(s.docs, doc)

	return nil
}

func tagEl(k, v string) *models.Element {
	return &models.Element{Kind: models.KindTag, Attrs: map[string]string{"k": k, "v": v}}
}

func ndEl(ref string) *models.Element {
	return &models.Element{Kind: models.KindNd, Attrs: map[string]string{"ref": ref}}
}

func memberEl(typ, ref, role string) *models.Element {
	return &models.Element{Kind: models.KindMember, Attrs: map[string]string{"type": typ, "ref": ref, "role": role}}
}

func provenance(id string) map[string]string {
	return map[string]string{
		"id":        id,
		"version":   "1",
		"changeset": "10",
		"timestamp": "2017-01-01T00:00:00Z",
		"user":      "a",
		"uid":       "5",
	}
}

func nodeEl(id string, children ...*models.Element) *models.Element {
	attrs := provenance(id)
	attrs["lat"] = "1.5"
	attrs["lon"] = "2.5"

	return &models.Element{Kind: models.KindNode, Attrs: attrs, Children: children}
}

func referenceProjector(t *testing.T) *Projector {
	t.Helper()

	ref := config.Reference()

	rw, err := NewRewriter(ref.Rules, 0)
	require.NoError(t, err)

	return NewProjector(rw, NewShaper(ref.Rules.MultiFields), logger.NewDiscard())
}

// asJSON renders a document the way the sink does and decodes it back into a generic map.
func asJSON(t *testing.T, doc *models.Document) map[string]any {
	t.Helper()

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	return out
}
