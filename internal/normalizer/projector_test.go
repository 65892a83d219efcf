package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osmclean/internal/models"
)

func TestProjector_NodeWithoutChildren(t *testing.T) {
	p := referenceProjector(t)

	doc, stats, err := p.Project(nodeEl("1"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"_id":     float64(1),
		"element": "node",
		"created": map[string]any{
			"version":   float64(1),
			"changeset": float64(10),
			"timestamp": "2017-01-01 00:00:00",
			"user":      "a",
			"uid":       float64(5),
		},
		"pos": []any{1.5, 2.5},
	}, asJSON(t, doc))
	assert.Equal(t, int64(1), doc.Created.Version)
	assert.Zero(t, stats.Unexpected)
	assert.Empty(t, stats.Routes)
}

func TestProjector_WayWithTags(t *testing.T) {
	p := referenceProjector(t)

	way := &models.Element{
		Kind:  models.KindWay,
		Attrs: provenance("20"),
		Children: []*models.Element{
			ndEl("1"),
			ndEl("2"),
			tagEl("endereço", "Av. Central"),
			tagEl("addr:housenumber", "12"),
			tagEl("sport", "Volleyball"),
			tagEl("sport_1", "Futsal"),
			tagEl("Name", "ignored"),
			tagEl("amenity", "school"),
			ndEl("3"),
		},
	}

	doc, stats, err := p.Project(way)
	require.NoError(t, err)

	assert.Nil(t, doc.Pos, "only nodes carry a position")
	assert.Equal(t, []int64{1, 2, 3}, doc.Nd)
	assert.Equal(t, map[string]string{"street": "Avenida Central", "housenumber": "12"}, doc.Address)
	assert.Equal(t, map[string]string{"sport": "Volleyball;Futsal", "amenity": "school"}, doc.Fields)
	assert.Equal(t, map[Route]int{RouteAddress: 2, RouteScalar: 2, RouteMulti: 1, RouteDropped: 1}, stats.Routes)

	out := asJSON(t, doc)
	assert.ElementsMatch(t,
		[]string{"_id", "element", "created", "nd", "address", "sport", "amenity"},
		keysOf(out),
	)
	assert.NotContains(t, out, "pos")
}

func TestProjector_RelationMemberLastWins(t *testing.T) {
	p := referenceProjector(t)

	rel := &models.Element{
		Kind:  models.KindRelation,
		Attrs: provenance("30"),
		Children: []*models.Element{
			memberEl("way", "100", "outer"),
			memberEl("node", "200", ""),
			tagEl("type", "multipolygon"),
		},
	}

	doc, _, err := p.Project(rel)
	require.NoError(t, err)

	assert.Equal(t, &models.Member{Type: "node", Ref: 200, Role: ""}, doc.Member)
	assert.Equal(t, "multipolygon", doc.Fields["type"])
}

func TestProjector_UnexpectedChild(t *testing.T) {
	p := referenceProjector(t)

	el := nodeEl("1", &models.Element{Kind: "note", Attrs: map[string]string{}}, tagEl("name", "x"))

	doc, stats, err := p.Project(el)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Unexpected)
	assert.Equal(t, "x", doc.Fields["name"])
}

func TestProjector_TagWithoutKeyIsDropped(t *testing.T) {
	p := referenceProjector(t)

	doc, stats, err := p.Project(nodeEl("1", &models.Element{Kind: models.KindTag, Attrs: map[string]string{"v": "x"}}))
	require.NoError(t, err)

	assert.Empty(t, doc.Fields)
	assert.Equal(t, 1, stats.Routes[RouteDropped])
}

func TestProjector_Errors(t *testing.T) {
	p := referenceProjector(t)

	without := func(name string) *models.Element {
		el := nodeEl("9")
		delete(el.Attrs, name)

		return el
	}
	with := func(name, value string) *models.Element {
		el := nodeEl("9")
		el.Attrs[name] = value

		return el
	}

	tests := []struct {
		name    string
		el      *models.Element
		wantErr error
	}{
		{"missing id", without("id"), ErrMissingAttribute},
		{"missing version", without("version"), ErrMissingAttribute},
		{"missing changeset", without("changeset"), ErrMissingAttribute},
		{"missing timestamp", without("timestamp"), ErrMissingAttribute},
		{"missing user", without("user"), ErrMissingAttribute},
		{"missing uid", without("uid"), ErrMissingAttribute},
		{"missing lat on node", without("lat"), ErrMissingAttribute},
		{"bad uid", with("uid", "abc"), ErrInvalidAttribute},
		{"bad timestamp", with("timestamp", "2017-01-01"), ErrInvalidAttribute},
		{"bad lon", with("lon", "east"), ErrInvalidAttribute},
		{"NaN lat", with("lat", "NaN"), ErrInvalidAttribute},
		{"infinite lon", with("lon", "+Inf"), ErrInvalidAttribute},
		{"bad nd ref", nodeEl("9", ndEl("x")), ErrInvalidChild},
		{"member without role", nodeEl("9", &models.Element{Kind: models.KindMember, Attrs: map[string]string{"type": "way", "ref": "1"}}), ErrInvalidChild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := p.Project(tt.el)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *ProjectionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, models.KindNode, perr.Kind)
		})
	}
}

func TestProjectionError_Error(t *testing.T) {
	err := &ProjectionError{Kind: "way", ID: "4", Err: ErrMissingAttribute}
	assert.Equal(t, "project way 4: missing mandatory attribute", err.Error())

	err = &ProjectionError{Kind: "way", Err: ErrMissingAttribute}
	assert.Equal(t, "project way ?: missing mandatory attribute", err.Error())
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return keys
}
