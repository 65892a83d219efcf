package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"osmclean/internal/audit"
	"osmclean/internal/logger"
	"osmclean/internal/models"
)

// CreatedLayout is the timestamp format written to documents.
const CreatedLayout = "2006-01-02 15:04:05"

// ProjectStats counts what happened to the children of one element.
type ProjectStats struct {
	Routes     map[Route]int
	Unexpected int
}

func newProjectStats() ProjectStats {
	return ProjectStats{Routes: map[Route]int{}}
}

// Merge adds other into s.
func (s *ProjectStats) Merge(other ProjectStats) {
	if s.Routes == nil {
		s.Routes = map[Route]int{}
	}

	for r, n := range other.Routes {
		s.Routes[r] += n
	}

	s.Unexpected += other.Unexpected
}

// Projector turns one source element into one document.
type Projector struct {
	rewriter *Rewriter
	shaper   *Shaper
	log      *logger.Logger
}

// NewProjector creates a projector.
func NewProjector(rewriter *Rewriter, shaper *Shaper, log *logger.Logger) *Projector {
	return &Projector{rewriter: rewriter, shaper: shaper, log: log}
}

// Project builds the document for el. Children are folded in source order.
// A missing or malformed identity, provenance, coordinate or child reference
// yields a *ProjectionError.
func (p *Projector) Project(el *models.Element) (*models.Document, ProjectStats, error) {
	stats := newProjectStats()

	doc, err := p.base(el)
	if err != nil {
		return nil, stats, &ProjectionError{Kind: el.Kind, ID: el.Attrs["id"], Err: err}
	}

	for _, child := range el.Children {
		if err := p.insertChild(doc, child, &stats); err != nil {
			return nil, stats, &ProjectionError{Kind: el.Kind, ID: el.Attrs["id"], Err: err}
		}
	}

	return doc, stats, nil
}

func (p *Projector) base(el *models.Element) (*models.Document, error) {
	a := attrReader{el: el}

	id := a.parseInt("id")
	version := a.parseInt("version")
	changeset := a.parseInt("changeset")
	uid := a.parseInt("uid")
	user := a.required("user")
	ts := a.parseTime("timestamp")

	var pos []float64
	if el.Kind == models.KindNode {
		pos = []float64{a.parseFloat("lat"), a.parseFloat("lon")}
	}

	if a.err != nil {
		return nil, a.err
	}

	doc := models.NewDocument(id, el.Kind, models.Created{
		Version:   version,
		Changeset: changeset,
		Timestamp: ts.Format(CreatedLayout),
		User:      user,
		UID:       uid,
	})
	doc.Pos = pos

	return doc, nil
}

func (p *Projector) insertChild(doc *models.Document, child *models.Element, stats *ProjectStats) error {
	switch child.Kind {
	case models.KindMember:
		a := attrReader{el: child}
		m := &models.Member{
			Type: a.required("type"),
			Ref:  a.parseInt("ref"),
			Role: a.required("role"),
		}

		if a.err != nil {
			return fmt.Errorf("%w: member: %w", ErrInvalidChild, a.err)
		}

		doc.Member = m
	case models.KindNd:
		a := attrReader{el: child}

		ref := a.parseInt("ref")
		if a.err != nil {
			return fmt.Errorf("%w: nd: %w", ErrInvalidChild, a.err)
		}

		doc.AppendNd(ref)
	case models.KindTag:
		tag, ok := child.Tag()
		if !ok {
			stats.Routes[RouteDropped]++

			return nil
		}

		stats.Routes[p.shaper.Shape(doc, p.rewriter.Rewrite(tag))]++
	default:
		stats.Unexpected++
		p.log.Warn("Child unexpected", "element", doc.Element, "id", doc.ID, "child", child.Kind)
	}

	return nil
}

// attrReader parses attributes and keeps the first error.
type attrReader struct {
	err error
	el  *models.Element
}

func (a *attrReader) required(name string) string {
	v, ok := a.el.Attr(name)
	if !ok && a.err == nil {
		a.err = fmt.Errorf("%w: %s", ErrMissingAttribute, name)
	}

	return v
}

func (a *attrReader) parseInt(name string) int64 {
	v, ok := a.el.Attr(name)
	if !ok {
		a.required(name)

		return 0
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, v)
	}

	return n
}

func (a *attrReader) parseFloat(name string) float64 {
	v, ok := a.el.Attr(name)
	if !ok {
		a.required(name)

		return 0
	}

	f, err := strconv.ParseFloat(v, 64)
	if (err != nil || math.IsNaN(f) || math.IsInf(f, 0)) && a.err == nil {
		a.err = fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, v)
	}

	return f
}

func (a *attrReader) parseTime(name string) time.Time {
	v, ok := a.el.Attr(name)
	if !ok {
		a.required(name)

		return time.Time{}
	}

	t, err := time.Parse(audit.TimestampLayout, v)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, v)
	}

	return t
}
