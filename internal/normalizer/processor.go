// Package normalizer rewrites OSM tags to a canonical vocabulary and projects
// elements into flat documents.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"osmclean/internal/config"
	"osmclean/internal/logger"
	"osmclean/internal/models"
	"osmclean/internal/monitoring"
)

// Sink takes finished documents.
type Sink interface {
	Write(doc *models.Document) error
}

// Result summarises one pipeline run.
type Result struct {
	Kinds     map[string]int
	Skipped   []*ProjectionError
	Stats     ProjectStats
	Elements  int
	Documents int
}

// Processor drives projection over a stream of elements.
type Processor struct {
	projector       *Projector
	metrics         *monitoring.Metrics
	log             *logger.Logger
	elements        map[string]bool
	workers         int
	batchSize       int
	continueOnError bool
}

// NewProcessor creates a processor from the configuration.
func NewProcessor(cfg *config.Config, log *logger.Logger, metrics *monitoring.Metrics) (*Processor, error) {
	rewriter, err := NewRewriter(cfg.Rules, cfg.Pipeline.RewriteCacheSize)
	if err != nil {
		return nil, err
	}

	elements := make(map[string]bool, len(cfg.Pipeline.Elements))
	for _, kind := range cfg.Pipeline.Elements {
		elements[kind] = true
	}

	return &Processor{
		projector:       NewProjector(rewriter, NewShaper(cfg.Rules.MultiFields), log),
		metrics:         metrics,
		log:             log,
		elements:        elements,
		workers:         max(cfg.Pipeline.Workers, 1),
		batchSize:       max(cfg.Pipeline.BatchSize, 1),
		continueOnError: cfg.Pipeline.ContinueOnProjectionErrors,
	}, nil
}

type outcome struct {
	doc   *models.Document
	err   error
	stats ProjectStats
}

// Process reads every element from src and writes one document per projected
// element to sink, in input order.
//
// A projection error aborts the run unless the processor was configured to
// continue, in which case the element is skipped and recorded in Result.Skipped.
func (p *Processor) Process(ctx context.Context, src models.ElementSource, sink Sink) (*Result, error) {
	res := &Result{Kinds: map[string]int{}, Stats: newProjectStats()}

	p.log.Info("Transforming elements...", "workers", p.workers, "batch_size", p.batchSize)

	batch := make([]*models.Element, 0, p.batchSize)

	for {
		el, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return res, fmt.Errorf("failed to read element: %w", err)
		}

		res.Elements++
		res.Kinds[el.Kind]++
		p.metrics.ElementsRead.WithLabelValues(el.Kind).Inc()

		if !p.elements[el.Kind] {
			p.log.Debug("skipping element", "kind", el.Kind)

			continue
		}

		batch = append(batch, el)
		if len(batch) < p.batchSize {
			continue
		}

		if err := p.flush(ctx, batch, sink, res); err != nil {
			return res, err
		}

		batch = batch[:0]
	}

	if err := p.flush(ctx, batch, sink, res); err != nil {
		return res, err
	}

	p.log.Info("transform complete", "elements", res.Elements, "documents", res.Documents, "skipped", len(res.Skipped))

	return res, nil
}

func (p *Processor) flush(ctx context.Context, batch []*models.Element, sink Sink, res *Result) error {
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()

	outcomes, err := p.projectBatch(ctx, batch)
	if err != nil {
		return err
	}

	p.metrics.ObserveBatch(start)

	for _, o := range outcomes {
		res.Stats.Merge(o.stats)
		p.observeStats(o.stats)

		if o.err != nil {
			var perr *ProjectionError
			if !errors.As(o.err, &perr) {
				return o.err
			}

			p.metrics.ProjectionErrors.Inc()

			if !p.continueOnError {
				return perr
			}

			p.log.Warn("skipping element", "error", perr)
			res.Skipped = append(res.Skipped, perr)

			continue
		}

		if err := sink.Write(o.doc); err != nil {
			return fmt.Errorf("%w: %w", ErrSink, err)
		}

		res.Documents++
		p.metrics.DocumentsWritten.Inc()
	}

	return nil
}

// projectBatch projects every element of batch. Elements are independent, so
// they may be projected concurrently; results keep the batch order.
func (p *Processor) projectBatch(ctx context.Context, batch []*models.Element) ([]outcome, error) {
	outcomes := make([]outcome, len(batch))

	if p.workers == 1 {
		for i, el := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			outcomes[i].doc, outcomes[i].stats, outcomes[i].err = p.projector.Project(el)
		}

		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, el := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcomes[i].doc, outcomes[i].stats, outcomes[i].err = p.projector.Project(el)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (p *Processor) observeStats(stats ProjectStats) {
	for route, n := range stats.Routes {
		p.metrics.TagsRouted.WithLabelValues(string(route)).Add(float64(n))
	}

	p.metrics.UnexpectedChildren.Add(float64(stats.Unexpected))
}
