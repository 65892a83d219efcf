package audit

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"osmclean/internal/config"
	"osmclean/internal/logger"
	"osmclean/internal/models"
)

// Report is the result of one audit run. Reports are never merged.
type Report struct {
	RunID    string
	Findings []Finding
	Keys     KeyReport
	Elements int
}

// NewReport returns an empty report with a fresh run id.
func NewReport() *Report {
	return &Report{
		RunID: uuid.NewString(),
		Keys:  NewKeyReport(),
	}
}

// FindingsByKind counts findings per kind.
func (r *Report) FindingsByKind() map[FindingKind]int {
	counts := map[FindingKind]int{}
	for _, f := range r.Findings {
		counts[f.Kind]++
	}

	return counts
}

// Auditor runs the attribute and key audit over raw elements. It never mutates them.
type Auditor struct {
	attrs *AttributeValidator
	skip  map[string]bool
	log   *logger.Logger
}

// NewAuditor creates an auditor from the audit section of the configuration.
func NewAuditor(cfg config.AuditConfig, log *logger.Logger) *Auditor {
	skip := make(map[string]bool, len(cfg.SkipElements))
	for _, kind := range cfg.SkipElements {
		skip[kind] = true
	}

	return &Auditor{
		attrs: NewAttributeValidator(cfg.Types, cfg.SpecialChars),
		skip:  skip,
		log:   log,
	}
}

// AuditElement records findings for el and all of its descendants.
func (a *Auditor) AuditElement(el *models.Element, report *Report) {
	report.Elements++

	el.Walk(func(e *models.Element) {
		if !a.skip[e.Kind] {
			findings := a.attrs.Validate(e.Kind, e.Attrs)
			for _, f := range findings {
				a.log.Debug("audit finding", "kind", string(f.Kind), "element", f.Element, "attribute", f.Attribute, "value", f.Value)
			}

			report.Findings = append(report.Findings, findings...)
		}

		if e.Kind == models.KindTag {
			if k, ok := e.Attr("k"); ok {
				report.Keys.Add(k)
			}
		}
	})
}

// Run audits every element from src and returns a fresh report.
func (a *Auditor) Run(src models.ElementSource) (*Report, error) {
	report := NewReport()
	log := a.log.With("run", report.RunID)
	log.Info("Auditing...")

	for {
		el, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return report, fmt.Errorf("failed to read element: %w", err)
		}

		a.AuditElement(el, report)
	}

	log.Info("audit complete", "elements", report.Elements, "findings", len(report.Findings))

	return report, nil
}
