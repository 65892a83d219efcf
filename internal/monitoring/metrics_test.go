package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.DocumentsWritten.Inc()

	if got := testutil.ToFloat64(a.DocumentsWritten); got != 1 {
		t.Errorf("a.DocumentsWritten = %v, want 1", got)
	}

	if got := testutil.ToFloat64(b.DocumentsWritten); got != 0 {
		t.Errorf("b.DocumentsWritten = %v, want 0", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ElementsRead.WithLabelValues("node").Add(3)
	m.TagsRouted.WithLabelValues("address").Inc()
	m.ObserveBatch(time.Now())

	path := filepath.Join(t.TempDir(), "osmclean.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}

	out := string(data)
	for _, want := range []string{
		`osmclean_elements_read_total{kind="node"} 3`,
		`osmclean_tags_routed_total{route="address"} 1`,
		"osmclean_batch_duration_seconds_count 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics file missing %q:\n%s", want, out)
		}
	}
}
