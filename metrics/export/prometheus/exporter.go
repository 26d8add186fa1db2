package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	goAttend "github.com/MrEthical07/goAttend"
	"github.com/MrEthical07/goAttend/metrics/export/internaldefs"
)

// Source is anything that can report session metrics. *goAttend.Manager
// satisfies it.
type Source interface {
	MetricsSnapshot() goAttend.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders session metrics in Prometheus text exposition format.
type Exporter struct {
	source Source
}

// NewExporter returns an Exporter reading from m.
func NewExporter(m *goAttend.Manager) *Exporter {
	return &Exporter{source: m}
}

// NewExporterFromSource returns an Exporter reading from an arbitrary Source.
func NewExporterFromSource(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current snapshot.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = e.WriteTo(w)
	})
}

// Render returns the exposition text, or "" when nothing has been recorded.
func (e *Exporter) Render() string {
	var buf bytes.Buffer
	_, _ = e.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the exposition text to w.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	if e == nil || e.source == nil {
		return 0, nil
	}

	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	pw := &textWriter{w: w}
	for _, def := range internaldefs.CounterDefs {
		pw.counter(def.Name, def.Help, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[def.ID]))
		pw.histogram(def.Name, def.Help, buckets)
	}
	pw.counter("attend_audit_dropped_total", "Audit events dropped because the dispatcher buffer was full.", dropped)
	return pw.n, pw.err
}

// textWriter accumulates the first write error and the byte count.
type textWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	n, err := fmt.Fprintf(t.w, format, args...)
	t.n += int64(n)
	t.err = err
}

func (t *textWriter) header(name, help, kind string) {
	t.printf("# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func (t *textWriter) counter(name, help string, value uint64) {
	t.header(name, help, "counter")
	t.printf("%s %d\n", name, value)
}

func (t *textWriter) histogram(name, help string, cumulative [8]uint64) {
	t.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		t.printf("%s_bucket{le=%q} %d\n", name, le, cumulative[i])
	}
	t.printf("%s_count %d\n", name, cumulative[len(cumulative)-1])
	// Snapshots carry bucket counts only.
	t.printf("%s_sum 0\n", name)
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
