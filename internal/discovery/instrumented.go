package discovery

import (
	"context"
	"time"

	"github.com/aleister1102/mediascout/internal/classifier"
	"github.com/aleister1102/mediascout/internal/metrics"
)

type instrumentedProber struct {
	next    classifier.Prober
	metrics *metrics.Metrics
}

// InstrumentProber counts probe outcomes and latency.
func InstrumentProber(p classifier.Prober, m *metrics.Metrics) classifier.Prober {
	if m == nil {
		return p
	}
	return &instrumentedProber{next: p, metrics: m}
}

func (p *instrumentedProber) Probe(ctx context.Context, absoluteURL string) classifier.ProbeResult {
	start := time.Now()
	result := p.next.Probe(ctx, absoluteURL)
	p.metrics.RecordProbe(result.OK, time.Since(start))
	return result
}

type instrumentedPreviews struct {
	next    classifier.PreviewGenerator
	metrics *metrics.Metrics
}

// InstrumentPreviews counts preview outcomes.
func InstrumentPreviews(g classifier.PreviewGenerator, m *metrics.Metrics) classifier.PreviewGenerator {
	if m == nil {
		return g
	}
	return &instrumentedPreviews{next: g, metrics: m}
}

func (g *instrumentedPreviews) Generate(ctx context.Context, imageURL, filenameBasis string) (string, error) {
	ref, err := g.next.Generate(ctx, imageURL, filenameBasis)
	g.metrics.RecordPreview(err == nil)
	return ref, err
}
