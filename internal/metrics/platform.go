package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/platform"
)

// Platform Prometheus metrics.
var (
	PlatformRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "platform_requests_total",
			Help:      "Total number of search platform calls",
		},
		[]string{"op", "status"},
	)

	PlatformRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "platform_request_duration_seconds",
			Help:      "Search platform call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	PlatformDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "platform_documents_total",
			Help:      "Documents written to or removed from the search platform",
		},
		[]string{"op"},
	)
)

var platformMetricsRegistered bool

// RegisterPlatformMetrics registers Prometheus platform metrics. Must be called once from main.
func RegisterPlatformMetrics() {
	if platformMetricsRegistered {
		return
	}
	prometheus.MustRegister(PlatformRequestsTotal)
	prometheus.MustRegister(PlatformRequestDuration)
	prometheus.MustRegister(PlatformDocumentsTotal)
	platformMetricsRegistered = true
}

// Call statuses.
const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusError    = "error"
)

var _ platform.Client = (*InstrumentedClient)(nil)

// InstrumentedClient wraps a platform.Client with metrics and error logging.
type InstrumentedClient struct {
	inner  platform.Client
	logger *zap.Logger
}

// NewInstrumentedClient wraps inner.
func NewInstrumentedClient(inner platform.Client, logger *zap.Logger) *InstrumentedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedClient{inner: inner, logger: logger}
}

func (c *InstrumentedClient) observe(op, index string, start time.Time, err error) {
	status := statusOK
	switch {
	case errors.Is(err, platform.ErrDocumentNotFound):
		status = statusNotFound
	case err != nil:
		status = statusError
		c.logger.Error("Platform request failed",
			zap.String("op", op),
			zap.String("index", index),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	PlatformRequestsTotal.WithLabelValues(op, status).Inc()
	PlatformRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Put delegates to the inner client.
func (c *InstrumentedClient) Put(ctx context.Context, index string, docs []platform.Document) ([]string, error) {
	start := time.Now()
	ids, err := c.inner.Put(ctx, index, docs)
	c.observe(platform.OpPut, index, start, err)
	if err == nil {
		PlatformDocumentsTotal.WithLabelValues(platform.OpPut).Add(float64(len(ids)))
	}
	return ids, err
}

// Delete delegates to the inner client.
func (c *InstrumentedClient) Delete(ctx context.Context, index string, ids []string) error {
	start := time.Now()
	err := c.inner.Delete(ctx, index, ids)
	c.observe(platform.OpDelete, index, start, err)
	if err == nil {
		PlatformDocumentsTotal.WithLabelValues(platform.OpDelete).Add(float64(len(ids)))
	}
	return err
}

// Get delegates to the inner client.
func (c *InstrumentedClient) Get(ctx context.Context, index, id string) (*platform.Document, error) {
	start := time.Now()
	d, err := c.inner.Get(ctx, index, id)
	c.observe(platform.OpGet, index, start, err)
	return d, err
}

// GetRange delegates to the inner client.
func (c *InstrumentedClient) GetRange(ctx context.Context, req platform.GetRangeRequest) ([]platform.Document, error) {
	start := time.Now()
	docs, err := c.inner.GetRange(ctx, req)
	c.observe(platform.OpGetRange, req.Index, start, err)
	return docs, err
}

// Search delegates to the inner client.
func (c *InstrumentedClient) Search(ctx context.Context, req platform.SearchRequest) (*platform.SearchResponse, error) {
	start := time.Now()
	resp, err := c.inner.Search(ctx, req)
	c.observe(platform.OpSearch, req.Index, start, err)
	if err == nil {
		c.logger.Debug("Search completed",
			zap.String("index", req.Index),
			zap.Int("found", resp.NumberFound),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return resp, err
}
