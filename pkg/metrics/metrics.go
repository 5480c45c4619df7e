package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "bannerkit"
	// fullBatch は generator.BatchSize と同じ値です。
	fullBatch = 4
)

// Metrics は生成バッチの Prometheus カウンターです。generator.Recorder を満たします。
type Metrics struct {
	attempts *prometheus.CounterVec
	batches  *prometheus.CounterVec
	images   *prometheus.CounterVec
}

// New はカウンターを作成して reg に登録します。
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, fmt.Errorf("registerer is required")
	}
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Generation attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Generation batches by model and result.",
		}, []string{"model", "result"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_total",
			Help:      "Images returned to users by model.",
		}, []string{"model"}),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.batches, m.images} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveAttempt(model, outcome string) {
	m.attempts.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) ObserveBatch(model string, succeeded int, failed bool) {
	result := "success"
	switch {
	case failed:
		result = "failure"
	case succeeded < fullBatch:
		result = "partial"
	}
	m.batches.WithLabelValues(model, result).Inc()
	m.images.WithLabelValues(model).Add(float64(succeeded))
}

// WriteTextfile は node_exporter の textfile collector 形式で g の内容を書き出します。
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
