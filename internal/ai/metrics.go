package ai

import (
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_ai_prompt_tokens",
			Help:    "Estimated number of prompt tokens sent to the AI API.",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10),
		},
		[]string{"model"},
	)
	aiRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_ai_retries_total",
			Help: "Total number of retried AI requests.",
		},
		[]string{"reason"},
	)
)

func recordRequest(model, status string, duration time.Duration) {
	aiRequestsTotal.WithLabelValues(model, status).Inc()
	if status == "success" {
		aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	}
}

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// EstimateTokens оценивает число токенов в тексте. Для неизвестных моделей
// используется cl100k_base; если кодировку загрузить нельзя, возвращается -1.
func EstimateTokens(model, text string) int {
	enc := encodingFor(model)
	if enc == nil {
		return -1
	}
	return len(enc.Encode(text, nil, nil))
}

func encodingFor(model string) *tiktoken.Tiktoken {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	}
	if err != nil {
		enc = nil
	}
	encodings[model] = enc
	return enc
}

func observePromptTokens(model, prompt string) {
	if n := EstimateTokens(model, prompt); n >= 0 {
		aiPromptTokens.WithLabelValues(model).Observe(float64(n))
	}
}
