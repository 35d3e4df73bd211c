package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec

	// Agent pipeline metrics
	ToolCalls     *prometheus.CounterVec
	RenderResults *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schedulo_chat_requests_total",
			Help: "Total number of chat requests processed",
		}),

		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "schedulo_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		ChatErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schedulo_chat_errors_total",
			Help: "Total number of chat errors by type",
		}, []string{"error_type"}),

		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schedulo_tool_calls_total",
			Help: "Total number of tool executions by tool name and outcome",
		}, []string{"tool", "outcome"}),

		RenderResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schedulo_render_results_total",
			Help: "Render stage outcomes by template and result",
		}, []string{"template", "result"}),
	}
}

// RecordChatRequest records a chat request
func (m *Metrics) RecordChatRequest() {
	m.ChatRequests.Inc()
}

// RecordChatLatency records chat request latency
func (m *Metrics) RecordChatLatency(seconds float64) {
	m.ChatRequestLatency.Observe(seconds)
}

// RecordChatError records a chat error
func (m *Metrics) RecordChatError(errorType string) {
	m.ChatErrors.WithLabelValues(errorType).Inc()
}

// RecordToolCall records one tool execution
func (m *Metrics) RecordToolCall(tool, outcome string) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordRender records a render stage outcome
func (m *Metrics) RecordRender(template, result string) {
	m.RenderResults.WithLabelValues(template, result).Inc()
}
