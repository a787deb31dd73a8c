package ports

import "time"

// Metrics é implementado pelo adapter de Prometheus; NopMetrics serve para testes.
type Metrics interface {
	ObserveUpstreamCall(endpoint, outcome string, elapsed time.Duration)
	IncReport(tier, outcome string)
	IncSection(section, status string)
	IncRateLimitRejection()
	IncUsageDropped()
}

type NopMetrics struct{}

func (NopMetrics) ObserveUpstreamCall(string, string, time.Duration) {}
func (NopMetrics) IncReport(string, string) {}
func (NopMetrics) IncSection(string, string) {}
func (NopMetrics) IncRateLimitRejection() {}
func (NopMetrics) IncUsageDropped() {}
