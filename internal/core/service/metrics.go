package service

// Metrics receives counters from the services. *metric.Registry satisfies it.
type Metrics interface {
	RecordRegistration(outcome string)
	RecordValidation(result string)
	SetTokens(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordRegistration(string) {}
func (noopMetrics) RecordValidation(string)   {}
func (noopMetrics) SetTokens(int)             {}
