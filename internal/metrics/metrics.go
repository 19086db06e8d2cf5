package metrics

type Counter interface {
	Inc()
	Add(float64)
}

type Metrics struct {
	RunsCompleted       Counter
	RunsFailed          Counter
	CombinationsSkipped Counter
	SamplesProcessed    Counter
	CyclesCompleted     Counter
	HedgesOpened        Counter
	StopOuts            Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func (noopCounter) Add(float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		RunsCompleted:       n,
		RunsFailed:          n,
		CombinationsSkipped: n,
		SamplesProcessed:    n,
		CyclesCompleted:     n,
		HedgesOpened:        n,
		StopOuts:            n,
	}
}
