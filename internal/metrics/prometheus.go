package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "lp_hedge_backtest"

type Prometheus struct {
	Metrics *Metrics

	registry            *prometheus.Registry
	runsCompleted       prometheus.Counter
	runsFailed          prometheus.Counter
	combinationsSkipped prometheus.Counter
	samplesProcessed    prometheus.Counter
	cyclesCompleted     prometheus.Counter
	hedgesOpened        prometheus.Counter
	stopOuts            prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry:            registry,
		runsCompleted:       newCounter("runs_completed_total", "Total number of backtest runs completed."),
		runsFailed:          newCounter("runs_failed_total", "Total number of backtest runs aborted by data errors."),
		combinationsSkipped: newCounter("combinations_skipped_total", "Total number of sweep combinations rejected by parameter validation."),
		samplesProcessed:    newCounter("samples_processed_total", "Total number of price samples replayed across all runs."),
		cyclesCompleted:     newCounter("cycles_completed_total", "Total number of LP range exits (rebalances) across all runs."),
		hedgesOpened:        newCounter("hedges_opened_total", "Total number of hedge positions opened across all runs."),
		stopOuts:            newCounter("stop_outs_total", "Total number of hedge stop-outs across all runs."),
	}
	registry.MustRegister(
		p.runsCompleted,
		p.runsFailed,
		p.combinationsSkipped,
		p.samplesProcessed,
		p.cyclesCompleted,
		p.hedgesOpened,
		p.stopOuts,
	)
	p.Metrics = &Metrics{
		RunsCompleted:       p.runsCompleted,
		RunsFailed:          p.runsFailed,
		CombinationsSkipped: p.combinationsSkipped,
		SamplesProcessed:    p.samplesProcessed,
		CyclesCompleted:     p.cyclesCompleted,
		HedgesOpened:        p.hedgesOpened,
		StopOuts:            p.stopOuts,
	}
	return p
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
