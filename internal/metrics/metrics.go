package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "soldrip_ticks_total", Help: "Scheduler ticks by outcome"},
		[]string{"outcome"},
	)
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "soldrip_transfers_total", Help: "Transfer executions by result"},
		[]string{"result"},
	)
	BlockhashExpiriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "soldrip_blockhash_expiries_total", Help: "Submissions resent after their blockhash expired"},
	)
	BalanceLamports = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "soldrip_balance_lamports", Help: "Last observed sender balance"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, TransfersTotal, BlockhashExpiriesTotal, BalanceLamports)
}

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
