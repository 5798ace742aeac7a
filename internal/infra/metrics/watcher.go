package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobPollTicksTotal, jobWatchesTotal) }

var jobPollTicksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_poll_ticks_total",
		Help: "Job query ticks by result ('ok' or 'error'; errors are swallowed).",
	},
	[]string{"result"},
)

var jobWatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_watches_total",
		Help: "Settled polling loops by outcome (completed/waiting_user/failed/stopped).",
	},
	[]string{"outcome"},
)

func IncJobPoll(result string) {
	jobPollTicksTotal.WithLabelValues(norm(result)).Inc()
}

func IncJobWatch(outcome string) {
	jobWatchesTotal.WithLabelValues(norm(outcome)).Inc()
}
