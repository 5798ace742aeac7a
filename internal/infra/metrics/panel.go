package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(panelSyncsTotal) }

var panelSyncsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "panel_syncs_total",
		Help: "Panel synchronization passes by trigger (navigation/manual).",
	},
	[]string{"trigger"},
)

func IncPanelSync(trigger string) {
	panelSyncsTotal.WithLabelValues(norm(trigger)).Inc()
}
