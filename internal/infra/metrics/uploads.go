package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(uploadBatchesTotal, uploadBatchSize) }

var uploadBatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "media_upload_batches_total",
		Help: "Media upload batches by status (ok/error/rejected).",
	},
	[]string{"status"},
)

var uploadBatchSize = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "media_upload_batch_size",
		Help:    "Number of pending items per upload batch.",
		Buckets: []float64{1, 2, 4, 8, 16, 32},
	},
)

func ObserveUploadBatch(status string, size int) {
	uploadBatchesTotal.WithLabelValues(norm(status)).Inc()
	uploadBatchSize.Observe(float64(size))
}
