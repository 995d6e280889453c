package sequencer

import (
	"sync"

	"github.com/bitcoin-vm/mru/util"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sequencerStat = gocore.NewStat("sequencer")

var (
	prometheusSequencerBlocks          prometheus.Counter
	prometheusSequencerBlockHeight     prometheus.Gauge
	prometheusSequencerBlockDuration   prometheus.Histogram
	prometheusSequencerBlockActions    prometheus.Histogram
	prometheusSequencerActionsApplied  *prometheus.CounterVec
	prometheusSequencerActionsRejected *prometheus.CounterVec
	prometheusSequencerActionsDeferred prometheus.Gauge
	prometheusSequencerPoolSize        prometheus.Gauge
	prometheusSequencerSubmitted       prometheus.Counter
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSequencerBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "blocks",
			Help:      "Number of blocks produced by the sequencer",
		},
	)

	prometheusSequencerBlockHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "block_height",
			Help:      "Height of the last produced block",
		},
	)

	prometheusSequencerBlockDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "block_duration",
			Help:      "Time to order, apply and persist one block",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusSequencerBlockActions = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "block_actions",
			Help:      "Number of actions per block",
			Buckets:   util.MetricsBucketsCount,
		},
	)

	prometheusSequencerActionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "actions_applied",
			Help:      "Number of actions applied to the state",
		},
		[]string{"action"},
	)

	prometheusSequencerActionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "actions_rejected",
			Help:      "Number of actions rejected by the transition engine",
		},
		[]string{"action", "code"},
	)

	prometheusSequencerActionsDeferred = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "actions_deferred",
			Help:      "Number of pending actions held back from the last block",
		},
	)

	prometheusSequencerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "pool_size",
			Help:      "Number of pending actions",
		},
	)

	prometheusSequencerSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mru",
			Subsystem: "sequencer",
			Name:      "submitted",
			Help:      "Number of acknowledged action submissions",
		},
	)
}
