// Package metrics exposes pipeline and detector state as Prometheus
// collectors.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/logging"
	"github.com/noriah/whisker/processor"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var states = []detect.State{
	detect.Idle,
	detect.SignalDetected,
	detect.InUse,
	detect.WaitingSpike,
	detect.SpikeRelease,
}

// Metrics observes frames and episodes. It is both a processor.Observer and
// a detect.Listener.
type Metrics struct {
	reg *prometheus.Registry

	frames          prometheus.Counter
	coefficient     prometheus.Gauge
	sampleRate      prometheus.Gauge
	outliers        prometheus.Counter
	rateInvalid     prometheus.Counter
	state           *prometheus.GaugeVec
	training        prometheus.Gauge
	trainingResults *prometheus.CounterVec
	signatureBins   prometheus.Gauge
	weakRatio       prometheus.Gauge
	episodes        prometheus.Counter
	active          prometheus.Gauge
	episodeDuration prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "whisker_frames_total",
			Help: "Frames processed",
		}),
		coefficient: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_match_coefficient",
			Help: "Match coefficient of the latest frame",
		}),
		sampleRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_sample_rate_hz",
			Help: "Estimated sampling rate of the latest frame with a valid estimate",
		}),
		outliers: f.NewCounter(prometheus.CounterOpts{
			Name: "whisker_sample_outliers_total",
			Help: "Samples whose latency was excluded from the rate estimate",
		}),
		rateInvalid: f.NewCounter(prometheus.CounterOpts{
			Name: "whisker_rate_invalid_frames_total",
			Help: "Frames for which no sampling rate could be estimated",
		}),
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "whisker_detector_state",
			Help: "1 for the current detector state, 0 otherwise",
		}, []string{"state"}),
		training: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_training",
			Help: "1 while a training session is in progress",
		}),
		trainingResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "whisker_training_sessions_total",
			Help: "Finished training sessions by result",
		}, []string{"result"}),
		signatureBins: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_signature_bins",
			Help: "Bins in the signature currently in force",
		}),
		weakRatio: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_match_weakest_bin_ratio",
			Help: "Average ratio of the weakest signature bin since training",
		}),
		episodes: f.NewCounter(prometheus.CounterOpts{
			Name: "whisker_episodes_total",
			Help: "Confirmed activity episodes",
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisker_active",
			Help: "1 while an episode is in progress",
		}),
		episodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisker_episode_duration_seconds",
			Help:    "Length of finished episodes, rounded up to whole seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) ObserveFrame(r processor.Report) {
	m.frames.Inc()
	m.coefficient.Set(r.Coefficient)
	m.outliers.Add(float64(r.Stats.Outliers))

	if r.Stats.RateValid {
		m.sampleRate.Set(r.Stats.Rate)
	} else {
		m.rateInvalid.Inc()
	}

	for _, s := range states {
		v := 0.0
		if s == r.State {
			v = 1
		}
		m.state.WithLabelValues(s.String()).Set(v)
	}

	switch r.Training.Phase {
	case dsp.TrainingStarted:
		m.training.Set(1)
	case dsp.TrainingAccepted:
		m.training.Set(0)
		m.trainingResults.WithLabelValues("accepted").Inc()
	case dsp.TrainingRejected:
		m.training.Set(0)
		m.trainingResults.WithLabelValues("rejected").Inc()
	}

	m.signatureBins.Set(float64(r.Signature.Count()))

	if r.Match.WeakBin >= 0 {
		m.weakRatio.Set(r.Match.WeakRatio)
	}
}

func (m *Metrics) ActivityChanged(active bool) {
	if active {
		m.episodes.Inc()
		m.active.Set(1)
		return
	}
	m.active.Set(0)
}

func (m *Metrics) ActivityDuration(seconds int) {
	m.episodeDuration.Observe(float64(seconds))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, l logging.Logger) error {
	log := logging.OrGlobal(l).WithFields(logging.Fields{"component": "metrics"})

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Info("serving metrics", logging.Fields{"addr": addr})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics server failed")
	}

	return nil
}
