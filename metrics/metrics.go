package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-payments/models"
)

// Metrics collects payment workflow and HTTP counters
type Metrics struct {
	mPaymentsMade    prometheus.Counter
	mTransfers       *prometheus.CounterVec
	mGatewayDuration *prometheus.HistogramVec
	mRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		mPaymentsMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_made_total",
			Help: "Transactions recorded through make-payment.",
		}),
		mTransfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_transfers_total",
			Help: "Bank transfers by final status.",
		}, []string{"status"}),
		mGatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of calls to the banking gateway.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		mRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

func (m *Metrics) PaymentMade() {
	m.mPaymentsMade.Inc()
}

func (m *Metrics) TransferFinished(status models.TransferStatus) {
	m.mTransfers.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) GatewayObserved(elapsed time.Duration, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.mGatewayDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveRequest records one served request; route is the matched pattern, not the raw path
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.mRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.mPaymentsMade.Describe(ch)
	m.mTransfers.Describe(ch)
	m.mGatewayDuration.Describe(ch)
	m.mRequestDuration.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.mPaymentsMade.Collect(ch)
	m.mTransfers.Collect(ch)
	m.mGatewayDuration.Collect(ch)
	m.mRequestDuration.Collect(ch)
}

type logFunc func(v ...interface{})

func (l logFunc) Println(v ...interface{}) {
	l(v...)
}

// Handler exposes everything gathered by g in the text exposition format
func Handler(g prometheus.Gatherer, l *zap.Logger) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:      logFunc(l.Sugar().Warn),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
