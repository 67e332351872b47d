// Package metrics exposes KeyVault's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeExpired  = "expired"
	OutcomeError    = "error"
)

// Recorder is what the services and transports report to.
type Recorder interface {
	RecordSignIn(outcome string)
	RecordTokenVerification(outcome string)
	RecordKeyPair(created bool)
	RecordKeyGeneration(d time.Duration)
	RecordCryptoOp(op, outcome string)
	RecordRequest(transport string, code int)
}

// Collector records into Prometheus.
type Collector struct {
	signIns       *prometheus.CounterVec
	verifications *prometheus.CounterVec
	keyPairs      *prometheus.CounterVec
	keyGenLatency prometheus.Histogram
	cryptoOps     *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyvault_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyvault_token_verifications_total",
			Help: "Session token verifications by outcome.",
		}, []string{"outcome"}),
		keyPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyvault_key_pairs_total",
			Help: "Key pair provisioning results (generated or reused).",
		}, []string{"result"}),
		keyGenLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keyvault_key_generation_seconds",
			Help:    "Time spent generating RSA key pairs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		cryptoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyvault_crypto_operations_total",
			Help: "Encrypt and decrypt operations by outcome.",
		}, []string{"op", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyvault_requests_total",
			Help: "Handled requests by transport and status code.",
		}, []string{"transport", "code"}),
	}

	reg.MustRegister(
		c.signIns,
		c.verifications,
		c.keyPairs,
		c.keyGenLatency,
		c.cryptoOps,
		c.requests,
	)

	return c
}

func (c *Collector) RecordSignIn(outcome string) {
	c.signIns.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTokenVerification(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordKeyPair(created bool) {
	result := "reused"
	if created {
		result = "generated"
	}
	c.keyPairs.WithLabelValues(result).Inc()
}

func (c *Collector) RecordKeyGeneration(d time.Duration) {
	c.keyGenLatency.Observe(d.Seconds())
}

func (c *Collector) RecordCryptoOp(op, outcome string) {
	c.cryptoOps.WithLabelValues(op, outcome).Inc()
}

// RecordRequest counts a finished request. For gRPC code is the numeric
// status code.
func (c *Collector) RecordRequest(transport string, code int) {
	c.requests.WithLabelValues(transport, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordSignIn(string)               {}
func (Nop) RecordTokenVerification(string)    {}
func (Nop) RecordKeyPair(bool)                {}
func (Nop) RecordKeyGeneration(time.Duration) {}
func (Nop) RecordCryptoOp(string, string)     {}
func (Nop) RecordRequest(string, int)         {}
