// Package metrics exposes Prometheus collectors for the user store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fumgr"

// Collector groups the store metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	authentications *prometheus.CounterVec
	writes          *prometheus.CounterVec
	reloads         *prometheus.CounterVec
	users           prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentications_total",
			Help:      "Authentication attempts by method and result.",
		}, []string{"method", "result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_writes_total",
			Help:      "User save and delete operations by result.",
		}, []string{"op", "result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Loads of the backing user data by source kind and result.",
		}, []string{"source", "result"}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Number of users currently in the table.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.authentications, c.writes, c.reloads, c.users)
	}
	return c
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (c *Collector) ObserveAuthentication(method string, ok bool) {
	if c == nil {
		return
	}
	c.authentications.WithLabelValues(method, result(ok)).Inc()
}

func (c *Collector) ObserveWrite(op string, err error) {
	if c == nil {
		return
	}
	c.writes.WithLabelValues(op, result(err == nil)).Inc()
}

func (c *Collector) ObserveReload(source string, err error) {
	if c == nil {
		return
	}
	c.reloads.WithLabelValues(source, result(err == nil)).Inc()
}

func (c *Collector) SetUsers(n int) {
	if c == nil {
		return
	}
	c.users.Set(float64(n))
}
