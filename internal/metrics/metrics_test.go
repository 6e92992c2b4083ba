package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveAuthentication("password", true)
	c.ObserveAuthentication("password", false)
	c.ObserveAuthentication("password", false)
	c.ObserveWrite("save", nil)
	c.ObserveWrite("delete", errors.New("disk full"))
	c.ObserveReload("file", nil)
	c.SetUsers(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.authentications.WithLabelValues("password", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.authentications.WithLabelValues("password", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.writes.WithLabelValues("delete", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reloads.WithLabelValues("file", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.users))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveAuthentication("anonymous", true)
		c.ObserveWrite("save", nil)
		c.ObserveReload("url", nil)
		c.SetUsers(1)
	})
}
