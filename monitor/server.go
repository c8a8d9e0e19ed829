// Copyright (C) 2015  Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package monitor provides an embedded HTTP server to expose
// metrics for monitoring
package monitor

import (
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Go documentation recommended usage
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coalesced/wordtable/monitor/internal/loglevel"
)

// Server represents a monitoring server
type Server interface {
	Run()
}

// Stats is anything that can report the three numbers a running wordtable
// benchmark cares about watching live. *wordtable.Table satisfies this
// with its Count/Capacity/LoadFactor methods; it's spelled out here
// instead of imported so that monitor doesn't need to depend on wordtable.
type Stats interface {
	Count() uint
	Capacity() uint
	LoadFactor() float64
}

// server contains information for the monitoring server
type server struct {
	// Server name e.g. host[:port]
	serverName string
	stats      Stats
	registry   *prometheus.Registry

	count      *expvar.Int
	capacity   *expvar.Int
	loadFactor *expvar.Float

	promCount      prometheus.Gauge
	promCapacity   prometheus.Gauge
	promLoadFactor prometheus.Gauge
}

// NewMonitorServer creates a new server struct that, once Run, periodically
// refreshes expvar and Prometheus gauges from stats and serves /debug,
// /debug/vars, /debug/pprof and /metrics.
func NewMonitorServer(serverName string, stats Stats) Server {
	reg := prometheus.NewRegistry()
	s := &server{
		serverName:     serverName,
		stats:          stats,
		registry:       reg,
		count:          new(expvar.Int),
		capacity:       new(expvar.Int),
		loadFactor:     new(expvar.Float),
		promCount:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "wordtable_count", Help: "live entries in the benchmarked table"}),
		promCapacity:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "wordtable_capacity", Help: "current bucket array size"}),
		promLoadFactor: prometheus.NewGauge(prometheus.GaugeOpts{Name: "wordtable_load_factor", Help: "count / capacity"}),
	}
	expvar.Publish("wordtable_count", s.count)
	expvar.Publish("wordtable_capacity", s.capacity)
	expvar.Publish("wordtable_load_factor", s.loadFactor)
	reg.MustRegister(s.promCount, s.promCapacity, s.promLoadFactor)
	return s
}

// varsPrettyHandler serves the same expvar contents as the stdlib's own
// /debug/vars, but pretty-printed via VarsToString. It lives at its own
// path rather than overriding /debug/vars, since the expvar package
// registers that pattern on http.DefaultServeMux in its own init and a
// second registration would panic at startup.
func varsPrettyHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, VarsToString())
}

func debugHandler(w http.ResponseWriter, r *http.Request) {
	indexTmpl := `<html>
	<head>
	<title>/debug</title>
	</head>
	<body>
	<p>/debug</p>
	<div><a href="/debug/vars">vars</a></div>
	<div><a href="/debug/vars/pretty">vars (pretty)</a></div>
	<div><a href="/debug/pprof">pprof</a></div>
	<div><a href="/metrics">metrics</a></div>
	<div>loglevel: POST /debug/loglevel</div>
	</body>
	</html>
	`
	fmt.Fprintf(w, indexTmpl)
}

func (s *server) refresh() {
	s.count.Set(int64(s.stats.Count()))
	s.capacity.Set(int64(s.stats.Capacity()))
	s.loadFactor.Set(s.stats.LoadFactor())
	s.promCount.Set(float64(s.stats.Count()))
	s.promCapacity.Set(float64(s.stats.Capacity()))
	s.promLoadFactor.Set(s.stats.LoadFactor())
}

// Run sets up the HTTP server, starts the background refresh ticker, and
// blocks serving until the listener fails.
func (s *server) Run() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s.refresh()
		}
	}()

	http.HandleFunc("/debug", debugHandler)
	http.HandleFunc("/debug/vars/pretty", varsPrettyHandler)
	http.Handle("/debug/loglevel", loglevel.Handler())
	http.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	err := http.ListenAndServe(s.serverName, nil)
	if err != nil {
		log.Printf("Could not start monitor server: %s", err)
	}
}
