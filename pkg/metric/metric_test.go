// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOptsToString(t *testing.T) {
	for _, tt := range []struct {
		opts MetricOpts
		want string
	}{
		{MetricOpts{Namespace: "nuvwdt", Subsystem: "watchdog", Name: "active"}, "nuvwdt_watchdog_active"},
		{MetricOpts{Namespace: "nuvwdt", Name: "version"}, "nuvwdt_version"},
		{MetricOpts{Subsystem: "keepalive", Name: "pings_total"}, "keepalive_pings_total"},
		{MetricOpts{Name: "up"}, "up"},
		{MetricOpts{Namespace: "nuvwdt"}, ""},
	} {
		if got := optsToString(tt.opts); got != tt.want {
			t.Errorf("optsToString(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestLabelsToString(t *testing.T) {
	if got := labelsToString(nil); got != "" {
		t.Errorf("labelsToString(nil) = %q", got)
	}
	got := labelsToString([]string{`version="v1"`, `hash="abc"`})
	if want := `{version="v1",hash="abc"}`; got != want {
		t.Errorf("labelsToString = %q, want %q", got, want)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_prom_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)
	Counter(MetricOpts{Namespace: "test", Name: "vm_total"}, []string{`kind="x"`}).Add(2)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	b, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(b)
	for _, want := range []string{"test_prom_total 3", `test_vm_total{kind="x"} 2`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}
