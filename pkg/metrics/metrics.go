/*

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes Prometheus collectors for dependency
// resolution activity. Nothing in pkg/dependency imports this package
// directly -- a caller wires a Recorder into its own Listener
// implementation, keeping observability optional the way spec.md's
// ambient-stack guidance treats it as a carried concern rather than a
// feature the core state machine depends on.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder is a small façade over a handful of collectors registered
// against a caller-supplied prometheus.Registerer.
type Recorder struct {
	boundSize  *prometheus.GaugeVec
	state      *prometheus.GaugeVec
	arrivals   *prometheus.CounterVec
	departures *prometheus.CounterVec
	modifieds  *prometheus.CounterVec
	restarts   *prometheus.CounterVec
}

// NewRecorder creates and registers the resolver's collectors against
// reg. Passing prometheus.NewRegistry() (rather than the global
// DefaultRegisterer) keeps multiple resolver instances in a test
// binary from colliding on collector names.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		boundSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "depresolver",
			Name:      "bound_services",
			Help:      "Number of service references currently bound to a dependency.",
		}, []string{"dependency_id"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "depresolver",
			Name:      "dependency_state",
			Help:      "Dependency state: 0=UNRESOLVED, 1=RESOLVED, 2=BROKEN.",
		}, []string{"dependency_id"}),
		arrivals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depresolver",
			Name:      "arrivals_total",
			Help:      "Total service arrival callbacks fired.",
		}, []string{"dependency_id"}),
		departures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depresolver",
			Name:      "departures_total",
			Help:      "Total service departure callbacks fired.",
		}, []string{"dependency_id"}),
		modifieds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depresolver",
			Name:      "modifications_total",
			Help:      "Total service modification callbacks fired.",
		}, []string{"dependency_id"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depresolver",
			Name:      "instance_restarts_total",
			Help:      "Total component instance restart cycles triggered by a broken static dependency.",
		}, []string{"dependency_id"}),
	}
	reg.MustRegister(r.boundSize, r.state, r.arrivals, r.departures, r.modifieds, r.restarts)
	return r
}

// SetBound records the current bound-set size for dependencyID.
func (r *Recorder) SetBound(dependencyID string, n int) {
	r.boundSize.WithLabelValues(dependencyID).Set(float64(n))
}

// SetState records the current dependency.State value (cast to float64
// via its int representation) for dependencyID.
func (r *Recorder) SetState(dependencyID string, state int) {
	r.state.WithLabelValues(dependencyID).Set(float64(state))
}

// IncArrival increments the arrival counter for dependencyID.
func (r *Recorder) IncArrival(dependencyID string) { r.arrivals.WithLabelValues(dependencyID).Inc() }

// IncDeparture increments the departure counter for dependencyID.
func (r *Recorder) IncDeparture(dependencyID string) {
	r.departures.WithLabelValues(dependencyID).Inc()
}

// IncModification increments the modification counter for dependencyID.
func (r *Recorder) IncModification(dependencyID string) {
	r.modifieds.WithLabelValues(dependencyID).Inc()
}

// IncRestart increments the instance-restart counter for dependencyID.
func (r *Recorder) IncRestart(dependencyID string) { r.restarts.WithLabelValues(dependencyID).Inc() }
