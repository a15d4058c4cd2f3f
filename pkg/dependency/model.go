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

// Package dependency implements DependencyModel, the per-dependency
// state machine that sits on top of a selector.Manager and a
// tracker.Tracker: it reconciles ChangeSet diffs against the binding
// policy, maintains the bound set and service-object cache, and
// drives validate/invalidate and arrival/departure/modification
// callbacks.
package dependency

import (
	"context"
	"fmt"
	"sync"

	"istio.io/pkg/log"

	"github.com/ipojo-go/depresolver/pkg/interceptor"
	"github.com/ipojo-go/depresolver/pkg/ldapfilter"
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/selector"
	"github.com/ipojo-go/depresolver/pkg/tracker"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

var scope = log.RegisterScope("dependency", "per-dependency resolver state machine", 0)

// Identity carries the properties spec.md §4.3 lists as available for
// interceptor targeting, besides dependency.specification/id/state
// which the Model fills in itself.
type Identity struct {
	InstanceName       string
	InstanceState      string
	FactoryName        string
	BundleSymbolicName string
	BundleVersion      string
	DependencyID       string
}

// ComponentInstance is the opaque lifecycle manager collaborator
// (spec.md §1 "out of scope"). DependencyModel only ever calls it from
// the Static-broken path, via a Restarter.
type ComponentInstance interface {
	Stop(ctx context.Context) error
	Start(ctx context.Context) error
	Unfreeze(ctx context.Context) error
}

// Restarter abstracts internal/restart.Orchestrator so tests can
// substitute a no-op or a spy.
type Restarter interface {
	Restart(ctx context.Context, inst interface {
		Stop(ctx context.Context) error
		Start(ctx context.Context) error
		Unfreeze(ctx context.Context) error
	}) error
}

// Listener is the set of callbacks a component observes on its
// dependency, spec.md §6. Every method is invoked strictly outside
// Model's write lock (see the Model doc comment).
type Listener interface {
	Validate(dep *Model)
	Invalidate(dep *Model)
	OnServiceArrival(dep *Model, ref *transform.Reference)
	OnServiceDeparture(dep *Model, ref *transform.Reference)
	OnServiceModification(dep *Model, ref *transform.Reference)
}

// NopListener discards every callback; useful for tests and for
// dependencies a caller only wants to poll via GetBound/GetState.
type NopListener struct{}

func (NopListener) Validate(*Model)                                    {}
func (NopListener) Invalidate(*Model)                                  {}
func (NopListener) OnServiceArrival(*Model, *transform.Reference)      {}
func (NopListener) OnServiceDeparture(*Model, *transform.Reference)    {}
func (NopListener) OnServiceModification(*Model, *transform.Reference) {}

// Model is the per-dependency state machine, spec.md §3/§4.5/§5.
//
// Locking discipline: mu guards every field below. All exported
// mutators take mu for the duration of their pure state mutation
// (including running the tracking/ranking interceptor chain, which is
// pipeline machinery, not user code) and release it before invoking
// any Listener callback or any call into the external Registry
// collaborator. Because callbacks never run under the lock, a
// re-entrant read issued from inside one (e.g. a Validate
// implementation calling GetBound) simply takes mu fresh and
// succeeds -- there is no need for an actual reentrant mutex, per the
// restructuring spec.md §9 suggests over goroutine-local re-entrance
// tracking.
type Model struct {
	mu sync.RWMutex

	identity Identity
	cfg      Config

	spec       string
	aggregate  bool
	optional   bool
	policy     Policy
	filter     registry.Filter
	comparator interceptor.Comparator

	state State

	bound          []*transform.Reference
	serviceObjects map[int64]registry.ServiceObject

	reg      registry.Registry
	trk      *tracker.Tracker
	manager  *selector.Manager
	listener Listener
	instance ComponentInstance
	restart  Restarter

	started bool
}

var _ interceptor.Dependency = (*Model)(nil)
var _ tracker.Customizer = (*Model)(nil)

// New builds an unstarted Model from cfg. It validates policy,
// comparator-class, specification, and filter eagerly so
// construction-time configuration faults surface immediately rather
// than on Start (spec.md §7).
func New(cfg Config, identity Identity, reg registry.Registry, listener Listener, instance ComponentInstance, restarter Restarter) (*Model, error) {
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	cmp, err := resolveComparatorClass(cfg.ComparatorClass, policy)
	if err != nil {
		return nil, err
	}
	if cfg.Specification != "" {
		if err := resolveSpecification(cfg.Specification); err != nil {
			return nil, err
		}
	}

	var filter registry.Filter
	if cfg.Filter != "" {
		f, err := ldapfilter.Compile(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("dependency: %w", err)
		}
		filter = f
	}

	if listener == nil {
		listener = NopListener{}
	}

	// An optional dependency with nothing bound is Resolved from the
	// start (spec.md §4.5): there is no "first arrival" transition to
	// wait for if the registry never publishes a provider at all.
	initialState := Unresolved
	if cfg.Optional {
		initialState = Resolved
	}

	m := &Model{
		identity:       identity,
		cfg:            cfg,
		spec:           cfg.Specification,
		aggregate:      cfg.Aggregate,
		optional:       cfg.Optional,
		policy:         policy,
		filter:         filter,
		comparator:     cmp,
		state:          initialState,
		serviceObjects: map[int64]registry.ServiceObject{},
		reg:            reg,
		listener:       listener,
		instance:       instance,
		restart:        restarter,
	}

	m.trk = tracker.New(reg, cfg.Specification, m)
	m.manager = selector.New(m.trk)
	m.installTrackingChain()
	if cmp != nil {
		m.manager.SetRankingInterceptor(m, interceptor.NewComparatorRanking(cmp))
	}
	return m, nil
}

func (m *Model) installTrackingChain() *selector.ChangeSet {
	var filterIC interceptor.TrackingInterceptor
	if m.filter != nil {
		filterIC = interceptor.NewFilterTracking(m.filter)
	}
	return m.manager.SetTrackingChain(m, []interceptor.TrackingInterceptor{interceptor.NewDefaultTracking()}, filterIC)
}

// Specification implements interceptor.Dependency.
func (m *Model) Specification() string { return m.spec }

// Config returns a copy of the configuration Model was built from.
// Reconfiguration setters (SetFilter et al.) do not update it; it
// reflects construction-time values only.
func (m *Model) Config() Config { return m.cfg }

// IdentityProperties implements interceptor.Dependency, exposing the
// properties spec.md §4.3 lists for interceptor targeting.
func (m *Model) IdentityProperties() registry.Properties {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return registry.Properties{
		registry.PropInstanceName:            m.identity.InstanceName,
		registry.PropInstanceState:           m.identity.InstanceState,
		registry.PropFactoryName:             m.identity.FactoryName,
		registry.PropBundleSymbolicName:      m.identity.BundleSymbolicName,
		registry.PropBundleVersion:           m.identity.BundleVersion,
		registry.PropDependencySpecification: m.spec,
		registry.PropDependencyID:            m.identity.DependencyID,
		registry.PropDependencyState:         m.state.String(),
	}
}

// Start opens the interceptor chains and the tracker, which
// synthesizes Added events for every service already published
// (spec.md §3 lifecycle).
func (m *Model) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	manager := m.manager
	filter := m.filter
	m.mu.Unlock()

	if err := manager.Open(m); err != nil {
		scope.Warnf("dependency %s: interceptor open reported errors: %v", m.identity.DependencyID, err)
	}
	return m.trk.Open(ctx, filter)
}

// Stop ungets every cached service object, closes the tracker and
// interceptor chains, clears all sets, and returns to the state New
// starts in: Unresolved, or Resolved for an optional dependency.
// It is the only way out of Broken (invariant I4).
func (m *Model) Stop() {
	m.mu.Lock()
	toRelease := make([]*transform.Reference, 0, len(m.bound))
	for _, ref := range m.bound {
		if svc, cached := m.serviceObjects[ref.ServiceID()]; cached {
			m.runUngetHookLocked(ref, svc)
			toRelease = append(toRelease, ref)
		}
	}
	m.bound = nil
	m.serviceObjects = map[int64]registry.ServiceObject{}
	if m.optional {
		m.state = Resolved
	} else {
		m.state = Unresolved
	}
	m.started = false
	manager := m.manager
	m.mu.Unlock()

	for _, ref := range toRelease {
		m.trk.UngetService(ref.InitialReference())
	}
	m.trk.Close()
	manager.Close(m)
}

// GetState takes the read lock (spec.md §5 read-only queries never
// block behind a callback, since callbacks never run under the
// write lock).
func (m *Model) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetBound returns a snapshot of the bound set.
func (m *Model) GetBound() []*transform.Reference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*transform.Reference, len(m.bound))
	copy(out, m.bound)
	return out
}

// IsEmpty reports whether nothing is currently bound.
func (m *Model) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bound) == 0
}

// GetFirstService returns bound[0], or false if nothing is bound.
func (m *Model) GetFirstService() (*transform.Reference, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.bound) == 0 {
		return nil, false
	}
	return m.bound[0], true
}

// GetMatching returns a snapshot of the matching set.
func (m *Model) GetMatching() []*transform.Reference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manager.Matching()
}

// GetSelected returns a snapshot of the selected set.
func (m *Model) GetSelected() []*transform.Reference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manager.Selected()
}

// ---- tracker.Customizer ----

// Adding never rejects at the tracker stage; acceptance is entirely
// the tracking interceptor chain's job downstream in the selector.
func (m *Model) Adding(registry.Reference) bool { return true }

// Added implements tracker.Customizer.
func (m *Model) Added(ref registry.Reference) {
	m.onEvent(func() *selector.ChangeSet { return m.manager.OnAdded(m, ref) })
}

// Modified implements tracker.Customizer.
func (m *Model) Modified(ref registry.Reference, _ registry.ServiceObject) {
	m.onEvent(func() *selector.ChangeSet { return m.manager.OnModified(m, ref) })
}

// Removed implements tracker.Customizer.
func (m *Model) Removed(ref registry.Reference, _ registry.ServiceObject) {
	m.onEvent(func() *selector.ChangeSet { return m.manager.OnRemoved(m, ref) })
}

// ---- reconfiguration (spec.md §4.5/§6) ----

// SetFilter recompiles the dependency's LDAP filter and replays the
// tracking chain over the tracker's already-tracked set (spec.md §4.4
// "interceptor churn"). The tracker's own registry subscription keeps
// whatever filter was in effect at Start; a filter change can only
// narrow or widen within what was already being tracked, recorded as
// an Open Question in DESIGN.md rather than re-subscribing live.
func (m *Model) SetFilter(expr string) error {
	var f registry.Filter
	if expr != "" {
		compiled, err := ldapfilter.Compile(expr)
		if err != nil {
			return err
		}
		f = compiled
	}
	m.onReconfigure(func() *selector.ChangeSet {
		m.filter = f
		return m.installTrackingChain()
	})
	return nil
}

// SetComparatorClass installs a new ranking interceptor by name (or
// the default identity ranking if name is empty) and re-ranks the
// current matching set.
func (m *Model) SetComparatorClass(name string) error {
	cmp, err := resolveComparatorClass(name, m.policy)
	if err != nil {
		return err
	}
	m.onReconfigure(func() *selector.ChangeSet {
		m.comparator = cmp
		var ranking interceptor.RankingInterceptor
		if cmp != nil {
			ranking = interceptor.NewComparatorRanking(cmp)
		} else {
			ranking = interceptor.NewDefaultRanking()
		}
		return m.manager.SetRankingInterceptor(m, ranking)
	})
	return nil
}

// SetAggregate switches cardinality. Switching re-derives bound from
// scratch against the current selected set rather than trying to
// reconcile the old single/aggregate bound in place.
func (m *Model) SetAggregate(aggregate bool) {
	m.onReconfigure(func() *selector.ChangeSet {
		if m.aggregate == aggregate {
			return nil
		}
		m.aggregate = aggregate
		m.bound = nil
		return rebindAllChangeSet(m.manager.Selected())
	})
}

// SetOptionality changes whether an empty bound set is tolerated
// (Resolved) or a fault (Unresolved).
func (m *Model) SetOptionality(optional bool) {
	m.onReconfigure(func() *selector.ChangeSet {
		if m.optional == optional {
			return nil
		}
		m.optional = optional
		return rebindAllChangeSet(m.manager.Selected())
	})
}

func rebindAllChangeSet(selected []*transform.Reference) *selector.ChangeSet {
	var first *transform.Reference
	if len(selected) > 0 {
		first = selected[0]
	}
	return &selector.ChangeSet{Selected: selected, Arrivals: selected, NewFirst: first}
}

// ---- service-object borrowing (spec.md §4.5) ----

// GetService borrows the service object backing ref, running the
// tracking chain's get_service hooks, and caches the result so
// departure handling and Stop can release it later. ref must
// currently be in the bound set.
func (m *Model) GetService(ref *transform.Reference) (registry.ServiceObject, error) {
	m.mu.RLock()
	bound := m.containsBoundLocked(ref.ServiceID())
	m.mu.RUnlock()
	if !bound {
		return nil, fmt.Errorf("dependency: service %d is not bound", ref.ServiceID())
	}

	raw, err := m.trk.GetService(ref.InitialReference())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	svc := m.manager.RunGetServiceHook(m, ref, raw)
	m.serviceObjects[ref.ServiceID()] = svc
	m.mu.Unlock()
	return svc, nil
}

// UngetService releases a service object previously borrowed via
// GetService.
func (m *Model) UngetService(ref *transform.Reference) {
	m.mu.Lock()
	svc, cached := m.serviceObjects[ref.ServiceID()]
	if !cached {
		m.mu.Unlock()
		return
	}
	delete(m.serviceObjects, ref.ServiceID())
	m.runUngetHookLocked(ref, svc)
	m.mu.Unlock()

	m.trk.UngetService(ref.InitialReference())
}

func (m *Model) containsBoundLocked(id int64) bool {
	for _, r := range m.bound {
		if r.ServiceID() == id {
			return true
		}
	}
	return false
}

func (m *Model) runUngetHookLocked(ref *transform.Reference, lastUse registry.ServiceObject) {
	m.manager.RunUngetServiceHook(m, ref, lastUse)
}

// ---- reconciliation (spec.md §4.5 binding policies) ----

// plan is everything dispatch needs to run outside the write lock:
// callback invocations and actual Registry.UngetService calls.
type plan struct {
	departures  []*transform.Reference
	arrivals    []*transform.Reference
	modified    *transform.Reference
	toRelease   []*transform.Reference
	oldState    State
	newState    State
	brokeStatic bool
}

// onEvent is the tracker-driven path (Added/Modified/Removed): it
// skips the bound-set recomputation entirely when the ChangeSet
// carries nothing to reconcile, since matching/selected churn with no
// effect on the selected set's shape is the common case.
func (m *Model) onEvent(mutate func() *selector.ChangeSet) {
	m.mu.Lock()
	cs := mutate()
	if cs.Empty() {
		m.mu.Unlock()
		return
	}
	p := m.reconcileLocked(cs)
	m.mu.Unlock()
	m.dispatch(p)
}

// onReconfigure is the explicit-setter path: it always recomputes the
// bound set even when the resulting ChangeSet looks empty, because a
// cardinality or optionality change can flip State without touching
// Arrivals/Departures/Modified at all.
func (m *Model) onReconfigure(mutate func() *selector.ChangeSet) {
	m.mu.Lock()
	cs := mutate()
	if cs == nil {
		cs = rebindAllChangeSet(m.manager.Selected())
	}
	p := m.reconcileLocked(cs)
	m.mu.Unlock()
	m.dispatch(p)
}

// reconcileLocked must be called with mu held. It applies cs to the
// bound set according to aggregate/policy, recomputes State, and
// returns the outside-the-lock work as a plan.
func (m *Model) reconcileLocked(cs *selector.ChangeSet) plan {
	p := plan{oldState: m.state}

	if m.aggregate {
		p.departures, p.arrivals, p.modified, p.brokeStatic = m.reconcileAggregateLocked(cs)
	} else {
		p.departures, p.arrivals, p.modified, p.brokeStatic = m.reconcileScalarLocked(cs)
	}

	for _, ref := range p.departures {
		if svc, cached := m.serviceObjects[ref.ServiceID()]; cached {
			delete(m.serviceObjects, ref.ServiceID())
			m.runUngetHookLocked(ref, svc)
			p.toRelease = append(p.toRelease, ref)
		}
	}

	p.newState = m.computeStateLocked(p.brokeStatic)
	m.state = p.newState
	return p
}

// reconcileAggregateLocked mirrors bound to the full selected set
// (spec.md §4.5 "Aggregate") whenever the dependency is not currently in
// use (no borrowed service objects) or policy is DynamicPriority.
// "not yet in bound" in the arrival rule is then read against the
// pre-replace bound snapshot -- here that is simply cs's own diff
// against the previous *selected* set, since in Aggregate mode bound
// always equalled selected before this call too. Under Static, any
// departure of an already-bound reference breaks the dependency
// regardless of branch (spec.md §4.5 "Broken check (static only)").
//
// While in use under a non-DynamicPriority policy, a full re-mirror
// would reorder or drop borrowed bindings out from under their holder,
// so arrivals are appended and departures are removed in place instead
// of replacing bound wholesale.
func (m *Model) reconcileAggregateLocked(cs *selector.ChangeSet) (departures, arrivals []*transform.Reference, modified *transform.Reference, broke bool) {
	if m.policy != DynamicPriority && len(m.serviceObjects) > 0 {
		return m.reconcileAggregateInUseLocked(cs)
	}

	m.bound = append([]*transform.Reference{}, cs.Selected...)
	modified = cs.Modified
	if modified != nil && !containsID(cs.Selected, modified.ServiceID()) {
		modified = nil
	}
	if m.policy == Static && len(cs.Departures) > 0 {
		broke = true
	}
	return cs.Departures, cs.Arrivals, modified, broke
}

// reconcileAggregateInUseLocked applies cs to bound incrementally,
// preserving the position and identity of every reference that is not
// itself departing or arriving.
func (m *Model) reconcileAggregateInUseLocked(cs *selector.ChangeSet) (departures, arrivals []*transform.Reference, modified *transform.Reference, broke bool) {
	for _, dep := range cs.Departures {
		if !containsID(m.bound, dep.ServiceID()) {
			continue
		}
		m.bound = removeID(m.bound, dep.ServiceID())
		departures = append(departures, dep)
		if m.policy == Static {
			broke = true
		}
	}
	for _, arr := range cs.Arrivals {
		if containsID(m.bound, arr.ServiceID()) {
			continue
		}
		m.bound = append(m.bound, arr)
		arrivals = append(arrivals, arr)
	}

	modified = cs.Modified
	if modified != nil && containsID(m.bound, modified.ServiceID()) {
		m.bound = replaceID(m.bound, modified)
	} else {
		modified = nil
	}
	return departures, arrivals, modified, broke
}

// reconcileScalarLocked keeps at most one bound reference. DynamicPriority
// always tracks the selected set's first element; Dynamic does too, but
// only while the currently bound reference's service object has not been
// borrowed (spec.md §4.5 "Dynamic (free rebinding when not in use)") -- a
// borrowed reference keeps its binding until it is released, even if a
// higher-priority provider has since arrived. Static never rebinds away
// from an already-bound provider except when that provider itself
// departs, which breaks the dependency rather than silently swapping it
// (spec.md §4.5 "Static").
func (m *Model) reconcileScalarLocked(cs *selector.ChangeSet) (departures, arrivals []*transform.Reference, modified *transform.Reference, broke bool) {
	var current *transform.Reference
	if len(m.bound) > 0 {
		current = m.bound[0]
	}

	if m.policy == Static {
		switch {
		case current != nil && containsID(cs.Departures, current.ServiceID()):
			m.bound = nil
			return []*transform.Reference{current}, nil, nil, true
		case current != nil && cs.Modified != nil && cs.Modified.ServiceID() == current.ServiceID():
			m.bound = []*transform.Reference{cs.Modified}
			return nil, nil, cs.Modified, false
		case current == nil && cs.NewFirst != nil:
			m.bound = []*transform.Reference{cs.NewFirst}
			return nil, []*transform.Reference{cs.NewFirst}, nil, false
		default:
			return nil, nil, nil, false
		}
	}

	switch {
	case cs.NewFirst == nil:
		if current == nil {
			return nil, nil, nil, false
		}
		m.bound = nil
		return []*transform.Reference{current}, nil, nil, false

	case current == nil:
		m.bound = []*transform.Reference{cs.NewFirst}
		return nil, []*transform.Reference{cs.NewFirst}, nil, false

	case current.ServiceID() != cs.NewFirst.ServiceID():
		if m.policy != DynamicPriority {
			if _, inUse := m.serviceObjects[current.ServiceID()]; inUse {
				return nil, nil, nil, false
			}
		}
		m.bound = []*transform.Reference{cs.NewFirst}
		return []*transform.Reference{current}, []*transform.Reference{cs.NewFirst}, nil, false

	case cs.Modified != nil && cs.Modified.ServiceID() == current.ServiceID():
		m.bound = []*transform.Reference{cs.Modified}
		return nil, nil, cs.Modified, false

	default:
		m.bound = []*transform.Reference{cs.NewFirst}
		return nil, nil, nil, false
	}
}

func containsID(refs []*transform.Reference, id int64) bool {
	for _, r := range refs {
		if r.ServiceID() == id {
			return true
		}
	}
	return false
}

func removeID(refs []*transform.Reference, id int64) []*transform.Reference {
	out := make([]*transform.Reference, 0, len(refs))
	for _, r := range refs {
		if r.ServiceID() != id {
			out = append(out, r)
		}
	}
	return out
}

func replaceID(refs []*transform.Reference, ref *transform.Reference) []*transform.Reference {
	out := make([]*transform.Reference, len(refs))
	copy(out, refs)
	for i, r := range out {
		if r.ServiceID() == ref.ServiceID() {
			out[i] = ref
			break
		}
	}
	return out
}

// computeStateLocked applies spec.md §4.5's state rules: Broken is
// terminal until Stop (invariant I4), an optional dependency tolerates
// an empty bound set, a mandatory one does not.
func (m *Model) computeStateLocked(brokeStatic bool) State {
	if brokeStatic || m.state == Broken {
		return Broken
	}
	if len(m.bound) > 0 || m.optional {
		return Resolved
	}
	return Unresolved
}

// dispatch runs entirely outside mu: Registry.UngetService calls, then
// departure/arrival/modification callbacks in that order, then the
// validate/invalidate transition implied by oldState -> newState, then
// (if the dependency just broke) the Static restart cycle.
func (m *Model) dispatch(p plan) {
	for _, ref := range p.toRelease {
		m.trk.UngetService(ref.InitialReference())
	}
	for _, ref := range p.departures {
		m.listener.OnServiceDeparture(m, ref)
	}
	for _, ref := range p.arrivals {
		m.listener.OnServiceArrival(m, ref)
	}
	if p.modified != nil {
		m.listener.OnServiceModification(m, p.modified)
	}

	switch {
	case p.oldState != Broken && p.newState == Broken:
		m.listener.Invalidate(m)
		m.restartInstance()
	case p.oldState != Resolved && p.newState == Resolved:
		m.listener.Validate(m)
	case p.oldState == Resolved && p.newState != Resolved:
		m.listener.Invalidate(m)
	}
}

// restartInstance runs the Stop/Unfreeze/Start cycle on the owning
// component instance after a Static dependency breaks (spec.md §4.5).
// A restart that still fails after the orchestrator's retry budget is
// logged, not propagated: there is no caller left on the stack to
// hand the error to once a registry event triggered this path.
func (m *Model) restartInstance() {
	if m.restart == nil || m.instance == nil {
		return
	}
	if err := m.restart.Restart(context.Background(), m.instance); err != nil {
		scope.Errorf("dependency %s: restart after break failed: %v", m.identity.DependencyID, err)
	}
}
