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

package selector

import (
	"github.com/hashicorp/go-multierror"
	"istio.io/pkg/log"

	"github.com/ipojo-go/depresolver/pkg/interceptor"
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

var scope = log.RegisterScope("selector", "matching/selected set management", 0)

// TrackedSource is the subset of tracker.Tracker the manager needs to
// replay the tracking chain over during interceptor churn.
type TrackedSource interface {
	Current() []registry.Reference
}

// Manager owns the matching and selected sets for one dependency. It
// has no lock of its own: spec.md §5 puts matching/selected/bound/
// state mutation under the owning DependencyModel's single write
// lock, so every exported method here is only ever called while that
// lock is held (see pkg/dependency). Manager never calls back into
// the model except by returning a ChangeSet -- the model decides what
// to do with it outside the lock.
type Manager struct {
	source TrackedSource

	trackingChain []interceptor.TrackingInterceptor
	ranking       interceptor.RankingInterceptor

	matchingOrder []int64
	matching      map[int64]*transform.Reference
	selected      []*transform.Reference
}

// New creates a manager with the default identity tracking chain
// (just DefaultTracking) and identity ranking, matching spec.md §3's
// "default is identity" for both slots.
func New(source TrackedSource) *Manager {
	return &Manager{
		source:        source,
		trackingChain: []interceptor.TrackingInterceptor{interceptor.NewDefaultTracking()},
		ranking:       interceptor.NewDefaultRanking(),
		matching:      map[int64]*transform.Reference{},
	}
}

// Matching returns a snapshot of the matching set in insertion order.
func (m *Manager) Matching() []*transform.Reference {
	out := make([]*transform.Reference, 0, len(m.matchingOrder))
	for _, id := range m.matchingOrder {
		out = append(out, m.matching[id])
	}
	return out
}

// Selected returns a snapshot of the current selected set.
func (m *Manager) Selected() []*transform.Reference {
	out := make([]*transform.Reference, len(m.selected))
	copy(out, m.selected)
	return out
}

// runChain applies the tracking chain left to right, composing each
// interceptor's rewritten view into the next. A panicking or
// rejecting interceptor drops the reference rather than aborting the
// whole chain (spec.md §7: interceptor errors during accept are
// "treated as drop the reference ... and logged").
func (m *Manager) runChain(dep interceptor.Dependency, ref registry.Reference) (tr *transform.Reference, ok bool) {
	tr = transform.New(ref)
	for _, ic := range m.trackingChain {
		if !interceptor.Matches(ic, dep) {
			continue
		}
		next, accepted := safeAccept(ic, dep, tr)
		if !accepted {
			return nil, false
		}
		tr = next
	}
	return tr, true
}

func safeAccept(ic interceptor.TrackingInterceptor, dep interceptor.Dependency, tr *transform.Reference) (next *transform.Reference, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			scope.Errorf("tracking interceptor panicked during accept, dropping reference %d: %v", tr.ServiceID(), r)
			next, ok = nil, false
		}
	}()
	return ic.Accept(dep, tr)
}

func (m *Manager) insertMatching(id int64, tr *transform.Reference) {
	if _, exists := m.matching[id]; !exists {
		m.matchingOrder = append(m.matchingOrder, id)
	}
	m.matching[id] = tr
}

func (m *Manager) removeMatching(id int64) {
	delete(m.matching, id)
	for i, v := range m.matchingOrder {
		if v == id {
			m.matchingOrder = append(m.matchingOrder[:i], m.matchingOrder[i+1:]...)
			return
		}
	}
}

// OnAdded runs the tracking chain over ref; if accepted, inserts it
// into matching (in arrival order) and re-ranks (spec.md §4.4
// tracked -> matching, step 1-4).
func (m *Manager) OnAdded(dep interceptor.Dependency, ref registry.Reference) *ChangeSet {
	tr, ok := m.runChain(dep, ref)
	if !ok {
		return nil
	}
	m.insertMatching(ref.ServiceID(), tr)

	oldSelected := m.selected
	m.selected = m.ranking.OnServiceArrival(dep, m.Matching(), tr)
	return buildChangeSet(oldSelected, m.selected)
}

// OnRemoved drops ref from matching (if present) and re-ranks
// (spec.md §4.4 "On removed").
func (m *Manager) OnRemoved(dep interceptor.Dependency, ref registry.Reference) *ChangeSet {
	id := ref.ServiceID()
	tr, tracked := m.matching[id]
	if !tracked {
		return nil
	}
	m.removeMatching(id)

	oldSelected := m.selected
	m.selected = m.ranking.OnServiceDeparture(dep, m.Matching(), tr)
	return buildChangeSet(oldSelected, m.selected)
}

// OnModified re-evaluates ref's acceptance and, per spec.md §4.4:
//   - still matching, accept now fails -> departure path
//   - matching, still accepted, strictly changed -> replace in place,
//     rank, emit ChangeSet.Modified
//   - matching, still accepted, strictly equal -> no-op (no event)
//   - not matching, now accepted -> arrival path
//
// "Replace in place" (never append) is the deliberate fix for the
// duplicate-entry bug spec.md §9 flags in the simpler reference
// manager.
func (m *Manager) OnModified(dep interceptor.Dependency, ref registry.Reference) *ChangeSet {
	id := ref.ServiceID()
	prior, wasMatching := m.matching[id]

	newTR, accepted := m.runChain(dep, ref)

	switch {
	case wasMatching && !accepted:
		m.removeMatching(id)
		oldSelected := m.selected
		m.selected = m.ranking.OnServiceDeparture(dep, m.Matching(), prior)
		return buildChangeSet(oldSelected, m.selected)

	case wasMatching && accepted:
		if transform.StrictlyEqual(prior, newTR) {
			return nil
		}
		m.matching[id] = newTR // in place: id already in matchingOrder
		oldSelected := m.selected
		m.selected = m.ranking.OnServiceModified(dep, m.Matching(), newTR)
		cs := buildChangeSet(oldSelected, m.selected)
		cs.Modified = newTR
		return cs

	case !wasMatching && accepted:
		m.insertMatching(id, newTR)
		oldSelected := m.selected
		m.selected = m.ranking.OnServiceArrival(dep, m.Matching(), newTR)
		return buildChangeSet(oldSelected, m.selected)

	default:
		return nil
	}
}

// SetTrackingChain replaces the tracking chain wholesale and re-runs
// it over the tracker's current tracked set, rebuilding matching from
// scratch and re-ranking -- the "interceptor churn" behavior of
// spec.md §4.4. filterInterceptor, if non-nil, is appended as the
// terminal link (the dependency's own LDAP filter).
func (m *Manager) SetTrackingChain(dep interceptor.Dependency, chain []interceptor.TrackingInterceptor, filterInterceptor interceptor.TrackingInterceptor) *ChangeSet {
	m.trackingChain = append(append([]interceptor.TrackingInterceptor{}, chain...), nonNil(filterInterceptor)...)
	return m.rebuildMatching(dep)
}

func nonNil(ic interceptor.TrackingInterceptor) []interceptor.TrackingInterceptor {
	if ic == nil {
		return nil
	}
	return []interceptor.TrackingInterceptor{ic}
}

func (m *Manager) rebuildMatching(dep interceptor.Dependency) *ChangeSet {
	oldSelected := m.selected

	m.matching = map[int64]*transform.Reference{}
	m.matchingOrder = nil
	for _, ref := range m.source.Current() {
		if tr, ok := m.runChain(dep, ref); ok {
			m.insertMatching(ref.ServiceID(), tr)
		}
	}
	m.selected = m.ranking.GetServiceReferences(dep, m.Matching())
	return buildChangeSet(oldSelected, m.selected)
}

// SetRankingInterceptor installs ranking as the sole ranker and
// re-ranks the existing matching set (spec.md §4.4 "When a
// RankingInterceptor is added, it becomes the sole ranker").
func (m *Manager) SetRankingInterceptor(dep interceptor.Dependency, ranking interceptor.RankingInterceptor) *ChangeSet {
	m.ranking = ranking
	oldSelected := m.selected
	m.selected = m.ranking.GetServiceReferences(dep, m.Matching())
	return buildChangeSet(oldSelected, m.selected)
}

// Open opens the full tracking chain and the ranking interceptor for
// dep, aggregating any failures rather than aborting after the first
// (spec.md §7: an interceptor fault is logged, not allowed to abort
// the whole chain).
func (m *Manager) Open(dep interceptor.Dependency) error {
	var result *multierror.Error
	for _, ic := range m.trackingChain {
		if !interceptor.Matches(ic, dep) {
			continue
		}
		if err := ic.Open(dep); err != nil {
			scope.Warnf("tracking interceptor open failed: %v", err)
			result = multierror.Append(result, err)
		}
	}
	if m.ranking != nil {
		if err := m.ranking.Open(dep); err != nil {
			scope.Warnf("ranking interceptor open failed: %v", err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RunGetServiceHook applies the tracking chain's GetService hooks
// left to right, letting interceptors proxy or decorate the borrowed
// service object (spec.md §4.5 "Service-object borrowing").
func (m *Manager) RunGetServiceHook(dep interceptor.Dependency, ref *transform.Reference, svc registry.ServiceObject) registry.ServiceObject {
	for _, ic := range m.trackingChain {
		if !interceptor.Matches(ic, dep) {
			continue
		}
		svc = ic.GetService(dep, ref, svc)
	}
	return svc
}

// RunUngetServiceHook notifies the tracking chain that lastUse is
// being released, left to right, mirroring RunGetServiceHook.
func (m *Manager) RunUngetServiceHook(dep interceptor.Dependency, ref *transform.Reference, lastUse registry.ServiceObject) {
	for _, ic := range m.trackingChain {
		if !interceptor.Matches(ic, dep) {
			continue
		}
		ic.UngetService(dep, ref, lastUse)
	}
}

// Close tears down both interceptor slots.
func (m *Manager) Close(dep interceptor.Dependency) {
	for _, ic := range m.trackingChain {
		ic.Close(dep)
	}
	if m.ranking != nil {
		m.ranking.Close(dep)
	}
	m.matching = map[int64]*transform.Reference{}
	m.matchingOrder = nil
	m.selected = nil
}
