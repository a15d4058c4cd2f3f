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

// Package tracker implements RegistryTracker, the sole event source
// for a dependency: it subscribes to the registry and relays
// added/modified/removed callbacks to a Customizer, independent of any
// interceptor concern. The interface name scopes only the initial
// snapshot taken in Open; the listener subscription itself carries
// just the LDAP filter passed to Open, so events are not narrowed by
// interface name.
package tracker

import (
	"context"
	"sync"

	"istio.io/pkg/log"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

var scope = log.RegisterScope("tracker", "registry service tracker", 0)

// Customizer is notified of tracked reference lifecycle events. Return
// false from Adding to ignore a reference entirely (it never appears
// in Current() or generates Added/Removed calls).
type Customizer interface {
	Adding(ref registry.Reference) bool
	Added(ref registry.Reference)
	Modified(ref registry.Reference, svc registry.ServiceObject)
	Removed(ref registry.Reference, svc registry.ServiceObject)
}

// Tracker observes a Registry for one service interface and mirrors
// events to a Customizer, maintaining its own oldest-first list of
// currently tracked references.
type Tracker struct {
	reg       registry.Registry
	class     string
	customizer Customizer

	mu      sync.Mutex
	order   []int64
	current map[int64]registry.Reference
	borrows map[int64]registry.ServiceObject
	open    bool
}

var _ registry.Listener = (*Tracker)(nil)

// New creates a tracker for class, not yet subscribed; call Open.
func New(reg registry.Registry, class string, customizer Customizer) *Tracker {
	return &Tracker{
		reg:        reg,
		class:      class,
		customizer: customizer,
		current:    map[int64]registry.Reference{},
		borrows:    map[int64]registry.ServiceObject{},
	}
}

// Open subscribes to the registry and seeds Current() with anything
// already published, delivering synthetic Added events for each.
func (t *Tracker) Open(ctx context.Context, filter registry.Filter) error {
	t.mu.Lock()
	if t.open {
		t.mu.Unlock()
		return nil
	}
	t.open = true
	t.mu.Unlock()

	if err := t.reg.AddServiceListener(ctx, t, filter); err != nil {
		return err
	}

	existing, err := t.reg.GetAllServiceReferences(t.class, filter)
	if err != nil {
		scope.Warnf("tracker: initial snapshot for %s failed: %v", t.class, err)
		return nil
	}
	for _, ref := range existing {
		t.ServiceChanged(ctx, registry.ServiceEvent{Kind: registry.EventAdded, Reference: ref})
	}
	return nil
}

// Close unsubscribes and releases every currently borrowed object.
// It does not deliver Removed to the Customizer for the references it
// was tracking, and once unsubscribed it receives no further registry
// events; it only clears its own bookkeeping.
func (t *Tracker) Close() {
	_ = t.reg.RemoveServiceListener(t)

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, obj := range t.borrows {
		ref := t.current[id]
		if ref != nil {
			t.reg.UngetService(ref)
		}
		_ = obj
	}
	t.order = nil
	t.current = map[int64]registry.Reference{}
	t.borrows = map[int64]registry.ServiceObject{}
	t.open = false
}

// Current returns the tracked set, oldest registration first.
func (t *Tracker) Current() []registry.Reference {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]registry.Reference, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.current[id])
	}
	return out
}

// ServiceChanged implements registry.Listener; this is the only entry
// point through which tracked state changes. It never inspects
// filters or interceptors -- that is the SelectedServicesManager's
// job downstream.
func (t *Tracker) ServiceChanged(ctx context.Context, ev registry.ServiceEvent) {
	switch ev.Kind {
	case registry.EventAdded:
		if !t.customizer.Adding(ev.Reference) {
			return
		}
		t.mu.Lock()
		id := ev.Reference.ServiceID()
		if _, exists := t.current[id]; !exists {
			t.order = append(t.order, id)
		}
		t.current[id] = ev.Reference
		t.mu.Unlock()
		t.customizer.Added(ev.Reference)

	case registry.EventModified:
		t.mu.Lock()
		id := ev.Reference.ServiceID()
		_, tracked := t.current[id]
		if tracked {
			t.current[id] = ev.Reference
		}
		t.mu.Unlock()
		if !tracked {
			return
		}
		svc, _ := t.reg.GetService(ev.Reference)
		t.customizer.Modified(ev.Reference, svc)

	case registry.EventRemoved:
		t.mu.Lock()
		id := ev.Reference.ServiceID()
		ref, tracked := t.current[id]
		if tracked {
			delete(t.current, id)
			t.removeFromOrder(id)
		}
		obj := t.borrows[id]
		delete(t.borrows, id)
		t.mu.Unlock()
		if !tracked {
			return
		}
		t.customizer.Removed(ref, obj)
	}
}

func (t *Tracker) removeFromOrder(id int64) {
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// GetService borrows ref's service object, tracking it for Close to
// release.
func (t *Tracker) GetService(ref registry.Reference) (registry.ServiceObject, error) {
	obj, err := t.reg.GetService(ref)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.borrows[ref.ServiceID()] = obj
	t.mu.Unlock()
	return obj, nil
}

// UngetService releases a previously borrowed service object.
func (t *Tracker) UngetService(ref registry.Reference) bool {
	t.mu.Lock()
	delete(t.borrows, ref.ServiceID())
	t.mu.Unlock()
	return t.reg.UngetService(ref)
}
