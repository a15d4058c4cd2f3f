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

// Package fake is an in-memory registry.Registry used by this
// module's own tests and by cmd/depresolver-demo. The real OSGi
// framework registry is out of scope (spec.md §1); this stands in for
// it so the resolver pipeline can be exercised end to end.
package fake

import (
	"context"
	"sort"
	"sync"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

// Ref is a simple registry.Reference backed by a static property map.
type Ref struct {
	ID     int64
	Rank   int32
	Props  registry.Properties
}

var _ registry.Reference = Ref{}

func (r Ref) ServiceID() int64             { return r.ID }
func (r Ref) Ranking() int32               { return r.Rank }
func (r Ref) Properties() registry.Properties {
	p := r.Props.Clone()
	p[registry.PropServiceID] = r.ID
	p[registry.PropServiceRanking] = r.Rank
	return p
}

// Registry is a trivial thread-safe Registry implementation: one
// class of service, no modularity rules, synchronous event delivery.
type Registry struct {
	mu        sync.Mutex
	class     string
	refs      map[int64]registry.Reference
	objects   map[int64]registry.ServiceObject
	listeners map[registry.Listener]registry.Filter
}

var _ registry.Registry = (*Registry)(nil)

// New creates a fake registry serving references of the given class.
func New(class string) *Registry {
	return &Registry{
		class:     class,
		refs:      map[int64]registry.Reference{},
		objects:   map[int64]registry.ServiceObject{},
		listeners: map[registry.Listener]registry.Filter{},
	}
}

// Register publishes ref and synchronously notifies listeners.
func (r *Registry) Register(ref registry.Reference, obj registry.ServiceObject) {
	r.mu.Lock()
	r.refs[ref.ServiceID()] = ref
	r.objects[ref.ServiceID()] = obj
	listeners := r.snapshotListeners()
	r.mu.Unlock()

	r.notify(listeners, registry.ServiceEvent{Kind: registry.EventAdded, Reference: ref})
}

// Modify republishes ref (same service.id, new properties) and
// notifies listeners of a modification.
func (r *Registry) Modify(ref registry.Reference) {
	r.mu.Lock()
	r.refs[ref.ServiceID()] = ref
	listeners := r.snapshotListeners()
	r.mu.Unlock()

	r.notify(listeners, registry.ServiceEvent{Kind: registry.EventModified, Reference: ref})
}

// Unregister removes ref and notifies listeners of its departure.
func (r *Registry) Unregister(id int64) {
	r.mu.Lock()
	ref, ok := r.refs[id]
	delete(r.refs, id)
	delete(r.objects, id)
	listeners := r.snapshotListeners()
	r.mu.Unlock()
	if !ok {
		return
	}
	r.notify(listeners, registry.ServiceEvent{Kind: registry.EventRemoved, Reference: ref})
}

func (r *Registry) snapshotListeners() map[registry.Listener]registry.Filter {
	out := make(map[registry.Listener]registry.Filter, len(r.listeners))
	for l, f := range r.listeners {
		out[l] = f
	}
	return out
}

func (r *Registry) notify(listeners map[registry.Listener]registry.Filter, ev registry.ServiceEvent) {
	for l, f := range listeners {
		if f != nil && !f.Matches(ev.Reference.Properties()) && ev.Kind != registry.EventRemoved {
			continue
		}
		l.ServiceChanged(context.Background(), ev)
	}
}

func (r *Registry) AddServiceListener(_ context.Context, l registry.Listener, filter registry.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[l] = filter
	return nil
}

func (r *Registry) RemoveServiceListener(l registry.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, l)
	return nil
}

func (r *Registry) GetServiceReference(class string) (registry.Reference, bool) {
	refs, _ := r.GetServiceReferences(class, nil)
	if len(refs) == 0 {
		return nil, false
	}
	return refs[0], true
}

func (r *Registry) GetServiceReferences(class string, filter registry.Filter) ([]registry.Reference, error) {
	return r.GetAllServiceReferences(class, filter)
}

func (r *Registry) GetAllServiceReferences(class string, filter registry.Filter) ([]registry.Reference, error) {
	if class != "" && class != r.class {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []registry.Reference
	for _, ref := range r.refs {
		if filter == nil || filter.Matches(ref.Properties()) {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return registry.Less(out[i], out[j]) })
	return out, nil
}

func (r *Registry) GetService(ref registry.Reference) (registry.ServiceObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects[ref.ServiceID()], nil
}

func (r *Registry) UngetService(ref registry.Reference) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[ref.ServiceID()]
	return ok
}

func (r *Registry) CompileFilter(expr string) (registry.Filter, error) {
	return compileFilter(expr)
}
