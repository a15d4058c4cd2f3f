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

// Package facade implements InterceptableContext, a Registry facade
// that applies a tracking interceptor chain to every reference a
// caller outside the resolver's own dependency machinery sees --
// lookups, snapshots, and listener events alike -- so arbitrary
// consumers get the same transformed view a DependencyModel would.
package facade

import (
	"context"
	"sort"
	"sync"

	"istio.io/pkg/log"

	"github.com/ipojo-go/depresolver/pkg/interceptor"
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

var scope = log.RegisterScope("facade", "interceptor-aware registry facade", 0)

// InterceptableContext wraps a registry.Registry so that every
// reference it hands back -- from a direct lookup or from a
// subscribed listener -- has already passed through chain, in the
// overlay form interceptors may have rewritten it into.
type InterceptableContext struct {
	reg   registry.Registry
	dep   interceptor.Dependency
	chain []interceptor.TrackingInterceptor
}

var _ registry.Registry = (*InterceptableContext)(nil)

// New wraps reg for dep with chain, applied left to right exactly as
// selector.Manager applies its own tracking chain.
func New(reg registry.Registry, dep interceptor.Dependency, chain ...interceptor.TrackingInterceptor) *InterceptableContext {
	return &InterceptableContext{reg: reg, dep: dep, chain: chain}
}

func (c *InterceptableContext) runChain(ref registry.Reference) (*transform.Reference, bool) {
	tr := transform.New(ref)
	for _, ic := range c.chain {
		if !interceptor.Matches(ic, c.dep) {
			continue
		}
		next, ok := safeAccept(ic, c.dep, tr)
		if !ok {
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

// GetServiceReference returns the highest-ranked reference of class
// that survives the chain, or false if none does.
func (c *InterceptableContext) GetServiceReference(class string) (registry.Reference, bool) {
	refs, err := c.GetServiceReferences(class, nil)
	if err != nil || len(refs) == 0 {
		return nil, false
	}
	return refs[0], true
}

// GetServiceReferences returns every matching reference that survives
// the chain, in natural OSGi order.
func (c *InterceptableContext) GetServiceReferences(class string, filter registry.Filter) ([]registry.Reference, error) {
	raw, err := c.reg.GetServiceReferences(class, filter)
	if err != nil {
		return nil, err
	}
	return c.acceptAll(raw), nil
}

// GetAllServiceReferences mirrors GetServiceReferences using the
// registry's unrestricted lookup.
func (c *InterceptableContext) GetAllServiceReferences(class string, filter registry.Filter) ([]registry.Reference, error) {
	raw, err := c.reg.GetAllServiceReferences(class, filter)
	if err != nil {
		return nil, err
	}
	return c.acceptAll(raw), nil
}

func (c *InterceptableContext) acceptAll(raw []registry.Reference) []registry.Reference {
	out := make([]registry.Reference, 0, len(raw))
	for _, ref := range raw {
		if tr, ok := c.runChain(ref); ok {
			out = append(out, tr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return registry.Less(out[i], out[j]) })
	return out
}

// GetService unwraps a transformed reference to its registry-native
// InitialReference before delegating, since the underlying Registry
// only ever knows about references it issued itself.
func (c *InterceptableContext) GetService(ref registry.Reference) (registry.ServiceObject, error) {
	return c.reg.GetService(unwrap(ref))
}

// UngetService mirrors GetService's unwrapping.
func (c *InterceptableContext) UngetService(ref registry.Reference) bool {
	return c.reg.UngetService(unwrap(ref))
}

func unwrap(ref registry.Reference) registry.Reference {
	if tr, ok := ref.(*transform.Reference); ok {
		return tr.InitialReference()
	}
	return ref
}

// CompileFilter delegates directly; filter compilation has no
// interceptor-visible effect.
func (c *InterceptableContext) CompileFilter(expr string) (registry.Filter, error) {
	return c.reg.CompileFilter(expr)
}

// AddServiceListener subscribes l to chain-filtered, chain-transformed
// events: an Added is only forwarded the first time a reference
// becomes acceptable, a no-longer-acceptable reference is reported as
// Removed rather than Modified, and a still-acceptable Modified is
// forwarded with its freshly rewritten view (spec.md §4.6).
func (c *InterceptableContext) AddServiceListener(ctx context.Context, l registry.Listener, filter registry.Filter) error {
	guard := &acceptGuard{ctx: ctx, wrap: c, downstream: l, accepted: map[int64]bool{}}
	return c.reg.AddServiceListener(ctx, guard, filter)
}

// RemoveServiceListener is a thin pass-through; acceptGuard carries no
// state RemoveServiceListener itself needs to clear.
func (c *InterceptableContext) RemoveServiceListener(l registry.Listener) error {
	return c.reg.RemoveServiceListener(l)
}

type acceptGuard struct {
	ctx        context.Context
	wrap       *InterceptableContext
	downstream registry.Listener

	mu       sync.Mutex
	accepted map[int64]bool
}

func (g *acceptGuard) ServiceChanged(ctx context.Context, ev registry.ServiceEvent) {
	id := ev.Reference.ServiceID()

	if ev.Kind == registry.EventRemoved {
		g.mu.Lock()
		wasAccepted := g.accepted[id]
		delete(g.accepted, id)
		g.mu.Unlock()
		if wasAccepted {
			g.downstream.ServiceChanged(ctx, registry.ServiceEvent{Kind: registry.EventRemoved, Reference: ev.Reference})
		}
		return
	}

	tr, ok := g.wrap.runChain(ev.Reference)

	g.mu.Lock()
	wasAccepted := g.accepted[id]
	if ok {
		g.accepted[id] = true
	} else {
		delete(g.accepted, id)
	}
	g.mu.Unlock()

	switch {
	case ok && !wasAccepted:
		g.downstream.ServiceChanged(ctx, registry.ServiceEvent{Kind: registry.EventAdded, Reference: tr})
	case ok && wasAccepted:
		g.downstream.ServiceChanged(ctx, registry.ServiceEvent{Kind: registry.EventModified, Reference: tr})
	case !ok && wasAccepted:
		g.downstream.ServiceChanged(ctx, registry.ServiceEvent{Kind: registry.EventRemoved, Reference: ev.Reference})
	}
}
