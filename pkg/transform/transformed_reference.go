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

// Package transform implements TransformedReference, the
// property-overlay view interceptors use to reshape a raw
// registry.Reference without mutating the underlying provider's
// published properties.
package transform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

// ErrIllegalPropertyChange is returned by Set/Remove for one of the
// forbidden keys.
var ErrIllegalPropertyChange = errors.New("transform: illegal property change")

type tombstone struct{}

// forbiddenKeys are immutable regardless of overlay.
var forbiddenKeys = map[string]bool{
	registry.PropServiceID:    true,
	registry.PropServicePID:   true,
	registry.PropInstanceName: true,
}

// Reference wraps an underlying registry.Reference with a property
// overlay. Equality and hashing are by service.id, so two transformed
// views of the same underlying reference compare equal.
type Reference struct {
	underlying registry.Reference
	overlay    map[string]interface{}
}

var _ registry.Reference = (*Reference)(nil)

// New wraps ref with an empty overlay. If ref is itself a
// *Reference, New does not nest: the result wraps that reference's
// underlying reference with a fresh, empty overlay (the prior view's
// overlay is not carried over), matching InitialReference's contract
// that unwrapping always reaches the registry-native reference in one
// step.
func New(ref registry.Reference) *Reference {
	if tr, ok := ref.(*Reference); ok {
		return &Reference{underlying: tr.underlying, overlay: map[string]interface{}{}}
	}
	return &Reference{underlying: ref, overlay: map[string]interface{}{}}
}

// Clone returns a new Reference sharing the same underlying reference
// with an independent copy of the overlay, so interceptor chains can
// hand successive views downstream without aliasing.
func (r *Reference) Clone() *Reference {
	out := &Reference{underlying: r.underlying, overlay: make(map[string]interface{}, len(r.overlay))}
	for k, v := range r.overlay {
		out.overlay[k] = v
	}
	return out
}

// ServiceID is immutable and always read from the underlying reference.
func (r *Reference) ServiceID() int64 { return r.underlying.ServiceID() }

// Ranking returns the overridden service.ranking if one was set,
// otherwise the underlying reference's.
func (r *Reference) Ranking() int32 {
	if v, ok := r.Get(registry.PropServiceRanking); ok {
		if rank, ok := toInt32(v); ok {
			return rank
		}
	}
	return r.underlying.Ranking()
}

func toInt32(v interface{}) (int32, bool) {
	switch t := v.(type) {
	case int32:
		return t, true
	case int:
		return int32(t), true
	case int64:
		return int32(t), true
	}
	return 0, false
}

// Get looks up key, overlay first; a tombstone hides the underlying
// value and reports absence.
func (r *Reference) Get(key string) (interface{}, bool) {
	if v, ok := r.overlay[key]; ok {
		if _, dead := v.(tombstone); dead {
			return nil, false
		}
		return v, true
	}
	v, ok := r.underlying.Properties().Get(key)
	return v, ok
}

// AddProperty sets key=value in the overlay. Forbidden keys return
// ErrIllegalPropertyChange; setting a key already equal to value is a
// no-op (idempotent), matching spec.md §4.1.
func (r *Reference) AddProperty(key string, value interface{}) error {
	if forbiddenKeys[key] {
		return fmt.Errorf("transform: cannot set %q: %w", key, ErrIllegalPropertyChange)
	}
	if cur, ok := r.Get(key); ok && cur == value {
		return nil
	}
	r.overlay[key] = value
	return nil
}

// RemoveProperty tombstones key so Keys() omits it and Get reports
// absence, even if the underlying reference still carries it.
func (r *Reference) RemoveProperty(key string) error {
	if forbiddenKeys[key] {
		return fmt.Errorf("transform: cannot remove %q: %w", key, ErrIllegalPropertyChange)
	}
	r.overlay[key] = tombstone{}
	return nil
}

// Keys returns the union of underlying and overlay keys, minus any
// tombstoned key, sorted for deterministic iteration.
func (r *Reference) Keys() []string {
	seen := map[string]bool{}
	for k := range r.underlying.Properties() {
		seen[k] = true
	}
	for k, v := range r.overlay {
		if _, dead := v.(tombstone); dead {
			delete(seen, k)
			continue
		}
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Properties materializes the full overlay-resolved property map.
func (r *Reference) Properties() registry.Properties {
	out := make(registry.Properties, len(r.Keys()))
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		out[k] = v
	}
	return out
}

// InitialReference unwraps to the registry-native reference, required
// before calling Registry.GetService.
func (r *Reference) InitialReference() registry.Reference {
	return r.underlying
}

// Equal compares by service.id: two transformed views of the same
// underlying reference are the same reference.
func (r *Reference) Equal(other registry.Reference) bool {
	if other == nil {
		return false
	}
	return r.ServiceID() == other.ServiceID()
}

// CompareTo orders by rank descending (using any override), then by
// service.id ascending, the OSGi natural order.
func (r *Reference) CompareTo(other registry.Reference) int {
	if r.Ranking() != other.Ranking() {
		if r.Ranking() > other.Ranking() {
			return -1
		}
		return 1
	}
	switch {
	case r.ServiceID() < other.ServiceID():
		return -1
	case r.ServiceID() > other.ServiceID():
		return 1
	default:
		return 0
	}
}

// StrictlyEqual implements the "strict equality" rule from spec.md
// §4.4: same set of property keys with pairwise-equal values. This,
// not identity, drives whether a modification fires.
func StrictlyEqual(a, b *Reference) bool {
	ak, bk := a.Keys(), b.Keys()
	if len(ak) != len(bk) {
		return false
	}
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	for _, k := range ak {
		av, _ := a.Get(k)
		bv, _ := b.Get(k)
		if av != bv {
			return false
		}
	}
	return true
}
