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

package transform

import (
	"errors"
	"testing"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

type stubRef struct {
	id    int64
	rank  int32
	props registry.Properties
}

func (s stubRef) ServiceID() int64               { return s.id }
func (s stubRef) Ranking() int32                 { return s.rank }
func (s stubRef) Properties() registry.Properties { return s.props }

func TestNewDoesNotNestTransforms(t *testing.T) {
	base := stubRef{id: 1, props: registry.Properties{"k": "v"}}
	once := New(base)
	_ = once.AddProperty("k2", "v2")
	twice := New(once)

	if twice.ServiceID() != base.id {
		t.Fatalf("ServiceID() = %d, want %d", twice.ServiceID(), base.id)
	}
	if _, ok := twice.Get("k2"); ok {
		t.Fatalf("expected New to discard the prior overlay, found k2")
	}
}

func TestAddPropertyRejectsForbiddenKeys(t *testing.T) {
	ref := New(stubRef{id: 1, props: registry.Properties{}})
	if err := ref.AddProperty(registry.PropServiceID, 99); !errors.Is(err, ErrIllegalPropertyChange) {
		t.Fatalf("AddProperty(service.id) error = %v, want ErrIllegalPropertyChange", err)
	}
}

func TestAddPropertyIdempotentNoOp(t *testing.T) {
	ref := New(stubRef{id: 1, props: registry.Properties{"color": "red"}})
	if err := ref.AddProperty("color", "red"); err != nil {
		t.Fatalf("no-op AddProperty returned %v", err)
	}
}

func TestRemovePropertyTombstonesUnderlyingValue(t *testing.T) {
	ref := New(stubRef{id: 1, props: registry.Properties{"color": "red"}})
	if err := ref.RemoveProperty("color"); err != nil {
		t.Fatalf("RemoveProperty: %v", err)
	}
	if _, ok := ref.Get("color"); ok {
		t.Fatalf("expected color to be hidden after RemoveProperty")
	}
	for _, k := range ref.Keys() {
		if k == "color" {
			t.Fatalf("Keys() should omit tombstoned key, got %v", ref.Keys())
		}
	}
}

func TestRankingPrefersOverlayOverride(t *testing.T) {
	ref := New(stubRef{id: 1, rank: 0, props: registry.Properties{}})
	if err := ref.AddProperty(registry.PropServiceRanking, int32(42)); err != nil {
		t.Fatalf("AddProperty: %v", err)
	}
	if got := ref.Ranking(); got != 42 {
		t.Fatalf("Ranking() = %d, want 42", got)
	}
}

func TestCompareToOrdersByRankThenID(t *testing.T) {
	high := New(stubRef{id: 5, rank: 10, props: registry.Properties{}})
	low := New(stubRef{id: 1, rank: 0, props: registry.Properties{}})
	if high.CompareTo(low) >= 0 {
		t.Fatalf("higher-ranked reference should sort first")
	}

	a := New(stubRef{id: 1, rank: 0, props: registry.Properties{}})
	b := New(stubRef{id: 2, rank: 0, props: registry.Properties{}})
	if a.CompareTo(b) >= 0 {
		t.Fatalf("tied rank should break on lower service.id first")
	}
}

func TestStrictlyEqual(t *testing.T) {
	a := New(stubRef{id: 1, props: registry.Properties{"k": "v"}})
	b := New(stubRef{id: 1, props: registry.Properties{"k": "v"}})
	if !StrictlyEqual(a, b) {
		t.Fatalf("expected identical property sets to be strictly equal")
	}

	c := New(stubRef{id: 1, props: registry.Properties{"k": "other"}})
	if StrictlyEqual(a, c) {
		t.Fatalf("expected differing property values to not be strictly equal")
	}
}
