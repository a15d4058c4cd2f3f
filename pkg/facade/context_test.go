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

package facade

import (
	"context"
	"testing"

	"github.com/ipojo-go/depresolver/pkg/interceptor"
	"github.com/ipojo-go/depresolver/pkg/ldapfilter"
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/registry/fake"
)

type stubDependency struct {
	spec string
}

func (s stubDependency) Specification() string                  { return s.spec }
func (s stubDependency) IdentityProperties() registry.Properties { return registry.Properties{} }

type recordingListener struct {
	events []registry.ServiceEvent
}

func (l *recordingListener) ServiceChanged(_ context.Context, ev registry.ServiceEvent) {
	l.events = append(l.events, ev)
}

func TestGetServiceReferencesAppliesChainAndDropsRejected(t *testing.T) {
	const spec = "example.Facade"
	reg := fake.New(spec)
	reg.Register(fake.Ref{ID: 1, Rank: 0}, "low-obj")
	reg.Register(fake.Ref{ID: 2, Rank: 10}, "high-obj")

	filter := ldapfilter.MustCompile("(service.ranking>=5)")
	chain := interceptor.NewFilterTracking(filter)
	ctx := New(reg, stubDependency{spec: spec}, chain)

	refs, err := ctx.GetServiceReferences(spec, nil)
	if err != nil {
		t.Fatalf("GetServiceReferences: %v", err)
	}
	if len(refs) != 1 || refs[0].ServiceID() != 2 {
		t.Fatalf("refs = %v, want only id 2 to survive the ranking>=5 filter", refs)
	}
}

func TestGetServiceUnwrapsTransformedReference(t *testing.T) {
	const spec = "example.Facade"
	reg := fake.New(spec)
	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")

	ctx := New(reg, stubDependency{spec: spec})
	refs, err := ctx.GetServiceReferences(spec, nil)
	if err != nil || len(refs) != 1 {
		t.Fatalf("GetServiceReferences: refs=%v err=%v", refs, err)
	}

	obj, err := ctx.GetService(refs[0])
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if obj != "obj-1" {
		t.Fatalf("GetService = %v, want obj-1", obj)
	}
}

func TestAddServiceListenerTranslatesAcceptanceTransitions(t *testing.T) {
	const spec = "example.Facade"
	reg := fake.New(spec)

	filter := ldapfilter.MustCompile("(service.ranking>=5)")
	chain := interceptor.NewFilterTracking(filter)
	ctx := New(reg, stubDependency{spec: spec}, chain)

	rec := &recordingListener{}
	if err := ctx.AddServiceListener(context.Background(), rec, nil); err != nil {
		t.Fatalf("AddServiceListener: %v", err)
	}

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "below-threshold")
	if len(rec.events) != 0 {
		t.Fatalf("events after rejected arrival = %v, want none", rec.events)
	}

	reg.Modify(fake.Ref{ID: 1, Rank: 9})
	if len(rec.events) != 1 || rec.events[0].Kind != registry.EventAdded {
		t.Fatalf("events after becoming acceptable = %v, want one Added", rec.events)
	}

	reg.Modify(fake.Ref{ID: 1, Rank: 2})
	if len(rec.events) != 2 || rec.events[1].Kind != registry.EventRemoved {
		t.Fatalf("events after falling below threshold = %v, want Removed", rec.events)
	}
}
