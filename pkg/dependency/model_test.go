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

package dependency

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/registry/fake"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

type spyListener struct {
	mu      sync.Mutex
	events  []string
	lastRef map[string]int64
}

func newSpyListener() *spyListener {
	return &spyListener{lastRef: map[string]int64{}}
}

func (s *spyListener) record(kind string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, kind)
	s.lastRef[kind] = id
}

func (s *spyListener) Validate(*Model)   { s.record("validate", 0) }
func (s *spyListener) Invalidate(*Model) { s.record("invalidate", 0) }
func (s *spyListener) OnServiceArrival(_ *Model, ref *transform.Reference) {
	s.record("arrival", ref.ServiceID())
}
func (s *spyListener) OnServiceDeparture(_ *Model, ref *transform.Reference) {
	s.record("departure", ref.ServiceID())
}
func (s *spyListener) OnServiceModification(_ *Model, ref *transform.Reference) {
	s.record("modified", ref.ServiceID())
}

func (s *spyListener) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

const testSpec = "example.Greeter"

func newTestModel(t *testing.T, cfg Config, reg registry.Registry, listener Listener) *Model {
	t.Helper()
	RegisterSpecification(testSpec)
	if cfg.Specification == "" {
		cfg.Specification = testSpec
	}
	m, err := New(cfg, Identity{DependencyID: "test"}, reg, listener, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Stop)
	return m
}

func TestMandatoryDynamicStartsUnresolved(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	assert.Equal(t, Unresolved, m.GetState())
	assert.True(t, m.IsEmpty())
}

func TestMandatoryDynamicResolvesOnArrival(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")

	assert.Equal(t, Resolved, m.GetState())
	assert.Equal(t, []string{"arrival", "validate"}, spy.snapshot())
	first, ok := m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 1, first.ServiceID())
}

func TestOptionalDependencyStartsResolvedEmpty(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic", Optional: true}, reg, spy)

	assert.Equal(t, Resolved, m.GetState())
	assert.True(t, m.IsEmpty())
}

func TestDynamicRebindsToHigherRankedArrival(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	first, ok := m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 2, first.ServiceID(), "dynamic policy should rebind to the higher-ranked arrival")

	events := spy.snapshot()
	assert.Contains(t, events, "departure")
	assert.Equal(t, int64(1), spy.lastRef["departure"])
}

func TestDynamicGoesUnresolvedWhenLastProviderDeparts(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	require.Equal(t, Resolved, m.GetState())

	reg.Unregister(1)

	assert.Equal(t, Unresolved, m.GetState())
	assert.True(t, m.IsEmpty())
	events := spy.snapshot()
	assert.Equal(t, "invalidate", events[len(events)-1])
}

func TestDynamicKeepsBorrowedBindingUntilReleased(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	first, ok := m.GetFirstService()
	require.True(t, ok)
	_, err := m.GetService(first)
	require.NoError(t, err)

	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	bound, ok := m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 1, bound.ServiceID(), "a borrowed Dynamic binding must not rebind away while in use")
	assert.Equal(t, []string{"arrival", "validate"}, spy.snapshot(), "no departure/arrival should fire while the binding is held")

	m.UngetService(first)
	reg.Modify(fake.Ref{ID: 1, Rank: 0, Props: registry.Properties{"released": true}})

	bound, ok = m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 2, bound.ServiceID(), "once released, Dynamic should rebind to the higher-ranked provider")
}

func TestDynamicPriorityRebindsEvenWhileInUse(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic-priority"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	first, ok := m.GetFirstService()
	require.True(t, ok)
	_, err := m.GetService(first)
	require.NoError(t, err)

	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	bound, ok := m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 2, bound.ServiceID(), "DynamicPriority rebinds even while the prior binding is in use")
}

func TestAggregateInUsePreservesBorrowedBindingsAndAppendsArrivals(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic", Aggregate: true}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	bound := m.GetBound()
	require.Len(t, bound, 1)
	_, err := m.GetService(bound[0])
	require.NoError(t, err)

	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	ids := map[int64]bool{}
	for _, ref := range m.GetBound() {
		ids[ref.ServiceID()] = true
	}
	assert.True(t, ids[1], "borrowed reference must be retained")
	assert.True(t, ids[2], "new arrival must be appended")
	assert.Len(t, m.GetBound(), 2)
}

func TestStaticAggregateBreaksWhenABoundProviderDeparts(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "static", Aggregate: true}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")
	require.Len(t, m.GetBound(), 2)

	reg.Unregister(1)

	assert.Equal(t, Broken, m.GetState())
	events := spy.snapshot()
	assert.Equal(t, "invalidate", events[len(events)-1])
}

func TestStaticIgnoresReorderingButBreaksOnLoss(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "static"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	first, ok := m.GetFirstService()
	require.True(t, ok)
	assert.EqualValues(t, 1, first.ServiceID(), "static policy must not rebind away from an already-bound provider")

	reg.Unregister(1)
	assert.Equal(t, Broken, m.GetState())
	assert.True(t, m.IsEmpty())
}

func TestAggregateBindsEveryMatchingProvider(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic", Aggregate: true}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	reg.Register(fake.Ref{ID: 2, Rank: 10}, "obj-2")

	assert.Len(t, m.GetBound(), 2)

	reg.Unregister(1)
	assert.Len(t, m.GetBound(), 1)
	assert.Equal(t, Resolved, m.GetState())
}

func TestStopClearsBoundAndReturnsToUnresolved(t *testing.T) {
	reg := fake.New(testSpec)
	spy := newSpyListener()
	m := newTestModel(t, Config{Policy: "dynamic"}, reg, spy)

	reg.Register(fake.Ref{ID: 1, Rank: 0}, "obj-1")
	require.Equal(t, Resolved, m.GetState())

	m.Stop()
	assert.Equal(t, Unresolved, m.GetState())
	assert.True(t, m.IsEmpty())
}

func TestUnknownPolicyIsRejectedAtConstruction(t *testing.T) {
	reg := fake.New(testSpec)
	_, err := New(Config{Specification: testSpec, Policy: "sideways"}, Identity{}, reg, nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestUnregisteredSpecificationIsRejectedAtConstruction(t *testing.T) {
	reg := fake.New("example.NeverRegistered")
	_, err := New(Config{Specification: "example.NeverRegistered", Policy: "dynamic"}, Identity{}, reg, nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnloadableSpecification)
}
