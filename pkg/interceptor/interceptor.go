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

// Package interceptor declares the two interceptor capabilities
// (tracking and ranking) and ships default, filter-based, and
// comparator-based implementations. Interceptors are matched to a
// dependency via an LDAP target expression evaluated against the
// dependency's identity properties.
package interceptor

import (
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

// Dependency is the minimal view of a DependencyModel an interceptor
// needs: its identity properties (for targeting) and its declared
// specification. pkg/dependency's Model satisfies this.
type Dependency interface {
	Specification() string
	IdentityProperties() registry.Properties
}

// TrackingInterceptor gates and optionally rewrites references as
// they flow from tracked to matching. Returning (nil, false) from
// Accept drops the reference.
type TrackingInterceptor interface {
	Open(dep Dependency) error
	Accept(dep Dependency, ref *transform.Reference) (*transform.Reference, bool)
	Close(dep Dependency)
	GetService(dep Dependency, ref *transform.Reference, svc registry.ServiceObject) registry.ServiceObject
	UngetService(dep Dependency, ref *transform.Reference, lastUse registry.ServiceObject)
}

// RankingInterceptor is the single authority producing the selected
// set from the matching set. Implementations must return a stable
// permutation (subset allowed) of matching.
type RankingInterceptor interface {
	Open(dep Dependency) error
	GetServiceReferences(dep Dependency, matching []*transform.Reference) []*transform.Reference
	OnServiceArrival(dep Dependency, matching []*transform.Reference, arrival *transform.Reference) []*transform.Reference
	OnServiceDeparture(dep Dependency, matching []*transform.Reference, departure *transform.Reference) []*transform.Reference
	OnServiceModified(dep Dependency, matching []*transform.Reference, modified *transform.Reference) []*transform.Reference
	Close(dep Dependency)
}

// Targeted is implemented by interceptors that should only attach to
// dependencies matching an LDAP target expression over the identity
// properties enumerated in spec.md §4.3. Interceptors that do not
// implement Targeted (the built-in defaults) always attach.
type Targeted interface {
	Target() registry.Filter
}

// Matches reports whether interceptor ic should attach to dep: either
// it is untargeted, or its target filter matches dep's identity
// properties.
func Matches(ic interface{}, dep Dependency) bool {
	t, ok := ic.(Targeted)
	if !ok {
		return true
	}
	target := t.Target()
	if target == nil {
		return true
	}
	return target.Matches(dep.IdentityProperties())
}
