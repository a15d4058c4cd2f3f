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

// Package registry defines the external service registry collaborator
// that the dependency resolver watches. The registry itself (service
// events, bundle contexts, LDAP filters) is an opaque framework
// concern; this package only declares the shape the resolver needs.
package registry

import "context"

// Well-known, immutable reference properties. service.pid and
// instance.name are owned by the framework and the component
// respectively; both are immutable once a reference exists.
const (
	PropServiceID      = "service.id"
	PropServiceRanking = "service.ranking"
	PropServicePID     = "service.pid"
	PropInstanceName   = "instance.name"
)

// Identity properties a dependency exposes for interceptor targeting.
const (
	PropInstanceState          = "instance.state"
	PropFactoryName            = "factory.name"
	PropBundleSymbolicName     = "bundle.symbolic-name"
	PropBundleVersion          = "bundle.version"
	PropDependencySpecification = "dependency.specification"
	PropDependencyID           = "dependency.id"
	PropDependencyState        = "dependency.state"
)

// ServiceObject is an opaque handle returned by Registry.GetService. It
// is whatever the provider bundle published; the resolver never
// inspects it beyond passing it to interceptor get_service hooks and
// eventually ungetting it.
type ServiceObject interface{}

// Properties is the read-only property bag carried by a Reference.
type Properties map[string]interface{}

// Get returns the value for key and whether it was present.
func (p Properties) Get(key string) (interface{}, bool) {
	v, ok := p[key]
	return v, ok
}

// Clone returns a shallow copy safe to hand to a caller.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Reference is an opaque handle to a registered service provider. It
// carries immutable properties; equality and ordering are defined on
// service.id and service.ranking respectively (see Less below).
type Reference interface {
	// ServiceID is the immutable registration identity.
	ServiceID() int64
	// Ranking is the provider-declared service.ranking, default 0.
	Ranking() int32
	// Properties returns the full, immutable property set.
	Properties() Properties
}

// Less implements the OSGi natural ordering: higher ranking first,
// ties broken by lower service.id (older registrations win).
func Less(a, b Reference) bool {
	if a.Ranking() != b.Ranking() {
		return a.Ranking() > b.Ranking()
	}
	return a.ServiceID() < b.ServiceID()
}

// Filter compiles and matches an LDAP filter expression against a
// property map. Composite references sometimes reject Matches on the
// reference type itself, so callers must feed it the property map
// rather than the reference (see pkg/ldapfilter).
type Filter interface {
	String() string
	Matches(props Properties) bool
}

// EventKind distinguishes the three events the tracker observes.
type EventKind int

const (
	EventAdded EventKind = iota
	EventModified
	EventRemoved
)

// ServiceEvent is delivered by Registry to a Listener subscribed via
// AddServiceListener.
type ServiceEvent struct {
	Kind      EventKind
	Reference Reference
}

// Listener receives raw registry events. RegistryTracker is the only
// production implementation; InterceptableContext wraps arbitrary
// caller-supplied listeners with an accept guard.
type Listener interface {
	ServiceChanged(ctx context.Context, ev ServiceEvent)
}

// Registry is the framework collaborator: a dynamic set of service
// providers, filterable by LDAP expression, with borrow/release
// semantics for service objects. It is never implemented by this
// module outside of tests (see pkg/registry/fake); production
// implementations are provided by the OSGi framework.
type Registry interface {
	AddServiceListener(ctx context.Context, l Listener, filter Filter) error
	RemoveServiceListener(l Listener) error

	GetServiceReference(class string) (Reference, bool)
	GetServiceReferences(class string, filter Filter) ([]Reference, error)
	GetAllServiceReferences(class string, filter Filter) ([]Reference, error)

	GetService(ref Reference) (ServiceObject, error)
	UngetService(ref Reference) bool

	CompileFilter(expr string) (Filter, error)
}
