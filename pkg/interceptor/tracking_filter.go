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

package interceptor

import (
	"github.com/ipojo-go/depresolver/pkg/registry"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

// FilterTracking wraps a dependency's LDAP filter as the terminal
// tracking interceptor: a reference is accepted only if its resolved
// properties satisfy the filter. It sits at the end of the tracking
// chain (spec.md §3 SelectedServicesManager.trackingChain).
type FilterTracking struct {
	Filter registry.Filter
}

var _ TrackingInterceptor = (*FilterTracking)(nil)

// NewFilterTracking builds a terminal filter interceptor. A nil
// filter accepts everything.
func NewFilterTracking(filter registry.Filter) *FilterTracking {
	return &FilterTracking{Filter: filter}
}

func (f *FilterTracking) Open(Dependency) error { return nil }
func (f *FilterTracking) Close(Dependency)      {}

func (f *FilterTracking) Accept(_ Dependency, ref *transform.Reference) (*transform.Reference, bool) {
	if f.Filter == nil {
		return ref, true
	}
	if f.Filter.Matches(ref.Properties()) {
		return ref, true
	}
	return nil, false
}

func (f *FilterTracking) GetService(_ Dependency, _ *transform.Reference, svc registry.ServiceObject) registry.ServiceObject {
	return svc
}

func (f *FilterTracking) UngetService(Dependency, *transform.Reference, registry.ServiceObject) {}
