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

// DefaultTracking is the identity tracking interceptor: it accepts
// every reference unchanged and proxies get/unget straight through.
// It is always the innermost link of a tracking chain.
type DefaultTracking struct{}

var _ TrackingInterceptor = DefaultTracking{}

// NewDefaultTracking returns the identity TrackingInterceptor.
func NewDefaultTracking() TrackingInterceptor { return DefaultTracking{} }

func (DefaultTracking) Open(Dependency) error { return nil }

func (DefaultTracking) Accept(_ Dependency, ref *transform.Reference) (*transform.Reference, bool) {
	return ref, true
}

func (DefaultTracking) Close(Dependency) {}

func (DefaultTracking) GetService(_ Dependency, _ *transform.Reference, svc registry.ServiceObject) registry.ServiceObject {
	return svc
}

func (DefaultTracking) UngetService(Dependency, *transform.Reference, registry.ServiceObject) {}
