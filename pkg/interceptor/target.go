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

import "github.com/ipojo-go/depresolver/pkg/registry"

// TargetedTracking decorates a TrackingInterceptor with an LDAP target
// expression evaluated against a dependency's identity properties
// (instance.name, factory.name, bundle.symbolic-name, bundle.version,
// dependency.specification, dependency.id, dependency.state,
// instance.state, per spec.md §4.3).
type TargetedTracking struct {
	TrackingInterceptor
	target registry.Filter
}

var _ Targeted = (*TargetedTracking)(nil)

// WithTarget attaches target to ic. A nil target always matches.
func WithTarget(ic TrackingInterceptor, target registry.Filter) *TargetedTracking {
	return &TargetedTracking{TrackingInterceptor: ic, target: target}
}

func (t *TargetedTracking) Target() registry.Filter { return t.target }

// TargetedRanking is the ranking analogue of TargetedTracking.
type TargetedRanking struct {
	RankingInterceptor
	target registry.Filter
}

var _ Targeted = (*TargetedRanking)(nil)

// WithRankingTarget attaches target to ic.
func WithRankingTarget(ic RankingInterceptor, target registry.Filter) *TargetedRanking {
	return &TargetedRanking{RankingInterceptor: ic, target: target}
}

func (t *TargetedRanking) Target() registry.Filter { return t.target }
