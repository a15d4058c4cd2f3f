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
	"sort"

	"github.com/ipojo-go/depresolver/pkg/transform"
)

// Comparator orders two transformed references; Less(a, b) reports
// whether a should sort before b.
type Comparator func(a, b *transform.Reference) bool

// NaturalComparator is TransformedReference.CompareTo lifted to a
// Comparator: higher (possibly overridden) rank first, then lower
// service.id.
func NaturalComparator(a, b *transform.Reference) bool {
	return a.CompareTo(b) < 0
}

// ComparatorRanking ranks the matching set with a caller-supplied
// Comparator (or NaturalComparator if nil), recomputing the full
// selected set from scratch on every event -- the behavior spec.md
// §4.3 calls "comparator-based". DefaultRanking is this same ranker
// fixed to NaturalComparator.
type ComparatorRanking struct {
	Less Comparator
}

var _ RankingInterceptor = (*ComparatorRanking)(nil)

// NewComparatorRanking builds a ranking interceptor from less, a
// total order over transformed references.
func NewComparatorRanking(less Comparator) *ComparatorRanking {
	if less == nil {
		less = NaturalComparator
	}
	return &ComparatorRanking{Less: less}
}

func (c *ComparatorRanking) Open(Dependency) error { return nil }
func (c *ComparatorRanking) Close(Dependency)      {}

func (c *ComparatorRanking) rank(matching []*transform.Reference) []*transform.Reference {
	out := make([]*transform.Reference, len(matching))
	copy(out, matching)
	sort.SliceStable(out, func(i, j int) bool { return c.Less(out[i], out[j]) })
	return out
}

func (c *ComparatorRanking) GetServiceReferences(_ Dependency, matching []*transform.Reference) []*transform.Reference {
	return c.rank(matching)
}

func (c *ComparatorRanking) OnServiceArrival(_ Dependency, matching []*transform.Reference, _ *transform.Reference) []*transform.Reference {
	return c.rank(matching)
}

func (c *ComparatorRanking) OnServiceDeparture(_ Dependency, matching []*transform.Reference, _ *transform.Reference) []*transform.Reference {
	return c.rank(matching)
}

func (c *ComparatorRanking) OnServiceModified(_ Dependency, matching []*transform.Reference, _ *transform.Reference) []*transform.Reference {
	return c.rank(matching)
}

// DefaultRanking is the identity ranking interceptor: natural order,
// re-sorted from the matching set on every event. It is what a
// dependency gets when it has no comparator and is not under
// DynamicPriority.
type DefaultRanking struct {
	*ComparatorRanking
}

var _ RankingInterceptor = (*DefaultRanking)(nil)

// NewDefaultRanking returns the natural-order RankingInterceptor.
func NewDefaultRanking() *DefaultRanking {
	return &DefaultRanking{ComparatorRanking: NewComparatorRanking(NaturalComparator)}
}
