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

// Package selector implements SelectedServicesManager: it owns the
// matching and selected sets, runs the tracking and ranking
// interceptor chains, and publishes ChangeSet diffs to a
// DependencyModel.
package selector

import "github.com/ipojo-go/depresolver/pkg/transform"

// ChangeSet is the atomic diff SelectedServicesManager publishes to
// the owning dependency after any tracked/matching/ranking event.
// Deliberately omits the Java source's vestigial "service" field,
// which is always nil there (see DESIGN.md).
type ChangeSet struct {
	Selected   []*transform.Reference
	Arrivals   []*transform.Reference
	Departures []*transform.Reference
	OldFirst   *transform.Reference
	NewFirst   *transform.Reference
	Modified   *transform.Reference
}

// Empty reports whether this change set carries no arrivals,
// departures, or modification -- i.e. nothing for a DependencyModel
// to reconcile.
func (c *ChangeSet) Empty() bool {
	return c == nil || (len(c.Arrivals) == 0 && len(c.Departures) == 0 && c.Modified == nil)
}

func diffSelected(old, next []*transform.Reference) (arrivals, departures []*transform.Reference) {
	oldIDs := make(map[int64]bool, len(old))
	for _, r := range old {
		oldIDs[r.ServiceID()] = true
	}
	nextIDs := make(map[int64]bool, len(next))
	for _, r := range next {
		nextIDs[r.ServiceID()] = true
	}
	for _, r := range next {
		if !oldIDs[r.ServiceID()] {
			arrivals = append(arrivals, r)
		}
	}
	for _, r := range old {
		if !nextIDs[r.ServiceID()] {
			departures = append(departures, r)
		}
	}
	return arrivals, departures
}

func first(refs []*transform.Reference) *transform.Reference {
	if len(refs) == 0 {
		return nil
	}
	return refs[0]
}

func buildChangeSet(old, next []*transform.Reference) *ChangeSet {
	arrivals, departures := diffSelected(old, next)
	return &ChangeSet{
		Selected:   next,
		Arrivals:   arrivals,
		Departures: departures,
		OldFirst:   first(old),
		NewFirst:   first(next),
	}
}
