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

package metrics

import (
	"github.com/ipojo-go/depresolver/pkg/dependency"
	"github.com/ipojo-go/depresolver/pkg/transform"
)

// RecordingListener decorates a dependency.Listener, updating a
// Recorder on every callback before forwarding to Next. It never
// blocks the reconciliation path: all of it runs on the same
// outside-the-lock goroutine dispatch already uses for Next's own
// callbacks.
type RecordingListener struct {
	DependencyID string
	Recorder     *Recorder
	Next         dependency.Listener
}

var _ dependency.Listener = (*RecordingListener)(nil)

func (l *RecordingListener) Validate(dep *dependency.Model) {
	l.Recorder.SetState(l.DependencyID, int(dependency.Resolved))
	l.Recorder.SetBound(l.DependencyID, len(dep.GetBound()))
	l.Next.Validate(dep)
}

func (l *RecordingListener) Invalidate(dep *dependency.Model) {
	l.Recorder.SetState(l.DependencyID, int(dep.GetState()))
	l.Recorder.SetBound(l.DependencyID, len(dep.GetBound()))
	l.Next.Invalidate(dep)
}

func (l *RecordingListener) OnServiceArrival(dep *dependency.Model, ref *transform.Reference) {
	l.Recorder.IncArrival(l.DependencyID)
	l.Recorder.SetBound(l.DependencyID, len(dep.GetBound()))
	l.Next.OnServiceArrival(dep, ref)
}

func (l *RecordingListener) OnServiceDeparture(dep *dependency.Model, ref *transform.Reference) {
	l.Recorder.IncDeparture(l.DependencyID)
	l.Recorder.SetBound(l.DependencyID, len(dep.GetBound()))
	l.Next.OnServiceDeparture(dep, ref)
}

func (l *RecordingListener) OnServiceModification(dep *dependency.Model, ref *transform.Reference) {
	l.Recorder.IncModification(l.DependencyID)
	l.Next.OnServiceModification(dep, ref)
}
