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

// Package restart orchestrates the stop/unfreeze/start cycle a
// dependency drives on its owning component instance when a Static
// dependency breaks (spec.md §4.5). It is a thin backoff wrapper
// around that external collaborator, not a reimplementation of the
// component lifecycle itself.
package restart

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"istio.io/pkg/log"
)

var scope = log.RegisterScope("restart", "component instance restart orchestration", 0)

// Instance is the slice of the opaque ComponentInstance collaborator
// (spec.md §1) this package needs. It is not imported from
// pkg/dependency.ComponentInstance; any type satisfying this method
// set, including dependency's own ComponentInstance, works here
// without adaptation. It is an alias of the interface literal so that
// Orchestrator.Restart has the exact signature dependency.Restarter
// declares.
type Instance = interface {
	Stop(ctx context.Context) error
	Start(ctx context.Context) error
	Unfreeze(ctx context.Context) error
}

// Orchestrator retries a flapping stop/unfreeze/start cycle with
// bounded exponential backoff so a provider that deregisters and
// re-registers rapidly cannot spin the component restart loop.
type Orchestrator struct {
	NewBackOff func() backoff.BackOff
}

// New returns an Orchestrator with a default exponential backoff
// capped at a handful of seconds and bounded to a few attempts -- a
// restart that still fails after that many tries should surface to
// the operator rather than retry silently forever.
func New() *Orchestrator {
	return &Orchestrator{
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return backoff.WithMaxRetries(b, 5)
		},
	}
}

// Restart runs Stop, Unfreeze, then Start on inst, retrying the whole
// cycle under backoff if any step fails.
func (o *Orchestrator) Restart(ctx context.Context, inst Instance) error {
	attempt := 0
	op := func() error {
		attempt++
		if err := inst.Stop(ctx); err != nil {
			scope.Warnf("restart attempt %d: stop failed: %v", attempt, err)
			return err
		}
		if err := inst.Unfreeze(ctx); err != nil {
			scope.Warnf("restart attempt %d: unfreeze failed: %v", attempt, err)
			return err
		}
		if err := inst.Start(ctx); err != nil {
			scope.Warnf("restart attempt %d: start failed: %v", attempt, err)
			return err
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(o.NewBackOff(), ctx))
}
