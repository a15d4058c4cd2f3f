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

import "fmt"

// State is the dependency's tagged state, recomputed by
// computeStateLocked after every change set and reconfiguration
// (spec.md §9 design notes); New and Stop set the initial state
// directly.
type State int

const (
	Unresolved State = iota
	Resolved
	Broken
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "UNRESOLVED"
	case Resolved:
		return "RESOLVED"
	case Broken:
		return "BROKEN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Policy is the binding policy, spec.md §6.
type Policy int

const (
	Dynamic Policy = iota
	Static
	DynamicPriority
)

func (p Policy) String() string {
	switch p {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case DynamicPriority:
		return "dynamic-priority"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps the configuration literal to a Policy, defaulting
// to Dynamic for the empty string as spec.md §6 specifies, and
// ErrUnknownPolicy for anything unrecognised.
func ParsePolicy(literal string) (Policy, error) {
	switch literal {
	case "", "dynamic":
		return Dynamic, nil
	case "static":
		return Static, nil
	case "dynamic-priority":
		return DynamicPriority, nil
	default:
		return Dynamic, fmt.Errorf("dependency: policy %q: %w", literal, ErrUnknownPolicy)
	}
}
