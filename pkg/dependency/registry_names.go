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

import (
	"fmt"
	"sync"

	"github.com/ipojo-go/depresolver/pkg/interceptor"
)

// A Java iPOJO resolves comparator-class and specification strings by
// loading a class from the bundle's classloader. Go has no dynamic
// class loading, so "unloadable" here means "not registered in this
// process" -- callers register the comparators and specification
// marker types their binary actually ships with at init time, the way
// a process-wide plugin table would.
var (
	comparatorsMu sync.RWMutex
	comparators   = map[string]interceptor.Comparator{
		"osgi": interceptor.NaturalComparator,
	}

	specificationsMu sync.RWMutex
	specifications   = map[string]bool{}
)

// RegisterComparator makes name resolvable as a comparator-class value
// in a Config. Re-registering an existing name overwrites it.
func RegisterComparator(name string, less interceptor.Comparator) {
	comparatorsMu.Lock()
	defer comparatorsMu.Unlock()
	comparators[name] = less
}

// RegisterSpecification marks name as a known dependency specification,
// allowing it to be used as Config.Specification.
func RegisterSpecification(name string) {
	specificationsMu.Lock()
	defer specificationsMu.Unlock()
	specifications[name] = true
}

// resolveComparatorClass returns the registered comparator for name.
// An empty name under DynamicPriority resolves to the "osgi" natural
// comparator, matching spec.md §6's "default is natural ranking order
// using a dynamic-priority-aware comparator". Any other policy with no
// comparator-class leaves nil, deferring to DefaultRanking.
func resolveComparatorClass(name string, policy Policy) (interceptor.Comparator, error) {
	if name == "" {
		if policy == DynamicPriority {
			return interceptor.NaturalComparator, nil
		}
		return nil, nil
	}
	comparatorsMu.RLock()
	defer comparatorsMu.RUnlock()
	less, ok := comparators[name]
	if !ok {
		return nil, fmt.Errorf("dependency: comparator-class %q: %w", name, ErrUnloadableComparator)
	}
	return less, nil
}

// resolveSpecification validates that name has been registered, the
// Go analogue of a classloader successfully loading the interface type
// a specification string names.
func resolveSpecification(name string) error {
	specificationsMu.RLock()
	defer specificationsMu.RUnlock()
	if !specifications[name] {
		return fmt.Errorf("dependency: specification %q: %w", name, ErrUnloadableSpecification)
	}
	return nil
}
