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
	"errors"

	"github.com/ipojo-go/depresolver/pkg/ldapfilter"
)

// Error kinds from spec.md §7. InvalidFilterSyntax is produced inside
// pkg/ldapfilter; it is re-exported here so callers only ever need to
// errors.Is against this package.
var (
	ErrInvalidFilterSyntax      = ldapfilter.ErrInvalidFilterSyntax
	ErrUnknownPolicy            = errors.New("dependency: unknown binding policy")
	ErrUnloadableComparator     = errors.New("dependency: comparator could not be resolved")
	ErrUnloadableSpecification  = errors.New("dependency: specification could not be resolved")
	ErrUnsupportedReconfiguration = errors.New("dependency: unsupported reconfiguration")
)

// IsConfigurationFault reports whether err represents one of the
// configuration-fault error kinds (as opposed to a programmer fault
// like IllegalPropertyChange, which is the transform package's
// concern, or the terminal Broken state, which is not an error at
// all).
func IsConfigurationFault(err error) bool {
	return errors.Is(err, ErrInvalidFilterSyntax) ||
		errors.Is(err, ErrUnknownPolicy) ||
		errors.Is(err, ErrUnloadableComparator) ||
		errors.Is(err, ErrUnloadableSpecification) ||
		errors.Is(err, ErrUnsupportedReconfiguration)
}
