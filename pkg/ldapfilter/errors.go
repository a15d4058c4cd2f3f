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

package ldapfilter

import "errors"

// ErrInvalidFilterSyntax is returned by Compile when expr is not a
// well-formed LDAP filter. pkg/dependency re-exports this sentinel so
// callers can errors.Is against dependency.ErrInvalidFilterSyntax
// without importing this package directly.
var ErrInvalidFilterSyntax = errors.New("ldapfilter: invalid filter syntax")
