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

import (
	"errors"
	"testing"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

func TestCompileRejectsMalformedExpression(t *testing.T) {
	_, err := Compile("(color=red")
	if !errors.Is(err, ErrInvalidFilterSyntax) {
		t.Fatalf("Compile(malformed) error = %v, want ErrInvalidFilterSyntax", err)
	}
}

func TestCompileRejectsEmptyExpression(t *testing.T) {
	_, err := Compile("   ")
	if !errors.Is(err, ErrInvalidFilterSyntax) {
		t.Fatalf("Compile(empty) error = %v, want ErrInvalidFilterSyntax", err)
	}
}

func TestMatchesEquality(t *testing.T) {
	f := MustCompile("(color=red)")
	if !f.Matches(registry.Properties{"color": "red"}) {
		t.Fatalf("expected (color=red) to match color=red")
	}
	if f.Matches(registry.Properties{"color": "blue"}) {
		t.Fatalf("expected (color=red) to reject color=blue")
	}
}

func TestMatchesAndOr(t *testing.T) {
	f := MustCompile("(&(color=red)(size=large))")
	if !f.Matches(registry.Properties{"color": "red", "size": "large"}) {
		t.Fatalf("expected AND filter to match both attributes present")
	}
	if f.Matches(registry.Properties{"color": "red", "size": "small"}) {
		t.Fatalf("expected AND filter to reject mismatched attribute")
	}

	orf := MustCompile("(|(color=red)(color=blue))")
	if !orf.Matches(registry.Properties{"color": "blue"}) {
		t.Fatalf("expected OR filter to match second alternative")
	}
}

func TestMatchesNot(t *testing.T) {
	f := MustCompile("(!(color=red))")
	if f.Matches(registry.Properties{"color": "red"}) {
		t.Fatalf("expected NOT filter to reject color=red")
	}
	if !f.Matches(registry.Properties{"color": "blue"}) {
		t.Fatalf("expected NOT filter to accept color=blue")
	}
}

func TestMatchesPresent(t *testing.T) {
	f := MustCompile("(color=*)")
	if !f.Matches(registry.Properties{"color": "red"}) {
		t.Fatalf("expected presence filter to match when attribute is set")
	}
	if f.Matches(registry.Properties{}) {
		t.Fatalf("expected presence filter to reject when attribute is absent")
	}
}

func TestMatchesNumericComparison(t *testing.T) {
	f := MustCompile("(rank>=5)")
	if !f.Matches(registry.Properties{"rank": 7}) {
		t.Fatalf("expected rank>=5 to match rank=7")
	}
	if f.Matches(registry.Properties{"rank": 3}) {
		t.Fatalf("expected rank>=5 to reject rank=3")
	}
}

func TestMatchesSubstring(t *testing.T) {
	f := MustCompile("(name=Jo*n)")
	if !f.Matches(registry.Properties{"name": "Jordan"}) {
		t.Fatalf("expected Jo*n to match Jordan")
	}
	if f.Matches(registry.Properties{"name": "Alice"}) {
		t.Fatalf("expected Jo*n to reject Alice")
	}
}
