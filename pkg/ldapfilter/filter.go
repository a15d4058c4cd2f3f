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

// Package ldapfilter compiles and evaluates LDAP filter expressions
// (RFC 4515) against the property maps carried by service references.
// Compilation is delegated to github.com/go-ldap/ldap/v3, which
// already implements the grammar OSGi filters are a subset of;
// evaluation walks the resulting BER filter tree directly so the
// resolver never has to round-trip through an actual directory
// connection.
package ldapfilter

import (
	"fmt"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"

	"github.com/ipojo-go/depresolver/pkg/registry"
)

// Filter is a compiled LDAP expression. It implements registry.Filter.
type Filter struct {
	expr   string
	packet *ber.Packet
}

var _ registry.Filter = (*Filter)(nil)

// Compile parses expr and returns a Filter, or InvalidFilterSyntax if
// expr is not a well-formed LDAP filter.
func Compile(expr string) (*Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("ldapfilter: empty expression: %w", ErrInvalidFilterSyntax)
	}
	pkt, err := ldap.CompileFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("ldapfilter: %q: %v: %w", expr, err, ErrInvalidFilterSyntax)
	}
	return &Filter{expr: expr, packet: pkt}, nil
}

// MustCompile is Compile but panics on error; useful for constants in
// tests and default-interceptor construction.
func MustCompile(expr string) *Filter {
	f, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the original filter text.
func (f *Filter) String() string { return f.expr }

// Matches evaluates the filter against props. Defensively takes a
// property map rather than a reference: some composite-reference
// implementations panic or error out of Matches(Reference) entirely,
// so the resolver always extracts properties first (see registry.Filter).
func (f *Filter) Matches(props registry.Properties) bool {
	if f == nil || f.packet == nil {
		return true
	}
	return evalNode(f.packet, props)
}

func evalNode(node *ber.Packet, props registry.Properties) bool {
	switch ldap.FilterMap[uint64(node.Tag)] {
	case "And":
		for _, child := range node.Children {
			if !evalNode(child, props) {
				return false
			}
		}
		return true
	case "Or":
		for _, child := range node.Children {
			if evalNode(child, props) {
				return true
			}
		}
		return false
	case "Not":
		if len(node.Children) != 1 {
			return false
		}
		return !evalNode(node.Children[0], props)
	case "Equality Match":
		attr, val := attrValue(node)
		return equalFold(lookup(props, attr), val)
	case "Present":
		attr, _ := attrString(node)
		_, ok := props.Get(attr)
		return ok
	case "Greater Or Equal":
		attr, val := attrValue(node)
		return compareNumeric(lookup(props, attr), val) >= 0
	case "Less Or Equal":
		attr, val := attrValue(node)
		return compareNumeric(lookup(props, attr), val) <= 0
	case "Approx Match":
		attr, val := attrValue(node)
		return strings.EqualFold(strings.TrimSpace(toString(lookup(props, attr))), strings.TrimSpace(val))
	case "Substrings":
		return evalSubstrings(node, props)
	case "Extensible Match":
		// Extensible matching rules are not used by interceptor
		// targeting or OSGi dependency filters in this module; treat
		// as non-matching rather than guessing at rule semantics.
		return false
	default:
		return false
	}
}

func attrString(node *ber.Packet) (string, bool) {
	if s, ok := node.Value.(string); ok {
		return s, true
	}
	if len(node.Children) > 0 {
		if s, ok := node.Children[0].Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

func attrValue(node *ber.Packet) (attr, value string) {
	if len(node.Children) < 2 {
		return "", ""
	}
	a, _ := node.Children[0].Value.(string)
	v, _ := node.Children[1].Value.(string)
	return a, v
}

func evalSubstrings(node *ber.Packet, props registry.Properties) bool {
	if len(node.Children) < 2 {
		return false
	}
	attr, _ := node.Children[0].Value.(string)
	actual := toString(lookup(props, attr))

	var initial, final string
	var any []string
	for _, part := range node.Children[1].Children {
		s, _ := part.Value.(string)
		switch part.Tag {
		case 0:
			initial = s
		case 1:
			any = append(any, s)
		case 2:
			final = s
		}
	}

	rest := actual
	if initial != "" {
		if !strings.HasPrefix(rest, initial) {
			return false
		}
		rest = rest[len(initial):]
	}
	for _, mid := range any {
		idx := strings.Index(rest, mid)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(mid):]
	}
	if final != "" {
		return strings.HasSuffix(rest, final)
	}
	return true
}

func lookup(props registry.Properties, attr string) interface{} {
	v, _ := props.Get(attr)
	return v
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func equalFold(actual interface{}, expected string) bool {
	if expected == "*" {
		return actual != nil
	}
	return strings.EqualFold(toString(actual), expected)
}

func compareNumeric(actual interface{}, expected string) int {
	af, aok := asFloat(actual)
	ef, eok := asFloat(expected)
	if aok && eok {
		switch {
		case af < ef:
			return -1
		case af > ef:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(toString(actual), expected)
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
