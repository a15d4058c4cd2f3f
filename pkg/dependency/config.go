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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/imdario/mergo"
	"gopkg.in/yaml.v2"
)

// Config enumerates the configuration fields of a dependency, spec.md
// §6. comparator-class carries either a registered comparator name or
// the literal "osgi" for the standard natural-order comparator.
type Config struct {
	Specification    string `yaml:"specification" toml:"specification"`
	Aggregate        bool   `yaml:"aggregate" toml:"aggregate"`
	Optional         bool   `yaml:"optional" toml:"optional"`
	Filter           string `yaml:"filter,omitempty" toml:"filter,omitempty"`
	ComparatorClass  string `yaml:"comparator-class,omitempty" toml:"comparator-class,omitempty"`
	Policy           string `yaml:"policy" toml:"policy"`
}

// ConfigPatch is a partial Config for reconfiguration calls; zero
// values mean "leave unchanged" and are never merged over an existing
// non-zero field (see ApplyPatch).
type ConfigPatch struct {
	Filter          *string `yaml:"filter,omitempty" toml:"filter,omitempty"`
	ComparatorClass *string `yaml:"comparator-class,omitempty" toml:"comparator-class,omitempty"`
	Aggregate       *bool   `yaml:"aggregate,omitempty" toml:"aggregate,omitempty"`
	Optional        *bool   `yaml:"optional,omitempty" toml:"optional,omitempty"`
}

// LoadConfigYAML reads a dependency descriptor from a YAML file, the
// format the teacher repo already uses for its own manifests.
func LoadConfigYAML(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("dependency: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("dependency: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// TargetRegistry maps an interceptor name to its LDAP target
// expression, loaded from a TOML file -- a separate, operator-owned
// document from the dependency's own YAML descriptor.
type TargetRegistry struct {
	Targets map[string]string `toml:"targets"`
}

// LoadTargetRegistryTOML reads the interceptor-target mapping used to
// decide which dependencies a given interceptor attaches to.
func LoadTargetRegistryTOML(path string) (TargetRegistry, error) {
	var reg TargetRegistry
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		return reg, fmt.Errorf("dependency: parsing target registry %s: %w", path, err)
	}
	return reg, nil
}

// ApplyPatch merges patch onto a copy of cfg, returning the merged
// configuration without mutating cfg. Non-nil boolean fields are
// copied directly; the string fields go through mergo.Merge, so a
// non-nil Filter or ComparatorClass pointing at "" leaves the existing
// value unchanged. Reconfiguration callers only ever need to supply
// the fields that change.
func ApplyPatch(cfg Config, patch ConfigPatch) (Config, error) {
	merged := cfg

	// Booleans are set from the patch pointers directly: mergo treats
	// a zero value (false) as "absent" even under WithOverride, which
	// would make an explicit "turn aggregate off" patch silently
	// no-op if folded through the string-merge path below.
	if patch.Aggregate != nil {
		merged.Aggregate = *patch.Aggregate
	}
	if patch.Optional != nil {
		merged.Optional = *patch.Optional
	}

	overlay := Config{}
	if patch.Filter != nil {
		overlay.Filter = *patch.Filter
	}
	if patch.ComparatorClass != nil {
		overlay.ComparatorClass = *patch.ComparatorClass
	}
	// WithOverride: overlay's non-empty string fields win over
	// merged's; a field the patch left unset stays "" in overlay and
	// so never touches merged.
	if err := mergo.Merge(&merged, overlay, mergo.WithOverride); err != nil {
		return cfg, fmt.Errorf("dependency: merging config patch: %w", err)
	}
	return merged, nil
}
