// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyKind identifies how AuthorizedGroups is interpreted.
type PolicyKind int

const (
	// PolicyNone places no group requirement on a login.
	PolicyNone PolicyKind = iota
	// PolicyAnyGroup requires the user to belong to at least one group.
	PolicyAnyGroup
	// PolicyNamed requires the username or one of its groups to match Names.
	PolicyNamed
)

// String returns the policy kind name.
func (k PolicyKind) String() string {
	switch k {
	case PolicyNone:
		return "none"
	case PolicyAnyGroup:
		return "any"
	case PolicyNamed:
		return "named"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

// GroupPolicy is the authorized-groups policy. In YAML it is written as a
// boolean, a single group name or a list of names.
type GroupPolicy struct {
	Kind  PolicyKind
	Names []string
}

// NamedPolicy builds a policy that matches any of the given names.
func NamedPolicy(names ...string) GroupPolicy {
	if len(names) == 0 {
		return GroupPolicy{Kind: PolicyNone}
	}
	return GroupPolicy{Kind: PolicyNamed, Names: names}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *GroupPolicy) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!bool" {
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			if b {
				*p = GroupPolicy{Kind: PolicyAnyGroup}
			} else {
				*p = GroupPolicy{Kind: PolicyNone}
			}
			return nil
		}
		if node.ShortTag() == "!!null" {
			*p = GroupPolicy{Kind: PolicyNone}
			return nil
		}
		*p = NamedPolicy(strings.TrimSpace(node.Value))
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return fmt.Errorf("authorized_groups: %w", err)
		}
		*p = NamedPolicy(names...)
		return nil
	default:
		return fmt.Errorf("authorized_groups: line %d: expected a boolean, a string or a list", node.Line)
	}
}

// GroupList is a list of group names. YAML accepts either a sequence or a
// single whitespace-separated string, matching the registry's own syntax.
type GroupList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *GroupList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*g = strings.Fields(node.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*g = names
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of groups", node.Line)
	}
}

// PackageRule is the access configuration for one package pattern.
type PackageRule struct {
	Pattern   string    `yaml:"-"`
	Access    GroupList `yaml:"access"`
	Publish   GroupList `yaml:"publish"`
	Unpublish GroupList `yaml:"unpublish"`
}

// PackageRules keeps the package patterns in file order.
type PackageRules []PackageRule

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *PackageRules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("packages: line %d: expected a mapping of package patterns", node.Line)
	}

	rules := make(PackageRules, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		rule := PackageRule{Pattern: key.Value}
		if err := value.Decode(&rule); err != nil {
			return fmt.Errorf("packages %q: %w", key.Value, err)
		}
		rule.Pattern = key.Value
		rules = append(rules, rule)
	}
	*r = rules
	return nil
}
