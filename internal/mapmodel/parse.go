package mapmodel

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDocument decodes a map configuration document (spec.md §6): a
// top-level mapping of map name -> map body, where each body's "host",
// "volumes", "networks", "repository", "default_domain",
// "use_attached_parent_name" and "extends" keys are reserved and every
// other key names a container.
func ParseDocument(data []byte) (map[string]*ContainerMap, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse map configuration document: %w", err)
	}

	maps := make(map[string]*ContainerMap, len(doc))
	for name, node := range doc {
		m, err := parseMapBody(name, &node)
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", name, err)
		}
		maps[name] = m
	}
	return maps, nil
}

func parseMapBody(name string, node *yaml.Node) (*ContainerMap, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping body")
	}

	m := New(name)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "host":
			if err := decodeStringMap(val, m.Host); err != nil {
				return nil, fmt.Errorf("host: %w", err)
			}
			if root, ok := m.Host["root"]; ok {
				m.HostRoot = root
				delete(m.Host, "root")
			}
		case "volumes":
			if err := decodeStringMap(val, m.Volumes); err != nil {
				return nil, fmt.Errorf("volumes: %w", err)
			}
		case "networks":
			if err := parseNetworks(val, m); err != nil {
				return nil, fmt.Errorf("networks: %w", err)
			}
		case "repository":
			m.Repository = val.Value
		case "default_domain":
			m.DefaultDomain = val.Value
		case "use_attached_parent_name":
			b, err := strconv.ParseBool(val.Value)
			if err != nil {
				return nil, fmt.Errorf("use_attached_parent_name: %w", err)
			}
			m.UseAttachedParentName = b
		case "extends":
			var extends []string
			if err := val.Decode(&extends); err != nil {
				return nil, fmt.Errorf("extends: %w", err)
			}
			m.Extends = extends
		default:
			a, err := parseAssignment(val)
			if err != nil {
				return nil, fmt.Errorf("container %q: %w", key, err)
			}
			m.Containers[key] = a
		}
	}
	return m, nil
}

func decodeStringMap(node *yaml.Node, into map[string]string) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	for k, v := range raw {
		into[k] = v
	}
	return nil
}

func parseNetworks(node *yaml.Node, m *ContainerMap) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		val := node.Content[i+1]
		var raw struct {
			Driver   string            `yaml:"driver"`
			Options  map[string]string `yaml:"options"`
			Internal bool              `yaml:"internal"`
		}
		if err := val.Decode(&raw); err != nil {
			return fmt.Errorf("network %q: %w", name, err)
		}
		m.Networks[name] = &NetworkAssignment{
			Driver:   raw.Driver,
			Options:  raw.Options,
			Internal: raw.Internal,
		}
	}
	return nil
}

func parseAssignment(node *yaml.Node) (*ContainerAssignment, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping")
	}

	a := &ContainerAssignment{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		var err error
		switch key {
		case "image":
			a.Image = val.Value
		case "instances":
			err = val.Decode(&a.Instances)
		case "shares":
			err = val.Decode(&a.Shares)
		case "binds":
			a.Binds, err = parseBinds(val)
		case "uses":
			a.Uses, err = parseUses(val)
		case "attaches":
			err = val.Decode(&a.Attaches)
		case "links":
			a.Links, err = parseLinks(val)
		case "exposes":
			a.Exposes, err = parseExposes(val)
		case "networks":
			err = val.Decode(&a.Networks)
		case "exec_commands":
			a.ExecCommands, err = parseExecCommands(val)
		case "stop_signal":
			a.StopSignal = val.Value
		case "stop_timeout":
			a.StopTimeout, err = strconv.Atoi(val.Value)
		case "create_options":
			err = val.Decode(&a.CreateOptions)
		case "host_config":
			err = val.Decode(&a.HostConfig)
		case "environment":
			err = val.Decode(&a.Environment)
		case "command":
			err = decodeStringOrList(val, &a.Command)
		case "entrypoint":
			err = decodeStringOrList(val, &a.Entrypoint)
		case "clients":
			err = val.Decode(&a.Clients)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	return a, nil
}

func decodeStringOrList(node *yaml.Node, into *[]string) error {
	if node.Kind == yaml.ScalarNode {
		*into = strings.Fields(node.Value)
		return nil
	}
	return node.Decode(into)
}

// parseUses handles `uses: [svc, { redis.cache: ro }]`: a bare scalar names
// a read-write ref, a single-key mapping's value is "ro"/"rw".
func parseUses(node *yaml.Node) ([]UsesRef, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]UsesRef, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, UsesRef{Ref: item.Value})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, fmt.Errorf("expected a single-key mapping")
			}
			ref := item.Content[0].Value
			ro := item.Content[1].Value == "ro"
			out = append(out, UsesRef{Ref: ref, ReadOnly: ro})
		default:
			return nil, fmt.Errorf("unexpected node kind for uses entry")
		}
	}
	return out, nil
}

// parseLinks handles `links: [{ svc: svc_alias }, other]`: a single-key
// mapping gives an explicit alias; a bare scalar defaults the alias to the
// referenced container's hostname at resolution time.
func parseLinks(node *yaml.Node) ([]Link, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]Link, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, Link{ContainerRef: item.Value})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, fmt.Errorf("expected a single-key mapping")
			}
			out = append(out, Link{
				ContainerRef: item.Content[0].Value,
				Alias:        item.Content[1].Value,
			})
		default:
			return nil, fmt.Errorf("unexpected node kind for links entry")
		}
	}
	return out, nil
}

// parseBinds handles `binds: [{ config_vol: ro }, other_alias]` (alias
// form) and inline `{ path: ..., host_sub_path: ..., readonly: ... }`.
func parseBinds(node *yaml.Node) ([]BindMount, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]BindMount, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, BindMount{VolumeAlias: item.Value})
		case yaml.MappingNode:
			if hasInlineBindKeys(item) {
				var raw struct {
					Path        string `yaml:"path"`
					HostSubPath string `yaml:"host_sub_path"`
					ReadOnly    bool   `yaml:"readonly"`
				}
				if err := item.Decode(&raw); err != nil {
					return nil, err
				}
				out = append(out, BindMount{
					ContainerPath: raw.Path,
					HostSubPath:   raw.HostSubPath,
					ReadOnly:      raw.ReadOnly,
				})
				continue
			}
			if len(item.Content) != 2 {
				return nil, fmt.Errorf("expected a single-key mapping")
			}
			out = append(out, BindMount{
				VolumeAlias: item.Content[0].Value,
				ReadOnly:    item.Content[1].Value == "ro",
			})
		default:
			return nil, fmt.Errorf("unexpected node kind for binds entry")
		}
	}
	return out, nil
}

func hasInlineBindKeys(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "path", "host_sub_path", "readonly":
			return true
		}
	}
	return false
}

// parseExposes handles `exposes: [{ 8080: 80 }, 9090]`: a single-key
// mapping publishes container_port -> host_port; a bare scalar exposes
// the port without publishing it.
func parseExposes(node *yaml.Node) ([]PortExposure, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]PortExposure, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			port, err := strconv.Atoi(item.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, PortExposure{ContainerPort: port, Protocol: "tcp"})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, fmt.Errorf("expected a single-key mapping")
			}
			cport, err := strconv.Atoi(item.Content[0].Value)
			if err != nil {
				return nil, err
			}
			hport, err := strconv.Atoi(item.Content[1].Value)
			if err != nil {
				return nil, err
			}
			out = append(out, PortExposure{ContainerPort: cport, HostPort: hport, Protocol: "tcp"})
		default:
			return nil, fmt.Errorf("unexpected node kind for exposes entry")
		}
	}
	return out, nil
}

func parseExecCommands(node *yaml.Node) ([]ExecCommand, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence")
	}
	out := make([]ExecCommand, 0, len(node.Content))
	for _, item := range node.Content {
		var raw struct {
			User   string `yaml:"user"`
			Cmd    string `yaml:"cmd"`
			Policy string `yaml:"policy"`
		}
		if err := item.Decode(&raw); err != nil {
			return nil, err
		}
		policy := ExecPolicy(raw.Policy)
		if policy == "" {
			policy = ExecPolicyInitial
		}
		out = append(out, ExecCommand{User: raw.User, Cmd: raw.Cmd, Policy: policy})
	}
	return out, nil
}
