// Package stack provides a StackDefinition backed by a static YAML metadata
// document. It answers which services own which config types, which
// components exist and whether they are masters, and supplies stack-default
// configuration.
package stack

import (
	"fmt"
	"os"

	"clusterforge/internal/domain"
	"clusterforge/internal/topology"

	"gopkg.in/yaml.v3"
)

// StackYAML is the root of the stack metadata document.
type StackYAML struct {
	Stacks          []StackDefYAML `yaml:"stacks"`
	ClusterSettings []string       `yaml:"cluster_settings,omitempty"`
}

// StackDefYAML describes one stack release.
type StackDefYAML struct {
	Name     string        `yaml:"name"`
	Version  string        `yaml:"version"`
	Services []ServiceYAML `yaml:"services"`
}

// ServiceYAML describes one service within a stack.
type ServiceYAML struct {
	Name        string                       `yaml:"name"`
	Type        string                       `yaml:"type,omitempty"`
	ConfigTypes []string                     `yaml:"config_types,omitempty"`
	Components  []ComponentYAML              `yaml:"components,omitempty"`
	Defaults    map[string]map[string]string `yaml:"defaults,omitempty"`
}

// ComponentYAML describes one component of a service.
type ComponentYAML struct {
	Name   string `yaml:"name"`
	Master bool   `yaml:"master,omitempty"`
}

// Static is an immutable StackDefinition built from parsed metadata.
type Static struct {
	configTypes       map[string]string
	componentServices map[string][]topology.StackService
	masters           map[string]struct{}
	clusterSettings   []string
	serviceDefaults   map[string]map[string]map[string]string
}

var _ topology.StackDefinition = (*Static)(nil)

// Load reads and parses a stack metadata file.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack metadata: %w", err)
	}
	return Parse(data)
}

// Parse builds a Static from YAML bytes.
func Parse(data []byte) (*Static, error) {
	var doc StackYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stack metadata: %w", err)
	}
	return New(&doc), nil
}

// New builds a Static from an already-decoded document.
func New(doc *StackYAML) *Static {
	s := &Static{
		configTypes:       make(map[string]string),
		componentServices: make(map[string][]topology.StackService),
		masters:           make(map[string]struct{}),
		clusterSettings:   doc.ClusterSettings,
		serviceDefaults:   make(map[string]map[string]map[string]string),
	}

	for _, stackDef := range doc.Stacks {
		stackID := domain.StackID{Name: stackDef.Name, Version: stackDef.Version}
		for _, service := range stackDef.Services {
			for _, configType := range service.ConfigTypes {
				s.configTypes[configType] = service.Name
			}
			for _, component := range service.Components {
				s.componentServices[component.Name] = append(s.componentServices[component.Name], topology.StackService{
					Stack:       stackID,
					ServiceName: service.Name,
					ServiceType: service.Type,
				})
				if component.Master {
					s.masters[component.Name] = struct{}{}
				}
			}
			if len(service.Defaults) > 0 {
				defaults, ok := s.serviceDefaults[service.Name]
				if !ok {
					defaults = make(map[string]map[string]string)
					s.serviceDefaults[service.Name] = defaults
				}
				for configType, entries := range service.Defaults {
					target, ok := defaults[configType]
					if !ok {
						target = make(map[string]string)
						defaults[configType] = target
					}
					for name, value := range entries {
						target[name] = value
					}
				}
			}
		}
	}
	return s
}

// ServiceForConfigType resolves the owning service of a config type.
func (s *Static) ServiceForConfigType(configType string) (string, error) {
	service, ok := s.configTypes[configType]
	if !ok {
		return "", fmt.Errorf("unknown config type: %s", configType)
	}
	return service, nil
}

// ClusterSettingPropertyNames lists the recognized cluster-setting names.
func (s *Static) ClusterSettingPropertyNames() []string {
	return s.clusterSettings
}

// ServicesForComponent returns every (stack, service) defining the component.
func (s *Static) ServicesForComponent(componentName string) []topology.StackService {
	return s.componentServices[componentName]
}

// IsMasterComponent reports whether the component is marked master in any
// stack.
func (s *Static) IsMasterComponent(componentName string) bool {
	_, ok := s.masters[componentName]
	return ok
}

// DefaultConfiguration merges the defaults of the given services into a
// single root configuration node.
func (s *Static) DefaultConfiguration(services []string) *domain.Configuration {
	configuration := domain.EmptyConfiguration()
	for _, service := range services {
		for configType, entries := range s.serviceDefaults[service] {
			for name, value := range entries {
				configuration.SetProperty(configType, name, value)
			}
		}
	}
	return configuration
}
