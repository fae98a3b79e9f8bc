// Package loader parses blueprint and provisioning-request YAML documents
// into domain and topology types.
package loader

import (
	"fmt"
	"os"

	"clusterforge/internal/domain"
	"clusterforge/internal/topology"

	"gopkg.in/yaml.v3"
)

// BlueprintYAML represents the blueprint file structure.
type BlueprintYAML struct {
	Name           string                         `yaml:"name"`
	Stacks         []string                       `yaml:"stacks,omitempty"`
	Configurations map[string]map[string]string   `yaml:"configurations,omitempty"`
	Attributes     map[string]map[string]string   `yaml:"attributes,omitempty"`
	HostGroups     []BlueprintHostGroupYAML       `yaml:"host_groups"`
	Settings       map[string][]map[string]string `yaml:"settings,omitempty"`
}

// BlueprintHostGroupYAML represents one host group in a blueprint.
type BlueprintHostGroupYAML struct {
	Name           string                       `yaml:"name"`
	Cardinality    string                       `yaml:"cardinality,omitempty"`
	Components     []ComponentYAML              `yaml:"components"`
	Configurations map[string]map[string]string `yaml:"configurations,omitempty"`
}

// ComponentYAML represents a component entry.
type ComponentYAML struct {
	Name            string `yaml:"name"`
	ProvisionAction string `yaml:"provision_action,omitempty"`
}

// ProvisionRequestYAML represents a provisioning or scale-out request file.
type ProvisionRequestYAML struct {
	ClusterName    string                       `yaml:"cluster_name"`
	Blueprint      string                       `yaml:"blueprint"`
	Configurations map[string]map[string]string `yaml:"configurations,omitempty"`
	HostGroups     []RequestHostGroupYAML       `yaml:"host_groups"`
}

// RequestHostGroupYAML binds a blueprint host group to concrete hosts or a
// requested host count. Hosts and host_count are mutually exclusive.
type RequestHostGroupYAML struct {
	Name           string                       `yaml:"name"`
	HostCount      int                          `yaml:"host_count,omitempty"`
	Hosts          []RequestHostYAML            `yaml:"hosts,omitempty"`
	Configurations map[string]map[string]string `yaml:"configurations,omitempty"`
}

// RequestHostYAML is one concrete host binding.
type RequestHostYAML struct {
	FQDN string `yaml:"fqdn"`
	Rack string `yaml:"rack,omitempty"`
}

// ProvisionRequestDoc is the parsed request, ready to be resolved against a
// blueprint by the service layer.
type ProvisionRequestDoc struct {
	ClusterName   string
	BlueprintName string
	Configuration *domain.Configuration
	HostGroups    map[string]*topology.HostGroupInfo
}

// LoadBlueprint loads a blueprint from a YAML file.
func LoadBlueprint(path string) (*domain.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	return ParseBlueprint(data)
}

// ParseBlueprint parses a blueprint from YAML bytes.
func ParseBlueprint(data []byte) (*domain.Blueprint, error) {
	var doc BlueprintYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("blueprint name is required")
	}
	if len(doc.HostGroups) == 0 {
		return nil, fmt.Errorf("blueprint %s defines no host groups", doc.Name)
	}

	stacks := make([]domain.StackID, 0, len(doc.Stacks))
	for _, s := range doc.Stacks {
		stacks = append(stacks, domain.ParseStackID(s))
	}

	hostGroups := make(map[string]*domain.HostGroup, len(doc.HostGroups))
	for _, groupDoc := range doc.HostGroups {
		if groupDoc.Name == "" {
			return nil, fmt.Errorf("blueprint %s contains a host group without a name", doc.Name)
		}
		if _, ok := hostGroups[groupDoc.Name]; ok {
			return nil, fmt.Errorf("blueprint %s defines host group %s twice", doc.Name, groupDoc.Name)
		}

		components := make([]domain.Component, 0, len(groupDoc.Components))
		for _, componentDoc := range groupDoc.Components {
			components = append(components, domain.Component{
				Name:      componentDoc.Name,
				Provision: domain.ProvisionAction(componentDoc.ProvisionAction),
			})
		}

		hostGroups[groupDoc.Name] = &domain.HostGroup{
			Name:          groupDoc.Name,
			Components:    components,
			Configuration: domain.NewConfiguration(groupDoc.Configurations, nil, nil),
			Cardinality:   groupDoc.Cardinality,
		}
	}

	configuration := domain.NewConfiguration(doc.Configurations, doc.Attributes, nil)
	setting := domain.NewSetting(doc.Settings)

	return domain.NewBlueprint(doc.Name, stacks, hostGroups, configuration, setting), nil
}

// LoadProvisionRequest loads a provisioning request from a YAML file.
func LoadProvisionRequest(path string) (*ProvisionRequestDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provision request: %w", err)
	}
	return ParseProvisionRequest(data)
}

// ParseProvisionRequest parses a provisioning request from YAML bytes.
func ParseProvisionRequest(data []byte) (*ProvisionRequestDoc, error) {
	var doc ProvisionRequestYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse provision request: %w", err)
	}
	if doc.ClusterName == "" {
		return nil, fmt.Errorf("cluster_name is required")
	}
	if doc.Blueprint == "" {
		return nil, fmt.Errorf("blueprint is required")
	}

	hostGroups := make(map[string]*topology.HostGroupInfo, len(doc.HostGroups))
	for _, groupDoc := range doc.HostGroups {
		if groupDoc.Name == "" {
			return nil, fmt.Errorf("request for cluster %s contains a host group without a name", doc.ClusterName)
		}
		if len(groupDoc.Hosts) > 0 && groupDoc.HostCount > 0 {
			return nil, fmt.Errorf("host group %s: hosts and host_count are mutually exclusive", groupDoc.Name)
		}

		group := topology.NewHostGroupInfo(groupDoc.Name)
		for _, host := range groupDoc.Hosts {
			if host.FQDN == "" {
				return nil, fmt.Errorf("host group %s contains a host without an fqdn", groupDoc.Name)
			}
			group.AddHost(host.FQDN)
			group.SetRackInfo(host.FQDN, host.Rack)
		}
		group.SetRequestedCount(groupDoc.HostCount)
		group.SetConfiguration(domain.NewConfiguration(groupDoc.Configurations, nil, nil))
		hostGroups[groupDoc.Name] = group
	}

	return &ProvisionRequestDoc{
		ClusterName:   doc.ClusterName,
		BlueprintName: doc.Blueprint,
		Configuration: domain.NewConfiguration(doc.Configurations, nil, nil),
		HostGroups:    hostGroups,
	}, nil
}
