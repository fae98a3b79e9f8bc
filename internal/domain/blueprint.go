package domain

// ProvisionAction categorizes what the orchestrator should do with a component
// on a newly provisioned host.
type ProvisionAction string

const (
	ProvisionInstallOnly     ProvisionAction = "INSTALL_ONLY"
	ProvisionStartOnly       ProvisionAction = "START_ONLY"
	ProvisionInstallAndStart ProvisionAction = "INSTALL_AND_START"
)

// Component is a blueprint-declared component within a host group.
type Component struct {
	Name      string          `json:"name"`
	Provision ProvisionAction `json:"provision_action,omitempty"`
}

// EffectiveProvision returns the component's provisioning action, defaulting
// to install-and-start when the blueprint left it unset.
func (c Component) EffectiveProvision() ProvisionAction {
	if c.Provision == "" {
		return ProvisionInstallAndStart
	}
	return c.Provision
}

// HostGroup is a blueprint-defined role template that host-level topology
// binds to concrete hostnames.
type HostGroup struct {
	Name          string
	Components    []Component
	Configuration *Configuration
	Cardinality   string
}

// ComponentNames returns the names of components matching any of the given
// provisioning actions. With no actions it returns all component names.
func (g *HostGroup) ComponentNames(actions ...ProvisionAction) []string {
	names := make([]string, 0, len(g.Components))
	for _, component := range g.Components {
		if len(actions) == 0 {
			names = append(names, component.Name)
			continue
		}
		for _, action := range actions {
			if component.EffectiveProvision() == action {
				names = append(names, component.Name)
				break
			}
		}
	}
	return names
}

// Blueprint is the read-only cluster template: named host groups with their
// component lists and configuration scopes. The topology engine consumes it
// but never mutates it, with one exception: the blueprint-scope Configuration
// is re-parented onto the stack defaults at topology construction.
type Blueprint struct {
	name          string
	stacks        []StackID
	hostGroups    map[string]*HostGroup
	configuration *Configuration
	setting       *Setting
}

// NewBlueprint creates a blueprint. A nil configuration or setting is replaced
// with an empty one.
func NewBlueprint(name string, stacks []StackID, hostGroups map[string]*HostGroup, configuration *Configuration, setting *Setting) *Blueprint {
	if hostGroups == nil {
		hostGroups = make(map[string]*HostGroup)
	}
	if configuration == nil {
		configuration = EmptyConfiguration()
	}
	if setting == nil {
		setting = NewSetting(nil)
	}
	return &Blueprint{
		name:          name,
		stacks:        stacks,
		hostGroups:    hostGroups,
		configuration: configuration,
		setting:       setting,
	}
}

// Name returns the blueprint name.
func (b *Blueprint) Name() string {
	return b.name
}

// Stacks returns the stack identifiers the blueprint was written against.
func (b *Blueprint) Stacks() []StackID {
	return b.stacks
}

// HostGroup returns the named host group, or nil if the blueprint does not
// define it.
func (b *Blueprint) HostGroup(name string) *HostGroup {
	return b.hostGroups[name]
}

// HostGroups returns the blueprint's host groups keyed by name.
func (b *Blueprint) HostGroups() map[string]*HostGroup {
	return b.hostGroups
}

// Configuration returns the blueprint-scope configuration node.
func (b *Blueprint) Configuration() *Configuration {
	return b.configuration
}

// Setting returns the blueprint's settings groups.
func (b *Blueprint) Setting() *Setting {
	return b.setting
}
