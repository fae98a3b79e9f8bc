package topology

import "clusterforge/internal/domain"

// StackService pairs a stack identifier with a service it defines.
type StackService struct {
	Stack       domain.StackID
	ServiceName string
	ServiceType string
}

// StackDefinition is the stack-metadata collaborator. It answers which
// services and components exist in the active software stacks and supplies
// stack-default configuration; its internals are not this engine's concern.
type StackDefinition interface {
	// ServiceForConfigType resolves the service owning a config type. Unknown
	// config types are an error.
	ServiceForConfigType(configType string) (string, error)

	// ClusterSettingPropertyNames lists the legacy cluster-env property names
	// recognized as structured cluster settings by the current stacks.
	ClusterSettingPropertyNames() []string

	// ServicesForComponent returns every (stack, service) that defines the
	// named component.
	ServicesForComponent(componentName string) []StackService

	// IsMasterComponent reports whether the named component is a master
	// component.
	IsMasterComponent(componentName string) bool

	// DefaultConfiguration returns the stack-default configuration for the
	// given services. It forms the root of the topology's config chain.
	DefaultConfiguration(services []string) *domain.Configuration
}
