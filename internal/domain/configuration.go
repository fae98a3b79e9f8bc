package domain

// ConfigTypeClusterEnv is the legacy flat config type that predates structured
// cluster settings. Some consumers still read it directly.
const ConfigTypeClusterEnv = "cluster-env"

// Configuration is one node in a configuration inheritance chain.
//
// A node stores properties as configType -> propertyName -> value, plus an
// attributes mapping of the same shape. Lookups that miss locally fall back
// through the parent chain; the chain is expected to be short (host group ->
// cluster -> blueprint defaults) and acyclic. Mutations only ever touch the
// node they are called on.
type Configuration struct {
	properties map[string]map[string]string
	attributes map[string]map[string]string
	parent     *Configuration
}

// NewConfiguration creates a configuration node with the given local
// properties and attributes. Either map may be nil. The parent may be nil for
// a root node.
func NewConfiguration(properties, attributes map[string]map[string]string, parent *Configuration) *Configuration {
	if properties == nil {
		properties = make(map[string]map[string]string)
	}
	if attributes == nil {
		attributes = make(map[string]map[string]string)
	}
	return &Configuration{
		properties: properties,
		attributes: attributes,
		parent:     parent,
	}
}

// EmptyConfiguration creates a root configuration node with no properties.
func EmptyConfiguration() *Configuration {
	return NewConfiguration(nil, nil, nil)
}

// Parent returns the parent node, or nil for a root.
func (c *Configuration) Parent() *Configuration {
	return c.parent
}

// SetParent replaces the parent reference. No properties are copied or moved.
// Callers must not introduce a cycle; re-parenting happens only at topology
// registration time.
func (c *Configuration) SetParent(parent *Configuration) {
	c.parent = parent
}

// Properties returns the node's local properties, without ancestor values.
func (c *Configuration) Properties() map[string]map[string]string {
	return c.properties
}

// Attributes returns the node's local attributes, without ancestor values.
func (c *Configuration) Attributes() map[string]map[string]string {
	return c.attributes
}

// GetProperty resolves a property by walking from this node to the root.
// The first definition found wins. An unknown config type is simply not found.
func (c *Configuration) GetProperty(configType, name string) (string, bool) {
	for node := c; node != nil; node = node.parent {
		if props, ok := node.properties[configType]; ok {
			if value, ok := props[name]; ok {
				return value, true
			}
		}
	}
	return "", false
}

// SetProperty sets a property on this node only.
func (c *Configuration) SetProperty(configType, name, value string) {
	props, ok := c.properties[configType]
	if !ok {
		props = make(map[string]string)
		c.properties[configType] = props
	}
	props[name] = value
}

// RemoveProperty removes a property from this node only. A value defined by
// an ancestor remains visible afterward; this is a shadow removal, not a
// guarantee of absence.
func (c *Configuration) RemoveProperty(configType, name string) {
	if props, ok := c.properties[configType]; ok {
		delete(props, name)
	}
}

// GetFullProperties materializes the merged property view across the whole
// chain. Descendant values take precedence over ancestor values for the same
// (configType, name). The returned maps are fresh copies.
func (c *Configuration) GetFullProperties() map[string]map[string]string {
	return mergeChain(c, func(node *Configuration) map[string]map[string]string {
		return node.properties
	})
}

// GetFullAttributes materializes the merged attribute view across the whole
// chain, with the same precedence rules as GetFullProperties.
func (c *Configuration) GetFullAttributes() map[string]map[string]string {
	return mergeChain(c, func(node *Configuration) map[string]map[string]string {
		return node.attributes
	})
}

func mergeChain(leaf *Configuration, pick func(*Configuration) map[string]map[string]string) map[string]map[string]string {
	// Collect leaf-to-root, then apply root first so descendants win.
	var chain []*Configuration
	for node := leaf; node != nil; node = node.parent {
		chain = append(chain, node)
	}

	merged := make(map[string]map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		for configType, entries := range pick(chain[i]) {
			target, ok := merged[configType]
			if !ok {
				target = make(map[string]string)
				merged[configType] = target
			}
			for name, value := range entries {
				target[name] = value
			}
		}
	}
	return merged
}
