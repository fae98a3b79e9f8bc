// Package domain defines the core domain types for the Clusterforge topology engine.
//
// This package contains the fundamental entities and value objects that represent
// cluster-provisioning concepts: blueprints, host groups, components, and the
// layered configuration model.
//
// # Core Types
//
// Blueprint is the read-only cluster template: named host groups, each carrying
// a component list and a group-scoped Configuration.
//
// Configuration is one node in a configuration inheritance chain. A node holds
// a flat property mapping grouped by config type and falls back through its
// parent chain when a property is not locally defined.
//
// ResolvedComponent is a concrete (service, component) pairing produced by
// stack-aware resolution, placed into a host group by the topology engine.
//
// Setting holds blueprint-level settings groups, including the structured
// cluster_settings group that legacy cluster-env properties migrate into.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
