// Package topology implements the cluster topology assignment and
// configuration-resolution engine.
//
// A ClusterTopology is built from a blueprint plus a concrete mapping of host
// groups to hosts, and is the single source of truth for which component runs
// where. It enforces the engine's interlocking invariants on every mutation:
//
//   - a hostname belongs to at most one host group
//   - every referenced host group exists in the blueprint (and, for updates,
//     is already registered)
//   - batch validation is all-or-nothing; a failed request leaves no partial
//     state behind
//
// Host-group assignment state is guarded by a single exclusive lock. The
// resolved-component mapping is copy-on-write: WithComponents and
// WithAdditionalComponents derive new topology values and never mutate the
// receiver, so component reads need no locking.
//
// External collaborators (stack metadata, agent orchestration) are consumed
// through the StackDefinition and Orchestrator interfaces.
package topology
