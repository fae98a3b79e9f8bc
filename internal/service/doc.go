// Package service implements the business logic layer of the provisioning
// server.
//
// TopologyService coordinates between the HTTP handlers, the topology engine,
// and the repository layer: it registers blueprints, builds cluster
// topologies from provisioning requests, applies scale-out updates, and
// persists assignment snapshots after every mutation.
//
// # Event System
//
// The service publishes events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE). Event types cover cluster
// lifecycle, host assignment changes, and orchestration dispatches.
//
// # Design Principles
//
// - Services own business logic and validation
// - Repository pattern for data access
// - Event-driven for real-time updates
// - Context-aware for cancellation and timeouts
package service
