// Package handler implements HTTP request handlers for the provisioning API.
//
// # Handlers
//
// TopologyHandler covers the full API surface: blueprint registration,
// cluster provisioning and scale-out, host assignment queries, component
// placement queries, effective-configuration resolution, and orchestration
// dispatch.
//
// Middleware provides request logging, panic recovery, and CORS support.
//
// # API Design
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - DELETE for removal
//
// Blueprints and provisioning requests are submitted as YAML documents, the
// format operators author them in. Everything else speaks JSON.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint provides real-time topology updates via SSE, allowing
// clients to receive live notifications of assignment changes.
package handler
