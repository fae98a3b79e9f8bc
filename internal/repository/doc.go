// Package repository defines the narrow persistence interface the topology
// engine's callers use to save and restore cluster topologies.
//
// The engine itself never touches storage; the service layer snapshots a
// topology's assignment state and hands it to a Store. Implementations live
// in subpackages (currently SQLite).
package repository
