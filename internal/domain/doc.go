// Package domain defines the core domain types for the signalwarden
// presence monitor.
//
// # Core Types
//
// Observation is a single access point sighting produced by a scan backend:
// stable hardware identifier, advertised name, and signal strength on a
// 0-100 scale.
//
// KnownNetwork is the persisted record for an access point: advertised name,
// optional user-assigned label, and first/last seen timestamps. Records are
// never deleted automatically; an access point that drops out of range leaves
// the live set but keeps its history.
//
// ChangeEvent is the tagged variant produced by the detector each cycle:
// Appeared, Strengthened, or Disappeared. Events are ephemeral and consumed
// immediately by the announcement policy.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
