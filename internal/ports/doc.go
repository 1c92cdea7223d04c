// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Gateway]: the remote ledger gateway (wallet provider and contracts)
//   - [Logger]: structured logging abstraction
//   - [Metrics]: dispatcher and session instrumentation
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters under internal/adapters implement them over JSON-RPC, an in-memory
// ledger, zerolog, and so on.
package ports
