// Package domain contains the core entities and value objects for caseledger.
//
// This package is the innermost layer. It has no dependencies on transport,
// logging or configuration and holds only the data model and its rules.
//
// # Entities
//
//   - [Session]: the client's view of its connection to the ledger gateway
//   - [Request]: a named contract operation with its positional arguments
//   - [Receipt]: confirmation artifact of a finalized write
//   - [CaseRecord], [WitnessRecord], [EvidenceRecord], [ProposalRecord],
//     [PaymentRecord]: read-only projections of remote contract state
//   - [Fault]: a classified error surfaced to callers instead of a result
//
// Records are never cached here. Every read goes back to the gateway.
package domain
