package domain

import (
	"math/big"
	"sort"
)

// Contract names a deployed contract the gateway can route to.
type Contract string

const (
	ContractWitnessNFT      Contract = "WitnessNFT"
	ContractEvidenceManager Contract = "EvidenceManager"
	ContractExpertDAO       Contract = "ExpertDAO"
	ContractPaymentSystem   Contract = "PaymentSystem"
	ContractCaseRegistry    Contract = "CaseRegistry"
)

// Contracts lists every contract in the deployment.
var Contracts = []Contract{
	ContractWitnessNFT,
	ContractEvidenceManager,
	ContractExpertDAO,
	ContractPaymentSystem,
	ContractCaseRegistry,
}

// OpKind distinguishes state-mutating calls from read-only queries.
type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
)

// String returns "read" or "write".
func (k OpKind) String() string {
	if k == OpWrite {
		return "write"
	}
	return "read"
}

// Operation describes one contract method exposed to callers.
type Operation struct {
	// Name is the contract method name, e.g. "createWitness".
	Name string

	// Contract is the contract the method is invoked on.
	Contract Contract

	Kind OpKind

	// Payable operations attach a value to the transaction.
	Payable bool
}

// Operation catalog.
var (
	OpCreateCase       = Operation{Name: "createCase", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpUpdateCaseStatus = Operation{Name: "updateCaseStatus", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpGetCaseInfo      = Operation{Name: "getCaseInfo", Contract: ContractCaseRegistry, Kind: OpRead}
	OpGetAllCaseIDs    = Operation{Name: "getAllCaseIds", Contract: ContractCaseRegistry, Kind: OpRead}
	OpGetActiveCaseIDs = Operation{Name: "getActiveCaseIds", Contract: ContractCaseRegistry, Kind: OpRead}

	OpCreateWitness  = Operation{Name: "createWitness", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpGetWitnessInfo = Operation{Name: "getWitnessInfo", Contract: ContractWitnessNFT, Kind: OpRead}

	OpSubmitEvidence = Operation{Name: "submitEvidence", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpGetEvidence    = Operation{Name: "getEvidence", Contract: ContractEvidenceManager, Kind: OpRead}

	OpCreateProposal = Operation{Name: "createProposal", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpCastVote       = Operation{Name: "castVote", Contract: ContractExpertDAO, Kind: OpWrite}
	OpGetProposal    = Operation{Name: "getProposal", Contract: ContractExpertDAO, Kind: OpRead}

	OpCreatePayment  = Operation{Name: "createPayment", Contract: ContractCaseRegistry, Kind: OpWrite}
	OpProcessPayment = Operation{Name: "processPayment", Contract: ContractPaymentSystem, Kind: OpWrite, Payable: true}
	OpGetPayment     = Operation{Name: "getPayment", Contract: ContractPaymentSystem, Kind: OpRead}
)

// Operations returns the full catalog sorted by contract then name.
func Operations() []Operation {
	ops := []Operation{
		OpCreateCase, OpUpdateCaseStatus, OpGetCaseInfo, OpGetAllCaseIDs, OpGetActiveCaseIDs,
		OpCreateWitness, OpGetWitnessInfo,
		OpSubmitEvidence, OpGetEvidence,
		OpCreateProposal, OpCastVote, OpGetProposal,
		OpCreatePayment, OpProcessPayment, OpGetPayment,
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Contract != ops[j].Contract {
			return ops[i].Contract < ops[j].Contract
		}
		return ops[i].Name < ops[j].Name
	})
	return ops
}

// Request is a named operation with its positional arguments.
// A Request is immutable once built; use NewRequest to construct one.
type Request struct {
	op    Operation
	args  []any
	value *big.Int
}

// NewRequest creates a request for op with the given arguments.
// Argument types follow the contract ABI: common.Address, string, bool, *big.Int.
func NewRequest(op Operation, args ...any) Request {
	return Request{op: op, args: append([]any(nil), args...)}
}

// WithValue returns a copy of r that transfers value wei with the call.
func (r Request) WithValue(value *big.Int) Request {
	r.args = append([]any(nil), r.args...)
	if value != nil {
		r.value = new(big.Int).Set(value)
	}
	return r
}

// Op returns the requested operation.
func (r Request) Op() Operation { return r.op }

// Args returns a copy of the positional arguments.
func (r Request) Args() []any { return append([]any(nil), r.args...) }

// Value returns the attached value in wei, or nil.
func (r Request) Value() *big.Int {
	if r.value == nil {
		return nil
	}
	return new(big.Int).Set(r.value)
}
