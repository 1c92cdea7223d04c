package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
)

// CreateCase registers a new case.
func (d *Dispatcher) CreateCase(ctx context.Context, caseID, title, description string) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpCreateCase, caseID, title, description))
}

// UpdateCaseStatus opens or closes a case.
func (d *Dispatcher) UpdateCaseStatus(ctx context.Context, caseID string, active bool) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpUpdateCaseStatus, caseID, active))
}

// GetCase reads a case by id.
func (d *Dispatcher) GetCase(ctx context.Context, caseID string) (*domain.CaseRecord, error) {
	var rec domain.CaseRecord
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetCaseInfo, caseID), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCaseIDs returns every registered case id.
func (d *Dispatcher) ListCaseIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetAllCaseIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListActiveCaseIDs returns the ids of open cases.
func (d *Dispatcher) ListActiveCaseIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetActiveCaseIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateWitness mints a witness token to `to` for the case.
func (d *Dispatcher) CreateWitness(ctx context.Context, to common.Address, name, caseID, metadataURI string, judge common.Address) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpCreateWitness, to, name, caseID, metadataURI, judge))
}

// GetWitness reads a witness token.
func (d *Dispatcher) GetWitness(ctx context.Context, tokenID uint64) (*domain.WitnessRecord, error) {
	var rec domain.WitnessRecord
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetWitnessInfo, u256(tokenID)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SubmitEvidence records an evidence hash against a case.
func (d *Dispatcher) SubmitEvidence(ctx context.Context, caseID, evidenceHash, metadataURI string) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpSubmitEvidence, caseID, evidenceHash, metadataURI))
}

// GetEvidence reads an evidence entry.
func (d *Dispatcher) GetEvidence(ctx context.Context, evidenceID uint64) (*domain.EvidenceRecord, error) {
	var rec domain.EvidenceRecord
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetEvidence, u256(evidenceID)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateProposal opens an expert-committee vote. votingPeriod is in seconds.
func (d *Dispatcher) CreateProposal(ctx context.Context, title, description, caseID, evidenceURI string, votingPeriod uint64) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpCreateProposal, title, description, caseID, evidenceURI, u256(votingPeriod)))
}

// CastVote votes for or against a proposal.
func (d *Dispatcher) CastVote(ctx context.Context, proposalID uint64, support bool) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpCastVote, u256(proposalID), support))
}

// GetProposal reads a proposal and its tally.
func (d *Dispatcher) GetProposal(ctx context.Context, proposalID uint64) (*domain.ProposalRecord, error) {
	var rec domain.ProposalRecord
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetProposal, u256(proposalID)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreatePayment creates a payment order of amount wei to recipient.
func (d *Dispatcher) CreatePayment(ctx context.Context, caseID, paymentType string, recipient common.Address, amount *big.Int) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpCreatePayment, caseID, paymentType, recipient, amount))
}

// ProcessPayment pays a payment order, attaching value wei.
func (d *Dispatcher) ProcessPayment(ctx context.Context, paymentID uint64, value *big.Int) (*domain.Receipt, error) {
	return d.Write(ctx, domain.NewRequest(domain.OpProcessPayment, u256(paymentID)).WithValue(value))
}

// GetPayment reads a payment order.
func (d *Dispatcher) GetPayment(ctx context.Context, paymentID uint64) (*domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	if err := d.Query(ctx, domain.NewRequest(domain.OpGetPayment, u256(paymentID)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
