package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CaseRecord is the registry's view of a judicial case.
type CaseRecord struct {
	CaseID      string         `json:"case_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   *big.Int       `json:"created_at"`
	CreatedBy   common.Address `json:"created_by"`
	IsActive    bool           `json:"is_active"`
}

// WitnessRecord is a witness attestation token.
type WitnessRecord struct {
	Name            string         `json:"name"`
	CaseID          string         `json:"case_id"`
	MetadataURI     string         `json:"metadata_uri"`
	CreatedAt       *big.Int       `json:"created_at"`
	AuthorizedJudge common.Address `json:"authorized_judge"`
	IsActive        bool           `json:"is_active"`
}

// EvidenceRecord is a submitted piece of evidence.
type EvidenceRecord struct {
	CaseID       string         `json:"case_id"`
	EvidenceHash string         `json:"evidence_hash"`
	MetadataURI  string         `json:"metadata_uri"`
	CreatedAt    *big.Int       `json:"created_at"`
	Submitter    common.Address `json:"submitter"`
	IsVerified   bool           `json:"is_verified"`
}

// ProposalRecord is an expert-committee proposal and its tally.
type ProposalRecord struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CaseID       string         `json:"case_id"`
	EvidenceURI  string         `json:"evidence_uri"`
	CreatedAt    *big.Int       `json:"created_at"`
	Creator      common.Address `json:"creator"`
	VotingPeriod *big.Int       `json:"voting_period"`
	ForVotes     *big.Int       `json:"for_votes"`
	AgainstVotes *big.Int       `json:"against_votes"`
	Executed     bool           `json:"executed"`
	Canceled     bool           `json:"canceled"`
}

// PaymentRecord is a case-related payment order.
type PaymentRecord struct {
	CaseID      string         `json:"case_id"`
	PaymentType string         `json:"payment_type"`
	Recipient   common.Address `json:"recipient"`
	Amount      *big.Int       `json:"amount"`
	CreatedAt   *big.Int       `json:"created_at"`
	IsPaid      bool           `json:"is_paid"`
}
