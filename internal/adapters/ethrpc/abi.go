package ethrpc

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
)

const caseTupleJSON = `[
	{"name":"caseId","type":"string"},
	{"name":"title","type":"string"},
	{"name":"description","type":"string"},
	{"name":"createdAt","type":"uint256"},
	{"name":"createdBy","type":"address"},
	{"name":"isActive","type":"bool"}]`

const witnessTupleJSON = `[
	{"name":"name","type":"string"},
	{"name":"caseId","type":"string"},
	{"name":"metadataURI","type":"string"},
	{"name":"createdAt","type":"uint256"},
	{"name":"authorizedJudge","type":"address"},
	{"name":"isActive","type":"bool"}]`

const evidenceTupleJSON = `[
	{"name":"caseId","type":"string"},
	{"name":"evidenceHash","type":"string"},
	{"name":"metadataURI","type":"string"},
	{"name":"createdAt","type":"uint256"},
	{"name":"submitter","type":"address"},
	{"name":"isVerified","type":"bool"}]`

const proposalTupleJSON = `[
	{"name":"title","type":"string"},
	{"name":"description","type":"string"},
	{"name":"caseId","type":"string"},
	{"name":"evidenceURI","type":"string"},
	{"name":"createdAt","type":"uint256"},
	{"name":"creator","type":"address"},
	{"name":"votingPeriod","type":"uint256"},
	{"name":"forVotes","type":"uint256"},
	{"name":"againstVotes","type":"uint256"},
	{"name":"executed","type":"bool"},
	{"name":"canceled","type":"bool"}]`

const paymentTupleJSON = `[
	{"name":"caseId","type":"string"},
	{"name":"paymentType","type":"string"},
	{"name":"recipient","type":"address"},
	{"name":"amount","type":"uint256"},
	{"name":"createdAt","type":"uint256"},
	{"name":"isPaid","type":"bool"}]`

var abiSources = map[domain.Contract]string{
	domain.ContractCaseRegistry: `[
	{"type":"function","name":"createCase","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"title","type":"string"},{"name":"description","type":"string"}],"outputs":[]},
	{"type":"function","name":"updateCaseStatus","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"isActive","type":"bool"}],"outputs":[]},
	{"type":"function","name":"getCaseInfo","stateMutability":"view",
	 "inputs":[{"name":"caseId","type":"string"}],
	 "outputs":[{"name":"","type":"tuple","components":` + caseTupleJSON + `}]},
	{"type":"function","name":"getAllCaseIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"function","name":"getActiveCaseIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string[]"}]},
	{"type":"function","name":"createWitness","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"name","type":"string"},{"name":"caseId","type":"string"},
	           {"name":"metadataURI","type":"string"},{"name":"authorizedJudge","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"submitEvidence","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"evidenceHash","type":"string"},{"name":"metadataURI","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"createProposal","stateMutability":"nonpayable",
	 "inputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"caseId","type":"string"},
	           {"name":"evidenceURI","type":"string"},{"name":"votingPeriod","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"createPayment","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"paymentType","type":"string"},
	           {"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`,
	domain.ContractWitnessNFT: `[
	{"type":"function","name":"createWitness","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"name","type":"string"},{"name":"caseId","type":"string"},
	           {"name":"metadataURI","type":"string"},{"name":"authorizedJudge","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getWitnessInfo","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":` + witnessTupleJSON + `}]}
]`,
	domain.ContractEvidenceManager: `[
	{"type":"function","name":"submitEvidence","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"evidenceHash","type":"string"},{"name":"metadataURI","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getEvidence","stateMutability":"view",
	 "inputs":[{"name":"evidenceId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":` + evidenceTupleJSON + `}]}
]`,
	domain.ContractExpertDAO: `[
	{"type":"function","name":"createProposal","stateMutability":"nonpayable",
	 "inputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"caseId","type":"string"},
	           {"name":"evidenceURI","type":"string"},{"name":"votingPeriod","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"castVote","stateMutability":"nonpayable",
	 "inputs":[{"name":"proposalId","type":"uint256"},{"name":"support","type":"bool"}],"outputs":[]},
	{"type":"function","name":"getProposal","stateMutability":"view",
	 "inputs":[{"name":"proposalId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":` + proposalTupleJSON + `}]}
]`,
	domain.ContractPaymentSystem: `[
	{"type":"function","name":"createPayment","stateMutability":"nonpayable",
	 "inputs":[{"name":"caseId","type":"string"},{"name":"paymentType","type":"string"},
	           {"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"processPayment","stateMutability":"payable",
	 "inputs":[{"name":"paymentId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getPayment","stateMutability":"view",
	 "inputs":[{"name":"paymentId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":` + paymentTupleJSON + `}]}
]`,
}

// contractABIs holds the parsed interface of every contract.
var contractABIs = mustParseABIs()

func mustParseABIs() map[domain.Contract]abi.ABI {
	out := make(map[domain.Contract]abi.ABI, len(abiSources))
	for c, src := range abiSources {
		parsed, err := abi.JSON(strings.NewReader(src))
		if err != nil {
			panic(fmt.Sprintf("parse %s abi: %v", c, err))
		}
		out[c] = parsed
	}
	return out
}

// Tuple layouts as unpacked by the abi package. Field names follow the
// camel-cased component names.

type caseTuple struct {
	CaseId      string
	Title       string
	Description string
	CreatedAt   *big.Int
	CreatedBy   common.Address
	IsActive    bool
}

type witnessTuple struct {
	Name            string
	CaseId          string
	MetadataURI     string
	CreatedAt       *big.Int
	AuthorizedJudge common.Address
	IsActive        bool
}

type evidenceTuple struct {
	CaseId       string
	EvidenceHash string
	MetadataURI  string
	CreatedAt    *big.Int
	Submitter    common.Address
	IsVerified   bool
}

type proposalTuple struct {
	Title        string
	Description  string
	CaseId       string
	EvidenceURI  string
	CreatedAt    *big.Int
	Creator      common.Address
	VotingPeriod *big.Int
	ForVotes     *big.Int
	AgainstVotes *big.Int
	Executed     bool
	Canceled     bool
}

type paymentTuple struct {
	CaseId      string
	PaymentType string
	Recipient   common.Address
	Amount      *big.Int
	CreatedAt   *big.Int
	IsPaid      bool
}

// pack encodes req as calldata for its contract.
func pack(req domain.Request) ([]byte, error) {
	op := req.Op()
	parsed, ok := contractABIs[op.Contract]
	if !ok {
		return nil, fmt.Errorf("unknown contract %s", op.Contract)
	}
	data, err := parsed.Pack(op.Name, req.Args()...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", op.Name, err)
	}
	return data, nil
}

// unpack decodes the return data of a read into out.
func unpack(op domain.Operation, data []byte, out any) (err error) {
	parsed, ok := contractABIs[op.Contract]
	if !ok {
		return fmt.Errorf("unknown contract %s", op.Contract)
	}
	values, err := parsed.Unpack(op.Name, data)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", op.Name, err)
	}
	if len(values) != 1 {
		return fmt.Errorf("unpack %s: got %d values, want 1", op.Name, len(values))
	}

	// abi.ConvertType panics on a layout mismatch.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode %s into %T: %v", op.Name, out, r)
		}
	}()

	switch v := out.(type) {
	case *domain.CaseRecord:
		t := abi.ConvertType(values[0], new(caseTuple)).(*caseTuple)
		*v = domain.CaseRecord{
			CaseID: t.CaseId, Title: t.Title, Description: t.Description,
			CreatedAt: t.CreatedAt, CreatedBy: t.CreatedBy, IsActive: t.IsActive,
		}
	case *domain.WitnessRecord:
		t := abi.ConvertType(values[0], new(witnessTuple)).(*witnessTuple)
		*v = domain.WitnessRecord{
			Name: t.Name, CaseID: t.CaseId, MetadataURI: t.MetadataURI,
			CreatedAt: t.CreatedAt, AuthorizedJudge: t.AuthorizedJudge, IsActive: t.IsActive,
		}
	case *domain.EvidenceRecord:
		t := abi.ConvertType(values[0], new(evidenceTuple)).(*evidenceTuple)
		*v = domain.EvidenceRecord{
			CaseID: t.CaseId, EvidenceHash: t.EvidenceHash, MetadataURI: t.MetadataURI,
			CreatedAt: t.CreatedAt, Submitter: t.Submitter, IsVerified: t.IsVerified,
		}
	case *domain.ProposalRecord:
		t := abi.ConvertType(values[0], new(proposalTuple)).(*proposalTuple)
		*v = domain.ProposalRecord{
			Title: t.Title, Description: t.Description, CaseID: t.CaseId, EvidenceURI: t.EvidenceURI,
			CreatedAt: t.CreatedAt, Creator: t.Creator, VotingPeriod: t.VotingPeriod,
			ForVotes: t.ForVotes, AgainstVotes: t.AgainstVotes, Executed: t.Executed, Canceled: t.Canceled,
		}
	case *domain.PaymentRecord:
		t := abi.ConvertType(values[0], new(paymentTuple)).(*paymentTuple)
		*v = domain.PaymentRecord{
			CaseID: t.CaseId, PaymentType: t.PaymentType, Recipient: t.Recipient,
			Amount: t.Amount, CreatedAt: t.CreatedAt, IsPaid: t.IsPaid,
		}
	case *[]string:
		ids, ok := values[0].([]string)
		if !ok {
			return fmt.Errorf("decode %s: got %T, want []string", op.Name, values[0])
		}
		*v = ids
	default:
		return fmt.Errorf("decode %s: unsupported target %T", op.Name, out)
	}
	return nil
}
