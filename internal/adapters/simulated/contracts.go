package simulated

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
)

// revertError is a contract-level failure. It is recorded in a failed
// receipt for writes and returned as an execution revert for reads.
type revertError struct {
	reason string
}

func (e *revertError) Error() string { return "execution reverted: " + e.reason }

func (e *revertError) Unwrap() error { return ports.ErrExecutionReverted }

func revert(format string, args ...any) error {
	return &revertError{reason: fmt.Sprintf(format, args...)}
}

func isRevert(err error) bool {
	var r *revertError
	return errors.As(err, &r)
}

// txContext is the execution environment of a single write.
type txContext struct {
	from     common.Address
	value    *big.Int
	now      uint64
	balances map[common.Address]*big.Int
}

type proposal struct {
	domain.ProposalRecord
	voters map[common.Address]bool
}

// contracts holds the state of the five deployed contracts.
type contracts struct {
	cases     map[string]*domain.CaseRecord
	caseOrder []string
	witnesses []*domain.WitnessRecord
	evidence  []*domain.EvidenceRecord
	proposals []*proposal
	payments  []*domain.PaymentRecord
}

func newContracts() *contracts {
	return &contracts{cases: make(map[string]*domain.CaseRecord)}
}

func (c *contracts) execute(tx *txContext, req domain.Request) error {
	a := args(req.Args())
	op := req.Op()

	switch op {
	case domain.OpCreateCase:
		id, title, desc := a.str(0), a.str(1), a.str(2)
		if err := a.check(3); err != nil {
			return err
		}
		if id == "" {
			return revert("empty case id")
		}
		if _, ok := c.cases[id]; ok {
			return revert("case %s already exists", id)
		}
		c.cases[id] = &domain.CaseRecord{
			CaseID: id, Title: title, Description: desc,
			CreatedAt: u256(tx.now), CreatedBy: tx.from, IsActive: true,
		}
		c.caseOrder = append(c.caseOrder, id)

	case domain.OpUpdateCaseStatus:
		id, active := a.str(0), a.boolean(1)
		if err := a.check(2); err != nil {
			return err
		}
		rec, ok := c.cases[id]
		if !ok {
			return revert("case %s does not exist", id)
		}
		if rec.CreatedBy != tx.from {
			return revert("only the case creator can update status")
		}
		rec.IsActive = active

	case domain.OpCreateWitness:
		_, name, caseID, uri, judge := a.addr(0), a.str(1), a.str(2), a.str(3), a.addr(4)
		if err := a.check(5); err != nil {
			return err
		}
		if err := c.requireCase(caseID); err != nil {
			return err
		}
		c.witnesses = append(c.witnesses, &domain.WitnessRecord{
			Name: name, CaseID: caseID, MetadataURI: uri,
			CreatedAt: u256(tx.now), AuthorizedJudge: judge, IsActive: true,
		})

	case domain.OpSubmitEvidence:
		caseID, hash, uri := a.str(0), a.str(1), a.str(2)
		if err := a.check(3); err != nil {
			return err
		}
		if err := c.requireCase(caseID); err != nil {
			return err
		}
		c.evidence = append(c.evidence, &domain.EvidenceRecord{
			CaseID: caseID, EvidenceHash: hash, MetadataURI: uri,
			CreatedAt: u256(tx.now), Submitter: tx.from,
		})

	case domain.OpCreateProposal:
		title, desc, caseID, uri, period := a.str(0), a.str(1), a.str(2), a.str(3), a.bigint(4)
		if err := a.check(5); err != nil {
			return err
		}
		if err := c.requireCase(caseID); err != nil {
			return err
		}
		c.proposals = append(c.proposals, &proposal{
			ProposalRecord: domain.ProposalRecord{
				Title: title, Description: desc, CaseID: caseID, EvidenceURI: uri,
				CreatedAt: u256(tx.now), Creator: tx.from, VotingPeriod: new(big.Int).Set(period),
				ForVotes: new(big.Int), AgainstVotes: new(big.Int),
			},
			voters: make(map[common.Address]bool),
		})

	case domain.OpCastVote:
		id, support := a.bigint(0), a.boolean(1)
		if err := a.check(2); err != nil {
			return err
		}
		p, err := lookup(c.proposals, id, "proposal")
		if err != nil {
			return err
		}
		deadline := new(big.Int).Add(p.CreatedAt, p.VotingPeriod)
		if u256(tx.now).Cmp(deadline) > 0 {
			return revert("voting period ended")
		}
		if p.voters[tx.from] {
			return revert("already voted")
		}
		p.voters[tx.from] = true
		if support {
			p.ForVotes.Add(p.ForVotes, big.NewInt(1))
		} else {
			p.AgainstVotes.Add(p.AgainstVotes, big.NewInt(1))
		}

	case domain.OpCreatePayment:
		caseID, kind, recipient, amount := a.str(0), a.str(1), a.addr(2), a.bigint(3)
		if err := a.check(4); err != nil {
			return err
		}
		if err := c.requireCase(caseID); err != nil {
			return err
		}
		c.payments = append(c.payments, &domain.PaymentRecord{
			CaseID: caseID, PaymentType: kind, Recipient: recipient,
			Amount: new(big.Int).Set(amount), CreatedAt: u256(tx.now),
		})

	case domain.OpProcessPayment:
		id := a.bigint(0)
		if err := a.check(1); err != nil {
			return err
		}
		p, err := lookup(c.payments, id, "payment")
		if err != nil {
			return err
		}
		if p.IsPaid {
			return revert("payment %s already processed", id)
		}
		if tx.value.Cmp(p.Amount) < 0 {
			return revert("insufficient payment value")
		}
		p.IsPaid = true
		tx.balances[tx.from] = new(big.Int).Sub(tx.balances[tx.from], tx.value)
		credit := tx.balances[p.Recipient]
		if credit == nil {
			credit = new(big.Int)
		}
		tx.balances[p.Recipient] = new(big.Int).Add(credit, tx.value)

	default:
		return fmt.Errorf("unsupported write %s", op.Name)
	}
	return nil
}

func (c *contracts) read(req domain.Request, out any) error {
	a := args(req.Args())
	op := req.Op()

	switch op {
	case domain.OpGetCaseInfo:
		id := a.str(0)
		if err := a.check(1); err != nil {
			return err
		}
		rec, ok := c.cases[id]
		if !ok {
			return revert("case %s does not exist", id)
		}
		return assign(out, *rec)

	case domain.OpGetAllCaseIDs, domain.OpGetActiveCaseIDs:
		if err := a.check(0); err != nil {
			return err
		}
		ids := make([]string, 0, len(c.caseOrder))
		for _, id := range c.caseOrder {
			if op == domain.OpGetActiveCaseIDs && !c.cases[id].IsActive {
				continue
			}
			ids = append(ids, id)
		}
		return assign(out, ids)

	case domain.OpGetWitnessInfo:
		rec, err := lookupArg(c.witnesses, a, "witness")
		if err != nil {
			return err
		}
		return assign(out, *rec)

	case domain.OpGetEvidence:
		rec, err := lookupArg(c.evidence, a, "evidence")
		if err != nil {
			return err
		}
		return assign(out, *rec)

	case domain.OpGetProposal:
		p, err := lookupArg(c.proposals, a, "proposal")
		if err != nil {
			return err
		}
		rec := p.ProposalRecord
		rec.ForVotes = new(big.Int).Set(p.ForVotes)
		rec.AgainstVotes = new(big.Int).Set(p.AgainstVotes)
		return assign(out, rec)

	case domain.OpGetPayment:
		rec, err := lookupArg(c.payments, a, "payment")
		if err != nil {
			return err
		}
		return assign(out, *rec)
	}
	return fmt.Errorf("unsupported read %s", op.Name)
}

func (c *contracts) requireCase(id string) error {
	if _, ok := c.cases[id]; !ok {
		return revert("case %s does not exist", id)
	}
	return nil
}

// lookup resolves a one-based id into items.
func lookup[T any](items []*T, id *big.Int, what string) (*T, error) {
	if id.Sign() <= 0 || !id.IsUint64() || id.Uint64() > uint64(len(items)) {
		return nil, revert("%s %s does not exist", what, id)
	}
	return items[id.Uint64()-1], nil
}

func lookupArg[T any](items []*T, a *argReader, what string) (*T, error) {
	id := a.bigint(0)
	if err := a.check(1); err != nil {
		return nil, err
	}
	return lookup(items, id, what)
}

func assign[T any](out any, v T) error {
	dst, ok := out.(*T)
	if !ok {
		return fmt.Errorf("cannot decode %T into %T", v, out)
	}
	*dst = v
	return nil
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// argReader reads positional arguments and remembers the first mismatch.
type argReader struct {
	vals []any
	err  error
}

func args(vals []any) *argReader { return &argReader{vals: vals} }

func (a *argReader) at(i int) any {
	if i >= len(a.vals) {
		if a.err == nil {
			a.err = fmt.Errorf("missing argument %d", i)
		}
		return nil
	}
	return a.vals[i]
}

func (a *argReader) mismatch(i int, want string) {
	if a.err == nil {
		a.err = fmt.Errorf("argument %d: want %s, got %T", i, want, a.vals[i])
	}
}

func (a *argReader) str(i int) string {
	v := a.at(i)
	s, ok := v.(string)
	if !ok && v != nil {
		a.mismatch(i, "string")
	}
	return s
}

func (a *argReader) boolean(i int) bool {
	v := a.at(i)
	b, ok := v.(bool)
	if !ok && v != nil {
		a.mismatch(i, "bool")
	}
	return b
}

func (a *argReader) addr(i int) common.Address {
	v := a.at(i)
	addr, ok := v.(common.Address)
	if !ok && v != nil {
		a.mismatch(i, "address")
	}
	return addr
}

func (a *argReader) bigint(i int) *big.Int {
	v := a.at(i)
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		if v != nil {
			a.mismatch(i, "*big.Int")
		}
		return new(big.Int)
	}
	return n
}

// check returns the first argument error, or an arity mismatch.
func (a *argReader) check(n int) error {
	if a.err != nil {
		return a.err
	}
	if len(a.vals) != n {
		return fmt.Errorf("got %d arguments, want %d", len(a.vals), n)
	}
	return nil
}
