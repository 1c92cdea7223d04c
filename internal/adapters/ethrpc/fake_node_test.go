package ethrpc

import (
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/caseledger/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

// nodeService is an in-process stand-in for a dev node with unlocked
// accounts. Its exported methods are served under the eth namespace.
type nodeService struct {
	mu sync.Mutex

	accounts []common.Address
	chainID  uint64
	balances map[common.Address]*big.Int

	sendErr error
	sent    []sendArgs

	// pendingPolls is how many receipt lookups return null before the
	// receipt appears.
	pendingPolls  int
	receiptPolls  int
	receiptStatus uint64
	neverConfirm  bool

	callFn func(method string, args []any) ([]byte, error)
	calls  []callArgs
}

func newNodeService() *nodeService {
	return &nodeService{
		accounts:      []common.Address{alice, bob},
		chainID:       1337,
		balances:      map[common.Address]*big.Int{alice: big.NewInt(1e18)},
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (s *nodeService) Accounts() ([]common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.Address(nil), s.accounts...), nil
}

func (s *nodeService) ChainId() (hexutil.Uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hexutil.Uint64(s.chainID), nil
}

func (s *nodeService) GetBalance(addr common.Address, block string) (*hexutil.Big, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[addr]
	if !ok {
		bal = new(big.Int)
	}
	return (*hexutil.Big)(bal), nil
}

func (s *nodeService) SendTransaction(args sendArgs) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}
	s.sent = append(s.sent, args)
	return common.BigToHash(big.NewInt(int64(len(s.sent)))), nil
}

func (s *nodeService) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptPolls++
	if s.neverConfirm || s.receiptPolls <= s.pendingPolls {
		return nil, nil
	}
	return &types.Receipt{
		Status:      s.receiptStatus,
		TxHash:      hash,
		GasUsed:     21000,
		BlockNumber: big.NewInt(7),
		Logs:        []*types.Log{},
	}, nil
}

func (s *nodeService) Call(args callArgs, block string) (hexutil.Bytes, error) {
	s.mu.Lock()
	s.calls = append(s.calls, args)
	fn := s.callFn
	s.mu.Unlock()

	for _, parsed := range contractABIs {
		method, err := parsed.MethodById(args.Data)
		if err != nil {
			continue
		}
		values, err := method.Inputs.Unpack(args.Data[4:])
		if err != nil {
			return nil, err
		}
		if fn == nil {
			return nil, fmt.Errorf("no call handler")
		}
		return fn(method.Name, values)
	}
	return nil, &codedError{code: codeReverted, msg: "execution reverted"}
}

func (s *nodeService) setAccounts(accounts ...common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
}

func (s *nodeService) setChainID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chainID = id
}

func (s *nodeService) sentTxs() []sendArgs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sendArgs(nil), s.sent...)
}

// walletService adds the wallet access method on top of the node.
type walletService struct {
	*nodeService
	requestErr error
}

func (w *walletService) RequestAccounts() ([]common.Address, error) {
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	return w.Accounts()
}

func testConfig() Config {
	return Config{
		Addresses:           domain.DefaultAddressBook(),
		PollInterval:        5 * time.Millisecond,
		ConfirmPollInterval: 2 * time.Millisecond,
		ConfirmPollMax:      5 * time.Millisecond,
	}
}

func newTestGateway(t *testing.T, svc any, cfg Config) *Gateway {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	g := NewGateway(rpc.DialInProc(srv), cfg)
	t.Cleanup(func() {
		g.Close()
		srv.Stop()
	})
	return g
}

func packOutputs(t *testing.T, op domain.Operation, values ...any) []byte {
	t.Helper()
	out, err := contractABIs[op.Contract].Methods[op.Name].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}
