package ethrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/caseledger/internal/domain"
)

func TestContractABIs_CoverCatalog(t *testing.T) {
	for _, op := range domain.Operations() {
		parsed, ok := contractABIs[op.Contract]
		require.True(t, ok, "contract %s", op.Contract)

		method, ok := parsed.Methods[op.Name]
		require.True(t, ok, "%s.%s", op.Contract, op.Name)

		switch {
		case op.Kind == domain.OpRead:
			assert.True(t, method.IsConstant(), "%s should be a view", op.Name)
		case op.Payable:
			assert.True(t, method.IsPayable(), "%s should be payable", op.Name)
		default:
			assert.False(t, method.IsConstant(), "%s should mutate", op.Name)
			assert.False(t, method.IsPayable(), "%s should not accept value", op.Name)
		}
	}
}

func TestUnpack_UnsupportedTarget(t *testing.T) {
	data := packOutputs(t, domain.OpGetAllCaseIDs, []string{"A"})
	var n int
	assert.Error(t, unpack(domain.OpGetAllCaseIDs, data, &n))
}
