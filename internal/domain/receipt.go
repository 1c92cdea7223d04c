package domain

import "github.com/ethereum/go-ethereum/common"

// Receipt status codes, matching the ledger's transaction receipt status.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// Receipt is the gateway's confirmation artifact for a finalized write.
type Receipt struct {
	TxHash      common.Hash    `json:"tx_hash"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	BlockNumber uint64         `json:"block_number"`
	GasUsed     uint64         `json:"gas_used"`
	Status      uint64         `json:"status"`
}

// Succeeded returns true if the remote execution did not revert.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == ReceiptStatusSuccessful
}
