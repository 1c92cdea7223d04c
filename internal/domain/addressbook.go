package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBook maps each contract to its deployed address.
type AddressBook map[Contract]common.Address

// DefaultAddressBook returns the addresses of a fresh local devnet deployment.
func DefaultAddressBook() AddressBook {
	return AddressBook{
		ContractWitnessNFT:      common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ContractEvidenceManager: common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		ContractExpertDAO:       common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
		ContractPaymentSystem:   common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"),
		ContractCaseRegistry:    common.HexToAddress("0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9"),
	}
}

// Lookup returns the address of c.
func (b AddressBook) Lookup(c Contract) (common.Address, error) {
	addr, ok := b[c]
	if !ok || addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("no address for contract %s", c)
	}
	return addr, nil
}

// Validate checks that every known contract has a non-zero address.
func (b AddressBook) Validate() error {
	for _, c := range Contracts {
		if _, err := b.Lookup(c); err != nil {
			return err
		}
	}
	return nil
}
