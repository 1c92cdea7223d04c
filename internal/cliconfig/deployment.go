package cliconfig

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/caseledger/internal/domain"
)

// Deployment is the YAML manifest naming the deployed contract addresses.
//
//	chain_id: 31337
//	contracts:
//	  CaseRegistry: "0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9"
type Deployment struct {
	ChainID   uint64            `yaml:"chain_id"`
	Contracts map[string]string `yaml:"contracts"`
}

// LoadDeployment reads the manifest at path.
func LoadDeployment(path string) (Deployment, error) {
	var d Deployment
	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parse deployment %s: %w", path, err)
	}
	return d, nil
}

// AddressBook overlays the manifest onto the default devnet addresses.
func (d Deployment) AddressBook() (domain.AddressBook, error) {
	book := domain.DefaultAddressBook()
	for name, hex := range d.Contracts {
		c := domain.Contract(name)
		if _, ok := book[c]; !ok {
			return nil, fmt.Errorf("deployment: unknown contract %q", name)
		}
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("deployment: %s address %q is not a hex address", name, hex)
		}
		book[c] = common.HexToAddress(hex)
	}
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("deployment: %w", err)
	}
	return book, nil
}

// ResolveAddressBook loads the manifest named by cfg, or returns the
// defaults when none is configured.
func ResolveAddressBook(cfg Config) (domain.AddressBook, error) {
	if cfg.DeploymentFile == "" {
		return domain.DefaultAddressBook(), nil
	}
	d, err := LoadDeployment(cfg.DeploymentFile)
	if err != nil {
		return nil, err
	}
	return d.AddressBook()
}
