package types

import "fmt"

// Network names a ledger network.
type Network string

const (
	Mainnet Network = "mainnet"
	Preprod Network = "preprod"
	Preview Network = "preview"
)

// ParseNetwork validates a network name.
func ParseNetwork(s string) (Network, error) {
	switch n := Network(s); n {
	case Mainnet, Preprod, Preview:
		return n, nil
	default:
		return "", fmt.Errorf("unknown network %q (want mainnet, preprod or preview)", s)
	}
}

// ID returns the address network id for n.
func (n Network) ID() uint8 {
	if n == Mainnet {
		return MainnetID
	}
	return TestnetID
}

// String returns the network name.
func (n Network) String() string {
	return string(n)
}
