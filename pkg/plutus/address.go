package plutus

import (
	"fmt"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

func credentialToData(c types.Credential) Data {
	var idx uint64
	if c.Script {
		idx = 1
	}
	return NewConstr(idx, Bytes(c.Hash[:]))
}

func credentialFromData(d Data) (types.Credential, error) {
	c, ok := d.(Constr)
	if !ok || c.Index > 1 || len(c.Fields) != 1 {
		return types.Credential{}, fmt.Errorf("invalid credential")
	}
	b, err := AsBytes(c.Fields[0])
	if err != nil {
		return types.Credential{}, fmt.Errorf("credential hash: %w", err)
	}
	if len(b) != types.ScriptHashSize {
		return types.Credential{}, fmt.Errorf("credential hash must be %d bytes, got %d", types.ScriptHashSize, len(b))
	}
	cred := types.Credential{Script: c.Index == 1}
	copy(cred.Hash[:], b)
	return cred, nil
}

// AddressToData encodes an address the way validators see it:
// Address { payment_credential, stake_credential: Option<Inline(cred)> }.
func AddressToData(a types.Address) Data {
	stake := NewConstr(1)
	if a.Stake != nil {
		stake = NewConstr(0, NewConstr(0, credentialToData(*a.Stake)))
	}
	return NewConstr(0, credentialToData(a.Payment), stake)
}

// AddressFromData decodes an on-chain address. The network is not part of
// the on-chain form, so it has to be supplied.
func AddressFromData(d Data, network types.Network) (types.Address, error) {
	c, err := AsConstr(d, 0, 2)
	if err != nil {
		return types.Address{}, fmt.Errorf("address: %w", err)
	}
	payment, err := credentialFromData(c.Fields[0])
	if err != nil {
		return types.Address{}, fmt.Errorf("address payment: %w", err)
	}
	addr := types.Address{NetworkID: network.ID(), Payment: payment}

	opt, ok := c.Fields[1].(Constr)
	if !ok {
		return types.Address{}, fmt.Errorf("address stake: expected option")
	}
	switch opt.Index {
	case 1:
		return addr, nil
	case 0:
		if len(opt.Fields) != 1 {
			return types.Address{}, fmt.Errorf("address stake: malformed Some")
		}
		inline, err := AsConstr(opt.Fields[0], 0, 1)
		if err != nil {
			return types.Address{}, fmt.Errorf("address stake: only inline credentials are supported: %w", err)
		}
		stake, err := credentialFromData(inline.Fields[0])
		if err != nil {
			return types.Address{}, fmt.Errorf("address stake: %w", err)
		}
		addr.Stake = &stake
		return addr, nil
	default:
		return types.Address{}, fmt.Errorf("address stake: bad option index %d", opt.Index)
	}
}
