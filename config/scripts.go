package config

import (
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// ScriptDetails describes one deployed validator.
type ScriptDetails struct {
	// ValidatorHash is the script hash; as a minting policy it is the policy id.
	ValidatorHash types.ScriptHash `json:"validator_hash"`
	// RefScript is the UTxO holding the script as a reference script, if any.
	RefScript *types.Outpoint `json:"ref_script,omitempty"`
}

// PolicyID returns the script hash as a minting policy id.
func (s ScriptDetails) PolicyID() types.PolicyID {
	return types.PolicyID(s.ValidatorHash)
}

// Address returns the enterprise script address on network.
func (s ScriptDetails) Address(network types.Network) types.Address {
	return types.NewScriptAddress(network.ID(), s.ValidatorHash)
}

// Deployed reports whether the script hash has been configured.
func (s ScriptDetails) Deployed() bool {
	return !s.ValidatorHash.IsZero()
}

// DeployedScripts are the validators a fulfillment interacts with.
type DeployedScripts struct {
	// MintProxy is the minting policy of the handle tokens.
	MintProxy ScriptDetails `json:"mint_proxy"`
	// MintingData locks the output carrying the registry root.
	MintingData ScriptDetails `json:"minting_data"`
	// OrdersSpend locks order outputs.
	OrdersSpend ScriptDetails `json:"orders_spend"`
	// OrdersMint is the minting policy of order-proof tokens.
	OrdersMint ScriptDetails `json:"orders_mint"`
}

// RefScripts returns the reference script outpoints that are set.
func (d DeployedScripts) RefScripts() []types.Outpoint {
	var out []types.Outpoint
	for _, s := range []ScriptDetails{d.MintProxy, d.MintingData, d.OrdersSpend, d.OrdersMint} {
		if s.RefScript != nil {
			out = append(out, *s.RefScript)
		}
	}
	return out
}
