package plutus

// Void is the unit value, Constr 0 [].
func Void() Data {
	return NewConstr(0)
}

// Orders mint policy redeemer constructors.
const (
	ordersMintMintOrder     = 0
	ordersMintExecuteOrders = 1
)

// Orders spend validator redeemer constructors.
const (
	ordersSpendExecuteOrders = 0
	ordersSpendCancelOrder   = 1
)

// OrdersMintExecuteOrders is the orders-mint redeemer used when a batch of
// orders is fulfilled and its order tokens are burned.
func OrdersMintExecuteOrders() Data {
	return NewConstr(ordersMintExecuteOrders)
}

// OrdersMintMintOrder is the orders-mint redeemer used when a new order
// token is created.
func OrdersMintMintOrder() Data {
	return NewConstr(ordersMintMintOrder)
}

// OrdersSpendExecuteOrders is the orders-spend redeemer used to consume an
// order input during batch fulfillment.
func OrdersSpendExecuteOrders() Data {
	return NewConstr(ordersSpendExecuteOrders)
}

// OrdersSpendCancelOrder is the orders-spend redeemer used by the owner to
// reclaim an order.
func OrdersSpendCancelOrder() Data {
	return NewConstr(ordersSpendCancelOrder)
}

// Minting data spend redeemer constructors.
const (
	mintingDataMint = 0
)

// MintingDataMint is the redeemer used to spend the minting-data input when
// a batch of names is registered. It lists the raw names in processing order.
func MintingDataMint(names []string) Data {
	items := make(List, 0, len(names))
	for _, n := range names {
		items = append(items, Bytes(n))
	}
	return NewConstr(mintingDataMint, items)
}
