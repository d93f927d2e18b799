package model

import "github.com/shopspring/decimal"

// CostScale is the canonical internal scale for stored costs. Division is the
// only operation that rounds; sums and products stay exact.
const CostScale = 6

// WeightedAverageCost blends the value already on hand with an incoming batch:
// (existingQty*existingCost + incomingQty*incomingCost) / (existingQty + incomingQty),
// rounded half-up to CostScale. A zero total quantity yields a zero cost.
func WeightedAverageCost(existingQty, existingCost, incomingQty, incomingCost decimal.Decimal) decimal.Decimal {
	totalQty := existingQty.Add(incomingQty)
	if totalQty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	totalValue := existingQty.Mul(existingCost).Add(incomingQty.Mul(incomingCost))
	return totalValue.DivRound(totalQty, CostScale)
}
