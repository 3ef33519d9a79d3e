package finance

import "errors"

// ErrZeroInvestment guards the ROI division: a zero initial investment
// would otherwise yield an infinite or undefined percentage.
var ErrZeroInvestment = errors.New("finance: initial investment is zero")

// Costs holds the annual cost figures for one ROI calculation. Negative
// values are allowed and simply propagate through the arithmetic.
type Costs struct {
	InitialInvestment float64 `json:"initial_investment"`
	MaintenanceCosts  float64 `json:"maintenance_costs"`
	FuelSavings       float64 `json:"fuel_savings"`
	ChargingCosts     float64 `json:"charging_costs"`
}

// ROI computes return on investment as a percentage of the initial outlay:
//
//	net_savings = fuel_savings - charging_costs
//	net_profit  = net_savings - maintenance_costs
//	roi_percent = net_profit / initial_investment * 100
func ROI(c Costs) (float64, error) {
	if c.InitialInvestment == 0 {
		return 0, ErrZeroInvestment
	}
	netSavings := c.FuelSavings - c.ChargingCosts
	netProfit := netSavings - c.MaintenanceCosts
	return netProfit / c.InitialInvestment * 100, nil
}
