package arbitration

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/domain/entities"
)

// Transmutation buys the unmet part of a request from a money account when
// the request allows it
type Transmutation struct {
	// Account is the bank account paying for the purchase
	Account string
	// Prices is the cost per unit of each purchasable resource
	Prices map[string]decimal.Decimal
}

func (c Config) transmute(req *entities.ResourceRequest) error {
	t := c.Transmutation
	if t == nil || !req.AllowTransmutation || req.Satisfied() {
		return nil
	}
	price, ok := t.Prices[req.ResourceTypeName]
	if !ok || !price.IsPositive() {
		return nil
	}
	account, err := c.Registry.Resolve(t.Account, c.OnMissing)
	if err != nil {
		return entities.NewConfigurationError(req.ActivityName, t.Account, err.Error())
	}
	if account == nil {
		return nil
	}

	short := req.Shortfall()
	cost := entities.MoneyToFloat(price.Mul(decimal.NewFromFloat(short)).Round(2))
	payment, err := entities.NewResourceRequest(t.Account, cost, req.ActivityID, req.ActivityName, "Purchase "+req.ResourceTypeName)
	if err != nil {
		return err
	}
	paid := account.Remove(payment, cost)
	if paid <= 0 {
		return nil
	}
	bought := short
	if paid < cost {
		bought = decimal.NewFromFloat(paid).Div(price).InexactFloat64()
	}

	c.logger().Debug("shortfall purchased",
		"activity", req.ActivityName,
		"resource", req.ResourceTypeName,
		"amount", bought,
		"cost", paid)
	req.Provide(req.Available+bought, req.Provided+bought)
	return nil
}
