package billing

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeCustomerResolver resolves customer emails through the Stripe API.
type StripeCustomerResolver struct {
	api *client.API
}

func NewStripeCustomerResolver(apiKey string) *StripeCustomerResolver {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeCustomerResolver{api: sc}
}

func (r *StripeCustomerResolver) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := r.api.Customers.Get(customerID, params)
	if err != nil {
		return "", err
	}
	return cust.Email, nil
}
