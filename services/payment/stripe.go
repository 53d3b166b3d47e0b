package payment

import (
	"context"
	"errors"
	"fmt"

	"sportivox/models"
	"sportivox/services/checkout"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway implements checkout.PaymentGateway with Stripe PaymentIntents.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway authenticated with the secret key.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.L()
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, logger: logger.Named("stripe")}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req checkout.IntentRequest) (*models.PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, checkout.ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey("intent-" + req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateError(err)
	}
	g.logger.Debug("payment intent created", zap.String("intentId", pi.ID), zap.Int64("amount", pi.Amount))
	return toIntent(pi), nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethod string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		if alreadySucceeded(err) {
			// A replayed intent that an earlier attempt already charged.
			current, gerr := g.GetIntent(ctx, intentID)
			if gerr == nil && current.Status == string(stripe.PaymentIntentStatusSucceeded) {
				g.logger.Info("payment intent already succeeded", zap.String("intentId", intentID))
				return current, nil
			}
		}
		return nil, translateError(err)
	}
	return toIntent(pi), nil
}

func alreadySucceeded(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Code == stripe.ErrorCodePaymentIntentUnexpectedState
}

// translateError turns Stripe card errors into checkout.CardDeclinedError.
func translateError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Code == stripe.ErrorCodeAmountTooSmall {
			return fmt.Errorf("%w: %s", checkout.ErrAmountTooSmall, se.Msg)
		}
		if se.Type == stripe.ErrorTypeCard {
			return &checkout.CardDeclinedError{
				Code:        string(se.Code),
				DeclineCode: string(se.DeclineCode),
				Message:     se.Msg,
			}
		}
		return fmt.Errorf("stripe %s (%d): %s: %w", se.Type, se.HTTPStatusCode, se.Msg, err)
	}
	return err
}

func toIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// GetIntent retrieves an intent, used to verify client-reported transactions.
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, translateError(err)
	}
	return toIntent(pi), nil
}
