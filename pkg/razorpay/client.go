package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

const currencyINR = "INR"

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// orderCreator matches the slice of the Razorpay SDK used here so tests can
// substitute the outbound call.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK with centralized auth, logging, signature
// checks, and error mapping.
type Client struct {
	orders        orderCreator
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	sdk := razorpay.NewClient(keyID, keySecret)

	return &Client{
		orders:        sdk.Order,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}, nil
}

// GatewayOrder is the gateway-side payment intent for a local order.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
}

// CreateOrderInput captures the fields sent when opening a payment intent.
type CreateOrderInput struct {
	AmountPaise int64
	Receipt     string
	Notes       map[string]string
}

// CreateOrder opens a gateway order for the given amount in paise.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*GatewayOrder, error) {
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	notes := map[string]interface{}{}
	for k, v := range input.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   input.AmountPaise,
		"currency": currencyINR,
		"receipt":  input.Receipt,
		"notes":    notes,
	}

	body, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create razorpay order")
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay order response missing id")
	}

	order := &GatewayOrder{
		ID:          id,
		AmountPaise: input.AmountPaise,
		Currency:    currencyINR,
		Receipt:     input.Receipt,
	}

	if c.logger != nil {
		logCtx := c.logger.WithFields(ctx, map[string]any{
			"gateway_order_id": id,
			"amount_paise":     input.AmountPaise,
		})
		c.logger.Info(logCtx, "razorpay order created")
	}
	return order, nil
}

// VerifyPaymentSignature checks the client-submitted checkout signature:
// HMAC-SHA256 over "<gatewayOrderID>|<paymentID>" with the key secret.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	payload := fmt.Sprintf("%s|%s", gatewayOrderID, paymentID)
	return verifyHMAC([]byte(payload), c.keySecret, signature)
}

// VerifyWebhookSignature checks the header signature against the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, header string) bool {
	return verifyHMAC(body, c.webhookSecret, header)
}

// KeyID exposes the public key id consumed by checkout clients.
func (c *Client) KeyID() string {
	return c.keyID
}

func verifyHMAC(payload []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
