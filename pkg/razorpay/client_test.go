package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

type stubOrders struct {
	response map[string]interface{}
	err      error
	lastData map[string]interface{}
}

func (s *stubOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	s.lastData = data
	return s.response, s.err
}

func newTestClient(t *testing.T, orders orderCreator) *Client {
	t.Helper()
	client, err := NewClient(config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "rzp_test_secret",
		WebhookSecret: "whsec",
	}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	if orders != nil {
		client.orders = orders
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})

	_, err := NewClient(config.RazorpayConfig{KeySecret: "s", WebhookSecret: "w"}, logg)
	assert.ErrorIs(t, err, errKeyIDRequired)

	_, err = NewClient(config.RazorpayConfig{KeyID: "k", WebhookSecret: "w"}, logg)
	assert.ErrorIs(t, err, errKeySecretRequired)

	_, err = NewClient(config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, logg)
	assert.ErrorIs(t, err, errWebhookSecretRequired)
}

func TestCreateOrder(t *testing.T) {
	stub := &stubOrders{response: map[string]interface{}{"id": "order_abc123"}}
	client := newTestClient(t, stub)

	order, err := client.CreateOrder(context.Background(), CreateOrderInput{
		AmountPaise: 118000,
		Receipt:     "ORD-20250101-0042",
		Notes:       map[string]string{"orderId": "local-id"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc123", order.ID)
	assert.Equal(t, int64(118000), order.AmountPaise)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, int64(118000), stub.lastData["amount"])

	notes, ok := stub.lastData["notes"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "local-id", notes["orderId"])
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, &stubOrders{})

	_, err := client.CreateOrder(context.Background(), CreateOrderInput{AmountPaise: 0})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateOrderMapsGatewayFailure(t *testing.T) {
	client := newTestClient(t, &stubOrders{err: errors.New("503 from gateway")})

	_, err := client.CreateOrder(context.Background(), CreateOrderInput{AmountPaise: 100})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := newTestClient(t, nil)

	mac := hmac.New(sha256.New, []byte("rzp_test_secret"))
	mac.Write([]byte("order_abc|pay_def"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyPaymentSignature("order_abc", "pay_def", valid))
	assert.False(t, client.VerifyPaymentSignature("order_abc", "pay_def", valid+"00"))
	assert.False(t, client.VerifyPaymentSignature("order_abc", "pay_other", valid))
	assert.False(t, client.VerifyPaymentSignature("", "pay_def", valid))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestClient(t, nil)
	body := []byte(`{"event":"payment.captured"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(body, valid))
	assert.False(t, client.VerifyWebhookSignature([]byte(`{}`), valid))
	assert.False(t, client.VerifyWebhookSignature(body, ""))
}
