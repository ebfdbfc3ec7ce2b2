package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/shopkartlabs/shopkart-backend/api/responses"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

// WebhookProcessor consumes a raw webhook body plus its signature header.
type WebhookProcessor interface {
	Process(ctx context.Context, body []byte, signature string) error
}

func RazorpayWebhook(processor WebhookProcessor, logg *logger.Logger) http.HandlerFunc {
	return webhookHandler(processor, "X-Razorpay-Signature", logg)
}

func IdentityWebhook(processor WebhookProcessor, logg *logger.Logger) http.HandlerFunc {
	return webhookHandler(processor, "X-Webhook-Signature", logg)
}

func webhookHandler(processor WebhookProcessor, signatureHeader string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable webhook body"))
			return
		}

		if err := processor.Process(r.Context(), body, r.Header.Get(signatureHeader)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
