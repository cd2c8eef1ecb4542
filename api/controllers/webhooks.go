package controllers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/khiels/storefront-backend/api/responses"
	"github.com/khiels/storefront-backend/api/validators"
	"github.com/khiels/storefront-backend/internal/webhooks"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Payos-Signature"

// maxWebhookBody caps provider callbacks at 64 KiB.
const maxWebhookBody = 64 << 10

type signatureVerifier interface {
	VerifySignature(payload []byte, signature string) bool
}

// PayOSWebhook handles POST /webhooks/payos: verifies the provider
// signature over the raw body, then applies the payment event.
func PayOSWebhook(svc webhooks.PaymentService, verifier signatureVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		signature := r.Header.Get(webhookSignatureHeader)
		if signature == "" || !verifier.VerifySignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		// the body was consumed for signature verification; restore it
		// for the shared decoder
		r.Body = io.NopCloser(bytes.NewReader(payload))
		var event webhooks.PaymentEvent
		if err := validators.DecodeJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ApplyPaymentEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
