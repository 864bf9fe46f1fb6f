package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"crm-backend/internal/config"
	"crm-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	svc := NewRazorpayService(config.RazorpayConfig{WebhookSecret: "whsec"}, nil, nil, nil)
	body := []byte(`{"event":"payment_link.paid"}`)

	assert.True(t, svc.VerifyWebhookSignature(body, sign("whsec", body)))
	assert.False(t, svc.VerifyWebhookSignature(body, sign("wrong", body)))
	assert.False(t, svc.VerifyWebhookSignature(body, ""))
	assert.False(t, svc.VerifyWebhookSignature([]byte("tampered"), sign("whsec", body)))
}

func TestVerifyWebhookSignatureFailsClosedWithoutSecret(t *testing.T) {
	svc := NewRazorpayService(config.RazorpayConfig{}, nil, nil, nil)
	body := []byte(`{}`)
	assert.False(t, svc.VerifyWebhookSignature(body, sign("", body)))
}

func TestCreatePaymentLinkRequiresCredentials(t *testing.T) {
	svc := NewRazorpayService(config.RazorpayConfig{}, nil, nil, nil)
	_, err := svc.CreatePaymentLink(context.Background(), 1, &models.CreatePaymentLinkRequest{DealID: 1})
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

func TestToPaiseRoundsExactCurrencyAmounts(t *testing.T) {
	tests := []struct {
		rupees float64
		want   int
	}{
		{8.20, 820}, // 8.2*100 is 819.999... in binary; truncation loses a paise
		{0.29, 29},
		{1234.56, 123456},
		{7000, 700000},
		{0.01, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, toPaise(tt.rupees), "%.2f rupees", tt.rupees)
	}
}

func TestHandleWebhookIgnoresUnrelatedEvents(t *testing.T) {
	svc := NewRazorpayService(config.RazorpayConfig{WebhookSecret: "whsec"}, nil, nil, nil)

	// No payment link in payload, nothing to do
	err := svc.HandleWebhook(context.Background(), []byte(`{"event":"order.paid","payload":{}}`))
	assert.NoError(t, err)

	err = svc.HandleWebhook(context.Background(), []byte(`not json`))
	assert.Error(t, err)
}
