package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/gateway"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/rs/zerolog"
)

type stubPaymentSettler struct {
	result    *models.SessionDetail
	err       error
	calls     int
	lastInput services.SettlePaymentInput
}

func (s *stubPaymentSettler) SettlePayment(_ context.Context, input services.SettlePaymentInput) (*models.SessionDetail, error) {
	s.calls++
	s.lastInput = input
	return s.result, s.err
}

func testGatewaySigner() *gateway.Signer {
	return gateway.NewSigner(gateway.Config{MerchantID: "1211149", MerchantSecret: "s3cret", Currency: "LKR"})
}

func notificationForm(signer *gateway.Signer, orderID, amount string, status int, tamper bool) url.Values {
	n := gateway.Notification{
		MerchantID: "1211149",
		OrderID:    orderID,
		PaymentID:  "320025071278",
		Amount:     amount,
		Currency:   "LKR",
		StatusCode: status,
	}
	sig := signer.NotificationHash(n)
	if tamper {
		sig = strings.Repeat("0", len(sig))
	}
	return url.Values{
		"merchant_id":      {n.MerchantID},
		"order_id":         {n.OrderID},
		"payment_id":       {n.PaymentID},
		"payhere_amount":   {n.Amount},
		"payhere_currency": {n.Currency},
		"status_code":      {strconv.Itoa(n.StatusCode)},
		"md5sig":           {sig},
	}
}

func postNotification(t *testing.T, service *stubPaymentSettler, form url.Values) *http.Response {
	t.Helper()

	signer := testGatewaySigner()
	handler := &PaymentHandler{service: service, verifier: signer, logger: zerolog.Nop()}
	app := fiber.New()
	app.Post("/api/payments/notify", handler.Notify)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNotifySettlesVerifiedPayment(t *testing.T) {
	service := &stubPaymentSettler{result: testDetail(42, models.SessionStatusReserved)}

	resp := postNotification(t, service, notificationForm(testGatewaySigner(), "42", "1000.00", gateway.StatusSuccess, false))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastInput.SessionID != 42 || service.lastInput.ExternalPaymentID != "320025071278" {
		t.Fatalf("unexpected settle input %+v", service.lastInput)
	}
	if service.lastInput.GrossAmount.StringFixed(2) != "1000.00" {
		t.Fatalf("expected gross 1000.00, got %s", service.lastInput.GrossAmount)
	}
}

func TestNotifyRejectsBadSignature(t *testing.T) {
	service := &stubPaymentSettler{}

	resp := postNotification(t, service, notificationForm(testGatewaySigner(), "42", "1000.00", gateway.StatusSuccess, true))

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if service.calls != 0 {
		t.Fatalf("expected no settlement")
	}
}

func TestNotifyIgnoresNonSuccessStatus(t *testing.T) {
	service := &stubPaymentSettler{}

	for _, status := range []int{0, -1, -2, -3} {
		resp := postNotification(t, service, notificationForm(testGatewaySigner(), "42", "1000.00", status, false))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: expected 200, got %d", status, resp.StatusCode)
		}
	}
	if service.calls != 0 {
		t.Fatalf("expected no settlement for non-success notifications")
	}
}

func TestNotifyRejectsNonNumericOrder(t *testing.T) {
	service := &stubPaymentSettler{}

	resp := postNotification(t, service, notificationForm(testGatewaySigner(), "order-42", "1000.00", gateway.StatusSuccess, false))

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNotifyMapsSettlementErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: services.ErrSessionNotFound, want: http.StatusNotFound},
		{err: services.ErrAlreadySettled, want: http.StatusConflict},
		{err: services.ErrAmountMismatch, want: http.StatusBadRequest},
		{err: services.ErrInvalidStateTransition, want: http.StatusUnprocessableEntity},
		{err: errors.New("db down"), want: http.StatusInternalServerError},
		{
			err:  &services.NotificationError{Recipients: []string{"c@example.com"}, Err: errors.New("smtp")},
			want: http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			service := &stubPaymentSettler{result: testDetail(42, models.SessionStatusReserved), err: tc.err}
			resp := postNotification(t, service, notificationForm(testGatewaySigner(), "42", "1000.00", gateway.StatusSuccess, false))
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestNotifyRefusesWhenMerchantCredentialsMissing(t *testing.T) {
	service := &stubPaymentSettler{}
	unconfigured := gateway.NewSigner(gateway.Config{Currency: "LKR"})
	handler := &PaymentHandler{service: service, verifier: unconfigured, logger: zerolog.Nop()}
	app := fiber.New()
	app.Post("/api/payments/notify", handler.Notify)

	form := notificationForm(unconfigured, "42", "0.01", gateway.StatusSuccess, false)
	form.Set("merchant_id", "")
	form.Set("md5sig", unconfigured.NotificationHash(gateway.Notification{
		OrderID:    "42",
		Amount:     "0.01",
		Currency:   "LKR",
		StatusCode: gateway.StatusSuccess,
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if service.calls != 0 {
		t.Fatalf("expected no settlement without merchant credentials")
	}
}
