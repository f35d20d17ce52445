package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
)

const webhookSecret = "test-secret"

func setupWebhookEnv(t *testing.T) (*PaymentWebhookHandler, *testEnv, *model.Contract) {
	t.Helper()

	env := setupContractEnv(t)
	contract := env.createDraft(t)

	ctx := context.Background()
	biz := lifecycle.Caller{UserID: "biz-1", Role: model.RoleBusiness}
	stu := lifecycle.Caller{UserID: "stu-1", Role: model.RoleStudent}
	if _, err := env.lc.SubmitForReview(ctx, biz, contract.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := env.lc.Accept(ctx, stu, contract.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	payments := service.NewPaymentService(&config.PaymentConfig{WebhookSecret: webhookSecret})
	return NewPaymentWebhookHandler(payments, env.lc), env, contract
}

func signedPayload(t *testing.T, content service.WebhookContent) service.WebhookPayload {
	t.Helper()
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("failed to marshal content: %v", err)
	}
	hash := sha256.Sum256(append(data, []byte(webhookSecret)...))
	return service.WebhookPayload{
		Checksum: hex.EncodeToString(hash[:]),
		Content:  string(data),
	}
}

func postWebhook(t *testing.T, h *PaymentWebhookHandler, payload service.WebhookPayload) *httptest.ResponseRecorder {
	t.Helper()
	router := routeAs("", "", "POST", "/payments/webhook", h.HandleWebhook)
	return doJSON(t, router, "POST", "/payments/webhook", payload)
}

func TestWebhookAppliesPayment(t *testing.T) {
	h, env, contract := setupWebhookEnv(t)

	payload := signedPayload(t, service.WebhookContent{
		Reference:  "pay-wh-1",
		ContractID: contract.ID,
		BusinessID: "biz-1",
		State:      "succeeded",
	})

	w := postWebhook(t, h, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	updated, err := env.store.Get(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if updated.PaymentStatus != model.PaymentPaid {
		t.Errorf("expected paid after confirmation, got %s", updated.PaymentStatus)
	}
}

func TestWebhookReplayIsAcknowledged(t *testing.T) {
	h, _, contract := setupWebhookEnv(t)

	payload := signedPayload(t, service.WebhookContent{
		Reference:  "pay-wh-1",
		ContractID: contract.ID,
		BusinessID: "biz-1",
		State:      "succeeded",
	})

	if w := postWebhook(t, h, payload); w.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", w.Code)
	}
	// The gateway retries deliveries; a replay must still get a 200
	w := postWebhook(t, h, payload)
	if w.Code != http.StatusOK {
		t.Errorf("replay: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["message"] != "Already applied" {
		t.Errorf("expected replay acknowledgement, got %q", response["message"])
	}
}

func TestWebhookRejectsBadChecksum(t *testing.T) {
	h, env, contract := setupWebhookEnv(t)

	content, _ := json.Marshal(service.WebhookContent{
		Reference:  "pay-forged",
		ContractID: contract.ID,
		BusinessID: "biz-1",
		State:      "succeeded",
	})
	payload := service.WebhookPayload{Checksum: "deadbeef", Content: string(content)}

	w := postWebhook(t, h, payload)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad checksum, got %d", w.Code)
	}

	updated, err := env.store.Get(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if updated.PaymentStatus != model.PaymentPending {
		t.Errorf("forged webhook must not apply payment, got %s", updated.PaymentStatus)
	}
}

func TestWebhookFailedStateIsAcknowledged(t *testing.T) {
	h, env, contract := setupWebhookEnv(t)

	payload := signedPayload(t, service.WebhookContent{
		Reference:  "pay-failed",
		ContractID: contract.ID,
		BusinessID: "biz-1",
		State:      "failed",
		ErrorMsg:   "card declined",
	})

	w := postWebhook(t, h, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for failed state, got %d", w.Code)
	}

	updated, err := env.store.Get(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if updated.PaymentStatus != model.PaymentPending {
		t.Errorf("failed payment must not change status, got %s", updated.PaymentStatus)
	}
}
