package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coursely/coursely-api/internal/domain/course"
	"github.com/coursely/coursely-api/internal/pkg/gateway"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

const testGatewaySecret = "test-gateway-secret"

func newConfirmFixture(t *testing.T) (*Handler, *Purchase, *fakeGranter) {
	t.Helper()

	store := newFakePurchaseStore()
	courses := &fakeCourses{course: &course.Course{ID: uuid.New(), Price: 100000, IsActive: true}}
	granter := &fakeGranter{}
	svc := NewService(store, courses, granter)
	h := NewHandler(svc, validator.New(), testGatewaySecret)

	p := beginTestPurchase(t, svc, courses.course.ID, "FRIEND01")
	return h, p, granter
}

func postConfirm(t *testing.T, h *Handler, urlID string, conf *gateway.Confirmation) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(conf)
	req := httptest.NewRequest(http.MethodPost, "/"+urlID+"/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", urlID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.Confirm(rr, req)
	return rr
}

func signedConfirmation(p *Purchase, amount int64) *gateway.Confirmation {
	c := &gateway.Confirmation{
		PurchaseID:       p.ID.String(),
		GatewayPaymentID: "pay_123",
		Amount:           amount,
	}
	c.Signature = gateway.Sign(c.PurchaseID, c.GatewayPaymentID, c.Amount, testGatewaySecret)
	return c
}

func TestConfirmHandlerAcceptsSignedCallback(t *testing.T) {
	h, p, granter := newConfirmFixture(t)

	rr := postConfirm(t, h, p.ID.String(), signedConfirmation(p, 100000))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(granter.calls) != 1 {
		t.Fatalf("expected 1 grant call, got %d", len(granter.calls))
	}
}

func TestConfirmHandlerRejectsBadSignature(t *testing.T) {
	h, p, granter := newConfirmFixture(t)

	conf := signedConfirmation(p, 100000)
	conf.Signature = "deadbeef"

	rr := postConfirm(t, h, p.ID.String(), conf)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(granter.calls) != 0 {
		t.Fatal("unsigned callback must not reach the service")
	}
}

func TestConfirmHandlerRejectsIDMismatch(t *testing.T) {
	h, p, _ := newConfirmFixture(t)

	rr := postConfirm(t, h, uuid.New().String(), signedConfirmation(p, 100000))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestConfirmHandlerAmountMismatch(t *testing.T) {
	h, p, _ := newConfirmFixture(t)

	rr := postConfirm(t, h, p.ID.String(), signedConfirmation(p, 1))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestConfirmHandlerUnknownPurchase(t *testing.T) {
	h, _, _ := newConfirmFixture(t)

	ghost := &Purchase{ID: uuid.New()}
	rr := postConfirm(t, h, ghost.ID.String(), signedConfirmation(ghost, 100000))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
