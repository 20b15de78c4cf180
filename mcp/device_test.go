package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &Config{
		ClientID:  "client",
		TenantID:  "organizations",
		RecordURL: "mem://localhost/outlook-mcp/" + t.Name() + "/auth_record.json",
	}
	if err := cfg.Init(context.Background()); err != nil {
		t.Fatalf("config init: %v", err)
	}
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func Test_DeviceHandler(t *testing.T) {
	svc := newTestService(t)
	pend := svc.BeginPending(context.Background(), "11111111-1111-1111-1111-111111111111")
	pend.SetMessage("To sign in, open https://microsoft.com/devicelogin and enter the code ABCD-1234 to authenticate.")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/outlook/auth/device/"+pend.UUID, nil)
	svc.DeviceHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ABCD-1234") {
		t.Fatalf("device page must show the code, got: %s", body)
	}
	if !strings.Contains(body, "https://microsoft.com/devicelogin") {
		t.Fatalf("device page must link the login URL, got: %s", body)
	}

	rec = httptest.NewRecorder()
	svc.DeviceHandler()(rec, httptest.NewRequest(http.MethodGet, "/outlook/auth/device/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown uuid: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc.DeviceHandler()(rec, httptest.NewRequest(http.MethodGet, "/outlook/auth/device/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short path: status = %d", rec.Code)
	}
}

func Test_Service_SettledFlightResolvesPendingLogins(t *testing.T) {
	svc := newTestService(t)
	pend := svc.BeginPending(context.Background(), "flight-1")

	svc.finishPending(nil)
	if list := svc.Pending().ListNamespace("default"); len(list) != 0 {
		t.Fatalf("settled flight must clear pending logins, got %v", list)
	}
	select {
	case <-pend.done:
	default:
		t.Fatal("settled flight must signal the login page waiter")
	}
}

func Test_PendingHandlers(t *testing.T) {
	svc := newTestService(t)
	svc.BeginPending(context.Background(), "pending-1")

	rec := httptest.NewRecorder()
	svc.PendingListHandler()(rec, httptest.NewRequest(http.MethodGet, "/outlook/auth/pending?namespace=default", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var rows []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("list body: %v", err)
	}
	if len(rows) != 1 || rows[0]["uuid"] != "pending-1" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	rec = httptest.NewRecorder()
	svc.PendingListHandler()(rec, httptest.NewRequest(http.MethodPost, "/outlook/auth/pending?namespace=default", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("list wrong method: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc.PendingClearHandler()(rec, httptest.NewRequest(http.MethodPost, "/outlook/auth/pending/clear?namespace=default", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	var cleared map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("clear body: %v", err)
	}
	if cleared["cleared"] != float64(1) {
		t.Fatalf("unexpected clear result: %v", cleared)
	}
	if list := svc.Pending().ListNamespace("default"); len(list) != 0 {
		t.Fatalf("pending not cleared: %v", list)
	}
}

func Test_ExtractDevicePrompt(t *testing.T) {
	msg := "To sign in, use a web browser to open the page https://microsoft.com/devicelogin and enter the code XYZ-789 to authenticate."
	if got := extractURL(msg); got != "https://microsoft.com/devicelogin" {
		t.Fatalf("url = %q", got)
	}
	if got := extractCode(msg); got != "XYZ-789" {
		t.Fatalf("code = %q", got)
	}
	if got := extractURL("no links here"); got != "https://microsoft.com/devicelogin" {
		t.Fatalf("fallback url = %q", got)
	}
	if got := extractCode("nothing to enter"); got != "" {
		t.Fatalf("missing code = %q", got)
	}
}
