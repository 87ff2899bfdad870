package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ALTER-2357/bank-app-thing/internal/app"
	"github.com/ALTER-2357/bank-app-thing/internal/domain"
	"github.com/ALTER-2357/bank-app-thing/internal/store"
	"github.com/ALTER-2357/bank-app-thing/pkg/bankclient"
)

type accountClientStub struct {
	fetch func(ctx context.Context, pan string) (*bankclient.UserDetails, error)
}

func (s *accountClientStub) GetUserDetails(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
	return s.fetch(ctx, pan)
}

type directoryStub struct {
	byEmail  func(ctx context.Context, email string) (*bankclient.UserDetails, error)
	register func(ctx context.Context, reg bankclient.Registration) (string, error)
}

func (s *directoryStub) GetUserDetailsByEmail(ctx context.Context, email string) (*bankclient.UserDetails, error) {
	return s.byEmail(ctx, email)
}

func (s *directoryStub) Register(ctx context.Context, reg bankclient.Registration) (string, error) {
	return s.register(ctx, reg)
}

func testDetails(pan string) *bankclient.UserDetails {
	return &bankclient.UserDetails{
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@example.com",
		Balance:        "42.50",
		OverdraftTotal: "100.00",
		PAN:            pan,
		Status:         "open",
	}
}

func newTestHandler(t *testing.T, client app.AccountClient, directory DirectoryClient) (*Handler, *app.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions, err := store.NewFileSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating session store failed: %v", err)
	}
	cache, err := store.NewFileAccountCache(t.TempDir())
	if err != nil {
		t.Fatalf("creating account cache failed: %v", err)
	}

	manager := app.NewManager(sessions, cache, client, logger)
	if err := manager.Restore(); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	return NewHandler(manager, directory, logger), manager
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()

	switch {
	case method == http.MethodGet && target == "/session":
		h.handleGetSession(rec, req)
	case method == http.MethodGet && target == "/account":
		h.handleGetAccount(rec, req)
	case method == http.MethodGet && target == "/events":
		h.handleGetEvents(rec, req)
	case target == "/session/login":
		h.handleLogin(rec, req)
	case target == "/session/register":
		h.handleRegister(rec, req)
	case target == "/session/refresh":
		h.handleRefresh(rec, req)
	case target == "/session/logout":
		h.handleLogout(rec, req)
	}
	return rec
}

func TestGetSessionUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t,
		&accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
			return testDetails(pan), nil
		}},
		&directoryStub{},
	)

	rec := serve(handler, http.MethodGet, "/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if payload.IsAuthenticated || payload.PAN != "" {
		t.Fatalf("expected unauthenticated payload, got %+v", payload)
	}
}

func TestLoginEstablishesSessionAndCachesSnapshot(t *testing.T) {
	client := &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}
	directory := &directoryStub{byEmail: func(ctx context.Context, email string) (*bankclient.UserDetails, error) {
		if email != "jane@example.com" {
			t.Fatalf("unexpected email %q", email)
		}
		return testDetails("1000000123"), nil
	}}
	handler, manager := newTestHandler(t, client, directory)

	rec := serve(handler, http.MethodPost, "/session/login", `{"email":"jane@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	session := manager.CurrentSession()
	if session.PAN != "1000000123" {
		t.Fatalf("expected established session, got %+v", session)
	}

	accountRec := serve(handler, http.MethodGet, "/account", "")
	if accountRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /account, got %d", accountRec.Code)
	}
	if !strings.Contains(accountRec.Body.String(), `"Jane"`) {
		t.Fatalf("expected snapshot in response, got %s", accountRec.Body.String())
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler, _ := newTestHandler(t,
		&accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
			return testDetails(pan), nil
		}},
		&directoryStub{byEmail: func(ctx context.Context, email string) (*bankclient.UserDetails, error) {
			return nil, &domain.ServerError{StatusCode: http.StatusNotFound, Body: "no such user"}
		}},
	)

	rec := serve(handler, http.MethodPost, "/session/login", `{"email":"nobody@example.com"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLoginRequiresEmail(t *testing.T) {
	handler, _ := newTestHandler(t, &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}, &directoryStub{})

	rec := serve(handler, http.MethodPost, "/session/login", `{"email":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterEstablishesSession(t *testing.T) {
	client := &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}
	directory := &directoryStub{register: func(ctx context.Context, reg bankclient.Registration) (string, error) {
		if reg.FirstName != "Jane" || reg.MobileNumber != "07123456789" {
			t.Fatalf("unexpected registration payload %+v", reg)
		}
		return "2000000456", nil
	}}
	handler, manager := newTestHandler(t, client, directory)

	body := `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","address":"1 High Street","mobile_number":"07123456789"}`
	rec := serve(handler, http.MethodPost, "/session/register", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if manager.CurrentSession().PAN != "2000000456" {
		t.Fatalf("expected session for new PAN, got %+v", manager.CurrentSession())
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	handler, _ := newTestHandler(t, &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}, &directoryStub{})

	rec := serve(handler, http.MethodPost, "/session/refresh", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshSurfacesErrorAlongsideStaleSnapshot(t *testing.T) {
	failing := false
	client := &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		if failing {
			return nil, &domain.NetworkError{Err: errors.New("connection refused")}
		}
		return testDetails(pan), nil
	}}
	handler, manager := newTestHandler(t, client, &directoryStub{})

	if err := manager.EstablishSession(context.Background(), "1000000123"); err != nil {
		t.Fatalf("EstablishSession returned error: %v", err)
	}

	failing = true
	rec := serve(handler, http.MethodPost, "/session/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with warning, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "refresh_error") {
		t.Fatalf("expected refresh_error in payload, got %s", body)
	}
	if !strings.Contains(body, `"Jane"`) {
		t.Fatalf("expected stale snapshot served alongside the warning, got %s", body)
	}
	if !manager.CurrentSession().IsAuthenticated() {
		t.Fatal("refresh failure must not drop the session")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	client := &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}
	handler, manager := newTestHandler(t, client, &directoryStub{})

	if err := manager.EstablishSession(context.Background(), "1000000123"); err != nil {
		t.Fatalf("EstablishSession returned error: %v", err)
	}

	rec := serve(handler, http.MethodPost, "/session/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if manager.CurrentSession().IsAuthenticated() {
		t.Fatal("expected unauthenticated session after logout")
	}

	accountRec := serve(handler, http.MethodGet, "/account", "")
	if accountRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 from /account after logout, got %d", accountRec.Code)
	}
}

func TestEventsExposeCommittedTransitions(t *testing.T) {
	client := &accountClientStub{fetch: func(ctx context.Context, pan string) (*bankclient.UserDetails, error) {
		return testDetails(pan), nil
	}}
	handler, manager := newTestHandler(t, client, &directoryStub{})

	if err := manager.EstablishSession(context.Background(), "1000000123"); err != nil {
		t.Fatalf("EstablishSession returned error: %v", err)
	}

	rec := serve(handler, http.MethodGet, "/events", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, string(domain.EventSessionEstablished)) {
		t.Fatalf("expected session_established event listed, got %s", body)
	}
	if !strings.Contains(body, string(domain.EventSnapshotUpdated)) {
		t.Fatalf("expected snapshot_updated event listed, got %s", body)
	}
}
