package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/helpdesk-triage/internal/api/http"
	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/repository/memory"
	"github.com/spec-kit/helpdesk-triage/internal/routing"
	"github.com/spec-kit/helpdesk-triage/internal/service"
)

const intakeToken = "intake-secret"

type testServer struct {
	app        *fiber.App
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.NewStore()

	resolver, err := routing.Initialize(ctx, store.RoutingRules(), store.Teams(), routing.DefaultSeed(), logger)
	require.NoError(t, err)

	tickets := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Resolver:   resolver,
		Ledger:     service.NewHistoryLedger(store, 0),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}, store.Users())

	admin, err := authService.EnsureAdmin(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	adminToken, _, err := authService.TokenManager().GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-triage", "test", metrics, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Intake:         handlers.NewIntakeHandler(service.NewIntakeService(store, tickets)),
		Admin:          handlers.NewAdminHandler(tickets, service.NewAnalyticsService(store.Tickets(), nil)),
		Catalog:        handlers.NewCatalogHandler(service.NewCatalogService(resolver, store.Teams())),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		IntakeToken:    intakeToken,
	})
	return &testServer{app: app, adminToken: adminToken}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func bearer(token string) map[string]string {
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/auth/register", map[string]string{
		"name": "Jane", "email": email, "password": "long-enough-pw",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

type ticketBody struct {
	ID           string  `json:"id"`
	Reference    string  `json:"reference"`
	Source       string  `json:"source"`
	Status       string  `json:"status"`
	Category     string  `json:"category"`
	AssignedTeam *string `json:"assigned_team"`
	ResolvedAt   *string `json:"resolved_at"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, fiber.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, fiber.MethodGet, "/tickets", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	status, env := s.do(t, fiber.MethodGet, "/no-such-route", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/no-such-route", nil, bearer(token))
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/admin/no-such-route", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	status, env := s.do(t, fiber.MethodPost, "/tickets", map[string]string{
		"subject":     "VPN keeps dropping",
		"description": "Disconnects every hour",
		"category":    domain.CategoryNetwork,
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, status)
	var created ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, "chat", created.Source)
	require.NotNil(t, created.AssignedTeam)
	assert.Equal(t, "Network Team", *created.AssignedTeam)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, created.Reference)

	status, env = s.do(t, fiber.MethodGet, "/tickets", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var mine []ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)

	status, env = s.do(t, fiber.MethodPatch, "/tickets/"+created.ID+"/status", map[string]string{
		"status": "resolved", "notes": "rebooted concentrator",
	}, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var resolved ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "resolved", resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	status, _ = s.do(t, fiber.MethodPost, "/tickets/"+created.ID+"/notes", map[string]string{
		"notes": "root cause: flaky uplink",
	}, bearer(token))
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodGet, "/tickets/"+created.ID+"/history", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var history []struct {
		Action   string `json:"action"`
		UserName string `json:"user_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "notes_added", history[0].Action)
	assert.Equal(t, "status_changed", history[1].Action)
	assert.Equal(t, "created", history[2].Action)
	assert.Equal(t, "Jane", history[2].UserName)
}

func TestInvalidStatusIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	_, env := s.do(t, fiber.MethodPost, "/tickets", map[string]string{
		"subject": "Printer", "description": "Jammed",
	}, bearer(token))
	var created ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, env := s.do(t, fiber.MethodPatch, "/tickets/"+created.ID+"/status", map[string]string{
		"status": "archived",
	}, bearer(token))
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestTicketVisibleOnlyToOwnerAndAdmin(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com")
	stranger := s.register(t, "stranger@example.com")

	_, env := s.do(t, fiber.MethodPost, "/tickets", map[string]string{
		"subject": "Laptop", "description": "Screen flickers",
	}, bearer(owner))
	var created ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, _ := s.do(t, fiber.MethodGet, "/tickets/"+created.ID, nil, bearer(stranger))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, fiber.MethodGet, "/tickets/"+created.ID, nil, bearer(s.adminToken))
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodGet, "/tickets/does-not-exist", nil, bearer(owner))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	_, env := s.do(t, fiber.MethodPost, "/tickets", map[string]string{
		"subject": "Outlook", "description": "Calendar not syncing", "category": domain.CategoryEmail,
	}, bearer(token))
	var created ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, env := s.do(t, fiber.MethodGet, "/admin/analytics", nil, bearer(token))
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = s.do(t, fiber.MethodPatch, "/admin/tickets/"+created.ID+"/assignment", map[string]string{
		"assigned_team": "Application Team", "notes": "misrouted",
	}, bearer(s.adminToken))
	require.Equal(t, fiber.StatusOK, status)
	var reassigned ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &reassigned))
	assert.Equal(t, "assigned", reassigned.Status)
	require.NotNil(t, reassigned.AssignedTeam)
	assert.Equal(t, "Application Team", *reassigned.AssignedTeam)

	status, env = s.do(t, fiber.MethodGet, "/admin/tickets?team=Application%20Team", nil, bearer(s.adminToken))
	require.Equal(t, fiber.StatusOK, status)
	var listed []ticketBody
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	status, _ = s.do(t, fiber.MethodGet, "/admin/tickets?status=bogus", nil, bearer(s.adminToken))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = s.do(t, fiber.MethodGet, "/admin/analytics", nil, bearer(s.adminToken))
	require.Equal(t, fiber.StatusOK, status)
	var report struct {
		TotalTickets int            `json:"total_tickets"`
		StatusCounts map[string]int `json:"status_counts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.TotalTickets)
	assert.Equal(t, 1, report.StatusCounts["assigned"])
	assert.Len(t, report.StatusCounts, 5)
}

func TestEmailIntake(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]string{
		"sender_email": "Alice Smith <alice@example.com>",
		"subject":      "URGENT: VPN down",
		"body":         "Cannot reach the network, error ERR-504 on laptop AST-12345",
	}

	status, _ := s.do(t, fiber.MethodPost, "/intake/email", payload, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := s.do(t, fiber.MethodPost, "/intake/email", payload, map[string]string{auth.IntakeTokenHeader: intakeToken})
	require.Equal(t, fiber.StatusCreated, status)
	var result struct {
		Ticket   ticketBody `json:"ticket"`
		Analysis struct {
			Priority string   `json:"priority"`
			Entities []string `json:"entities"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "email", result.Ticket.Source)
	assert.Equal(t, "critical", result.Analysis.Priority)
	assert.Equal(t, []string{"AST-12345", "ERR-504"}, result.Analysis.Entities)
}

func TestChatTurn(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	status, env := s.do(t, fiber.MethodPost, "/chat/messages", map[string]string{
		"message": "I forgot my password",
	}, bearer(token))
	require.Equal(t, fiber.StatusCreated, status)
	var reply struct {
		Intent         string `json:"intent"`
		RequiresTicket bool   `json:"requires_ticket"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, "password_reset", reply.Intent)
	assert.False(t, reply.RequiresTicket)

	status, env = s.do(t, fiber.MethodGet, "/chat/messages", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var msgs []struct {
		IsBot bool `json:"is_bot"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].IsBot)
	assert.True(t, msgs[1].IsBot)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jane@example.com")

	status, env := s.do(t, fiber.MethodGet, "/routing-rules", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var rules []struct {
		Category string `json:"category"`
		SLAHours int    `json:"sla_hours"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rules))
	assert.Len(t, rules, 5)

	status, env = s.do(t, fiber.MethodGet, "/teams", nil, bearer(token))
	require.Equal(t, fiber.StatusOK, status)
	var teams []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &teams))
	assert.Len(t, teams, 6)
}
