package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/api/http/handlers"
	"github.com/civicdesk/grievance-portal/internal/auth"
	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/observability"
	"github.com/civicdesk/grievance-portal/internal/repository"
	"github.com/civicdesk/grievance-portal/internal/service"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type stubCredentials struct {
	accounts map[string]*domain.User
	actor    string
}

func (s *stubCredentials) RegisterUser(_ context.Context, in service.RegistrationInput) (*domain.User, error) {
	if in.Username == "taken" {
		return nil, apperrors.NewConflict("username already exists", nil)
	}
	return &domain.User{ID: 1, Username: in.Username, PasswordHash: "hash", Role: domain.UserRoleUser, Email: in.Email}, nil
}

func (s *stubCredentials) RegisterAdmin(_ context.Context, in service.AdminRegistrationInput) (*domain.User, error) {
	if in.Code != "good" {
		return nil, apperrors.NewValidationError("invalid admin code", map[string]any{"code": "unknown"})
	}
	return &domain.User{ID: 2, Username: in.Username, Role: domain.UserRoleAdmin, Department: in.Department, Verified: true}, nil
}

func (s *stubCredentials) VerifyLogin(_ context.Context, username, password string) (*domain.User, error) {
	user, ok := s.accounts[username+":"+password]
	if !ok {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return user, nil
}

func (s *stubCredentials) IssueAdminCode(_ context.Context, actor string) (string, error) {
	s.actor = actor
	return "code-123", nil
}

func (s *stubCredentials) VerifyUser(_ context.Context, id int64, actor string) (*domain.User, error) {
	s.actor = actor
	if id != 5 {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return &domain.User{ID: 5, Username: "bob", Role: domain.UserRoleUser, Verified: true}, nil
}

type stubComplaints struct {
	submitted service.SubmitInput
	filter    repository.ComplaintFilter
	actor     string
}

func (s *stubComplaints) Submit(_ context.Context, in service.SubmitInput) (*domain.Complaint, error) {
	s.submitted = in
	if in.Text == "" {
		return nil, apperrors.NewValidationError("request validation failed", map[string]any{"complaint_text": "This field is required"})
	}
	return &domain.Complaint{ID: 1, CustomerID: in.CustomerID, Text: in.Text, Category: in.Category, Severity: 5, SentimentScore: -0.8, Status: domain.ComplaintStatusOpen, CreatedAt: testNow}, nil
}

func (s *stubComplaints) UpdateStatus(_ context.Context, id int64, status domain.ComplaintStatus, actor string) (*domain.Complaint, error) {
	s.actor = actor
	resolved := testNow.Add(time.Hour)
	return &domain.Complaint{ID: id, Status: status, CreatedAt: testNow, ResolvedAt: &resolved}, nil
}

func (s *stubComplaints) Get(_ context.Context, id int64) (*domain.Complaint, error) {
	if id != 1 {
		return nil, apperrors.NewNotFound("complaint", nil)
	}
	return &domain.Complaint{ID: 1, Status: domain.ComplaintStatusOpen, CreatedAt: testNow}, nil
}

func (s *stubComplaints) List(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	s.filter = filter
	return []domain.Complaint{{ID: 2}, {ID: 1}}, nil
}

type stubDashboard struct {
	metrics *domain.DashboardMetrics
}

func (s *stubDashboard) Dashboard(context.Context, repository.ComplaintFilter) (*domain.DashboardMetrics, error) {
	if s.metrics == nil {
		return nil, service.ErrNoData
	}
	return s.metrics, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app         *fiber.App
	credentials *stubCredentials
	complaints  *stubComplaints
	dashboard   *stubDashboard
}

func newTestServer(t *testing.T, deps ...handlers.Dependency) *testServer {
	t.Helper()
	ts := &testServer{
		credentials: &stubCredentials{accounts: map[string]*domain.User{
			"root:pw":  {ID: 9, Username: "root", Role: domain.UserRoleAdmin, Verified: true},
			"alice:pw": {ID: 3, Username: "alice", Role: domain.UserRoleUser, Verified: true},
			"bob:pw":   {ID: 5, Username: "bob", Role: domain.UserRoleUser},
		}},
		complaints: &stubComplaints{},
		dashboard:  &stubDashboard{},
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("grievance-portal", "test", metrics, deps...),
		Users:          handlers.NewUsersHandler(ts.credentials),
		Complaints:     handlers.NewComplaintsHandler(ts.complaints),
		Dashboard:      handlers.NewDashboardHandler(ts.dashboard),
		Admin:          handlers.NewAdminHandler(ts.credentials),
		AuthMiddleware: auth.NewAuthMiddleware(ts.credentials, ""),
	})
	ts.app = app
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body, user string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte(user)))
	}
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	payload := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func errorCode(payload map[string]any) string {
	errObj, _ := payload["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func data(payload map[string]any) map[string]any {
	d, _ := payload["data"].(map[string]any)
	return d
}

func TestHealthRoutes(t *testing.T) {
	t.Run("optional dependency failure keeps readiness", func(t *testing.T) {
		ts := newTestServer(t,
			handlers.Dependency{Name: "accounts", Check: stubPinger{}},
			handlers.Dependency{Name: "redis", Check: stubPinger{err: errors.New("disabled")}, Optional: true},
		)
		status, _ := ts.do(t, fiber.MethodGet, "/health/live", "", "")
		assert.Equal(t, fiber.StatusOK, status)

		status, body := ts.do(t, fiber.MethodGet, "/health/ready", "", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "ready", body["status"])

		status, body = ts.do(t, fiber.MethodGet, "/health/stats", "", "")
		assert.Equal(t, fiber.StatusOK, status)
		requests, _ := data(body)["requests"].(map[string]any)
		assert.Contains(t, requests, "/health/ready|GET|200")
	})

	t.Run("required dependency failure", func(t *testing.T) {
		ts := newTestServer(t, handlers.Dependency{Name: "complaints", Check: stubPinger{err: errors.New("down")}})
		status, body := ts.do(t, fiber.MethodGet, "/health/ready", "", "")
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
	})
}

func TestAccountRoutes(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fiber.MethodPost, "/auth/users/register",
		`{"username":"carol","password":"pw","email":"carol@example.com","full_name":"Carol"}`, "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "carol", data(body)["username"])
	assert.NotContains(t, data(body), "password")
	assert.NotContains(t, data(body), "password_hash")

	status, body = ts.do(t, fiber.MethodPost, "/auth/users/register", `{"username":"taken"}`, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, apperrors.CodeConflict, errorCode(body))

	status, body = ts.do(t, fiber.MethodPost, "/auth/admins/register", `{"code":"bad","username":"dave"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(body))

	status, body = ts.do(t, fiber.MethodPost, "/auth/admins/register", `{"code":"good","username":"dave","department":"Transport"}`, "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "admin", data(body)["role"])

	status, _ = ts.do(t, fiber.MethodPost, "/auth/login", `{"username":"alice","password":"pw"}`, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = ts.do(t, fiber.MethodPost, "/auth/login", `{"username":"bob","password":"pw"}`, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(body))

	status, _ = ts.do(t, fiber.MethodPost, "/auth/login", `{"username":"alice","password":"nope"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = ts.do(t, fiber.MethodPost, "/auth/login", `not json`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(body))
}

func TestComplaintRoutes(t *testing.T) {
	ts := newTestServer(t)

	t.Run("anonymous submission", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodPost, "/complaints",
			`{"customer_id":"C1","complaint_text":"This is the worst service ever","category":"Service"}`, "")
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "OPEN", data(body)["status"])
		assert.EqualValues(t, 5, data(body)["severity"])
		assert.Nil(t, data(body)["resolved_at"])
	})

	t.Run("authenticated submission defaults customer id", func(t *testing.T) {
		status, _ := ts.do(t, fiber.MethodPost, "/complaints", `{"complaint_text":"late","category":"Delivery"}`, "alice:pw")
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "alice", ts.complaints.submitted.CustomerID)
	})

	t.Run("unverified submitter", func(t *testing.T) {
		status, _ := ts.do(t, fiber.MethodPost, "/complaints", `{"complaint_text":"late","category":"Delivery"}`, "bob:pw")
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("validation errors carry details", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodPost, "/complaints", `{"customer_id":"C1","category":"Service"}`, "")
		assert.Equal(t, fiber.StatusBadRequest, status)
		errObj, _ := body["error"].(map[string]any)
		assert.Contains(t, errObj["details"], "complaint_text")
	})

	t.Run("listing requires admin", func(t *testing.T) {
		status, _ := ts.do(t, fiber.MethodGet, "/complaints", "", "")
		assert.Equal(t, fiber.StatusUnauthorized, status)

		status, _ = ts.do(t, fiber.MethodGet, "/complaints", "", "alice:pw")
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("listing parses filters", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodGet,
			"/complaints?status=open,RESOLVED&category=Delivery&q=refund&created_from=2026-01-01&page=2&page_size=10", "", "root:pw")
		assert.Equal(t, fiber.StatusOK, status)
		items, _ := body["data"].([]any)
		assert.Len(t, items, 2)

		f := ts.complaints.filter
		assert.Equal(t, []domain.ComplaintStatus{domain.ComplaintStatusOpen, domain.ComplaintStatusResolved}, f.Statuses)
		assert.Equal(t, []domain.ComplaintCategory{domain.CategoryDelivery}, f.Categories)
		require.NotNil(t, f.SearchTerm)
		assert.Equal(t, "refund", *f.SearchTerm)
		require.NotNil(t, f.CreatedFrom)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *f.CreatedFrom)
		assert.Equal(t, 10, f.Limit)
		assert.Equal(t, 10, f.Offset)

		meta, _ := body["meta"].(map[string]any)
		assert.EqualValues(t, 2, meta["page"])
	})

	t.Run("date-only upper bound covers the whole day", func(t *testing.T) {
		status, _ := ts.do(t, fiber.MethodGet, "/complaints?created_to=2026-10-15", "", "root:pw")
		assert.Equal(t, fiber.StatusOK, status)

		f := ts.complaints.filter
		assert.Nil(t, f.CreatedTo)
		require.NotNil(t, f.CreatedBefore)
		assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), *f.CreatedBefore)

		status, _ = ts.do(t, fiber.MethodGet, "/complaints?created_to=2026-10-15T12:30:00Z", "", "root:pw")
		assert.Equal(t, fiber.StatusOK, status)

		f = ts.complaints.filter
		assert.Nil(t, f.CreatedBefore)
		require.NotNil(t, f.CreatedTo)
		assert.Equal(t, time.Date(2026, 10, 15, 12, 30, 0, 0, time.UTC), *f.CreatedTo)
	})

	t.Run("page beyond range is rejected", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodGet, "/complaints?page=9223372036854775807&page_size=200", "", "root:pw")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, apperrors.CodeValidationFailed, errorCode(body))
	})

	t.Run("bad date", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodGet, "/complaints?created_to=yesterday", "", "root:pw")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, apperrors.CodeValidationFailed, errorCode(body))
	})

	t.Run("get by id", func(t *testing.T) {
		status, _ := ts.do(t, fiber.MethodGet, "/complaints/1", "", "root:pw")
		assert.Equal(t, fiber.StatusOK, status)

		status, body := ts.do(t, fiber.MethodGet, "/complaints/99", "", "root:pw")
		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, apperrors.CodeNotFound, errorCode(body))

		status, _ = ts.do(t, fiber.MethodGet, "/complaints/abc", "", "root:pw")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("status update records actor", func(t *testing.T) {
		status, body := ts.do(t, fiber.MethodPatch, "/complaints/1/status", `{"status":"RESOLVED"}`, "root:pw")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "RESOLVED", data(body)["status"])
		assert.NotNil(t, data(body)["resolved_at"])
		assert.Equal(t, "root", ts.complaints.actor)
	})
}

func TestDashboardRoute(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fiber.MethodGet, "/dashboard", "", "root:pw")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(body)["no_data"])

	ts.dashboard.metrics = &domain.DashboardMetrics{
		Total:             2,
		AverageSeverity:   4,
		ResolutionRate:    0.5,
		SeverityHistogram: map[int]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 1},
	}
	status, body = ts.do(t, fiber.MethodGet, "/dashboard?category=Service", "", "root:pw")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, data(body)["no_data"])
	assert.EqualValues(t, 2, data(body)["total"])
	assert.EqualValues(t, 0.5, data(body)["resolution_rate"])
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, fiber.MethodPost, "/admin/codes", "", "alice:pw")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := ts.do(t, fiber.MethodPost, "/admin/codes", "", "root:pw")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "code-123", data(body)["code"])
	assert.Equal(t, "root", ts.credentials.actor)

	status, body = ts.do(t, fiber.MethodPost, "/admin/users/5/verify", "", "root:pw")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(body)["verified"])

	status, _ = ts.do(t, fiber.MethodPost, "/admin/users/6/verify", "", "root:pw")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, fiber.MethodGet, "/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(body))
}

func TestPanicIsRecovered(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/panic", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
