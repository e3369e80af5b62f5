package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accessrequestdomain "github.com/debacu/evalgate/internal/accessrequest/domain"
	authdomain "github.com/debacu/evalgate/internal/auth/domain"
	"github.com/debacu/evalgate/internal/config"
	customerdomain "github.com/debacu/evalgate/internal/customer/domain"
	sessiondomain "github.com/debacu/evalgate/internal/session/domain"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type fakeAuthService struct {
	loginResult *authdomain.LoginResult
	loginErr    error
	loginCalls  int

	session *sessiondomain.Session
	authErr error

	logoutErr   error
	logoutCalls int
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	_ = ctx
	_ = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	f.logoutCalls++
	_ = ctx
	_ = rawToken
	return f.logoutErr
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*sessiondomain.Session, error) {
	_ = ctx
	_ = rawToken
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.session, nil
}

type fakeSubscriptionService struct {
	state     *subscriptiondomain.EffectiveState
	stateErr  error
	changed   *subscriptiondomain.Subscription
	changeErr error
	lastReq   subscriptiondomain.ChangePlanRequest
}

func (f *fakeSubscriptionService) ResolveEffective(ctx context.Context, customerID snowflake.ID, appCode string) (*subscriptiondomain.Subscription, error) {
	_ = ctx
	_ = customerID
	_ = appCode
	return nil, nil
}

func (f *fakeSubscriptionService) State(ctx context.Context, customerID snowflake.ID, appCode string) (*subscriptiondomain.EffectiveState, error) {
	_ = ctx
	_ = customerID
	_ = appCode
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeSubscriptionService) FindActive(ctx context.Context, customerID snowflake.ID, appCode string) (*subscriptiondomain.Subscription, error) {
	_ = ctx
	_ = customerID
	_ = appCode
	return nil, subscriptiondomain.ErrNoActiveSubscription
}

func (f *fakeSubscriptionService) ChangePlan(ctx context.Context, req subscriptiondomain.ChangePlanRequest) (*subscriptiondomain.Subscription, error) {
	_ = ctx
	f.lastReq = req
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return f.changed, nil
}

type fakeAccessRequestService struct {
	result *accessrequestdomain.SubmitResult
	err    error
}

func (f *fakeAccessRequestService) Submit(ctx context.Context, req accessrequestdomain.SubmitRequest) (*accessrequestdomain.SubmitResult, error) {
	_ = ctx
	_ = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCustomerService struct {
	customer *customerdomain.Customer
}

func (f *fakeCustomerService) Authenticate(ctx context.Context, username, password string) (*customerdomain.Customer, error) {
	_ = ctx
	_ = username
	_ = password
	return f.customer, nil
}

func (f *fakeCustomerService) GetByID(ctx context.Context, id snowflake.ID) (*customerdomain.Customer, error) {
	_ = ctx
	_ = id
	return f.customer, nil
}

func (f *fakeCustomerService) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (*customerdomain.Customer, error) {
	_ = ctx
	_ = req
	return f.customer, nil
}

func newTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	srv.engine = router
	srv.registerAuthRoutes()
	srv.registerAPIRoutes()
	srv.registerInternalRoutes()
	return router
}

func doJSON(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestLoginHandlerRejectsMalformedBody(t *testing.T) {
	authSvc := &fakeAuthService{}
	srv := &Server{authsvc: authSvc}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"username":`, nil)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if authSvc.loginCalls != 0 {
		t.Fatal("expected login service not to be called")
	}
}

func TestLoginHandlerReturnsResult(t *testing.T) {
	authSvc := &fakeAuthService{
		loginResult: &authdomain.LoginResult{
			OK:           true,
			AuthEmail:    "alice@example.com",
			SessionToken: "raw-token",
			User: authdomain.UserPayload{
				Username: "alice",
				Plan:     "BASIC",
			},
		},
	}
	srv := &Server{authsvc: authSvc}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`, nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result authdomain.LoginResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.OK || result.SessionToken != "raw-token" {
		t.Fatalf("unexpected login result: %+v", result)
	}
}

func TestLoginHandlerMapsInvalidCredentialsTo401(t *testing.T) {
	srv := &Server{authsvc: &fakeAuthService{loginErr: customerdomain.ErrInvalidCredentials}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, nil)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestLoginHandlerMapsNoActiveSubscriptionTo403(t *testing.T) {
	srv := &Server{authsvc: &fakeAuthService{loginErr: subscriptiondomain.ErrNoActiveSubscription}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`, nil)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestLoginHandlerMapsMissingCredentialsTo400(t *testing.T) {
	srv := &Server{authsvc: &fakeAuthService{loginErr: authdomain.ErrMissingCredentials}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"username":"","password":""}`, nil)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestLogoutWithoutTokenReturns401(t *testing.T) {
	authSvc := &fakeAuthService{}
	srv := &Server{authsvc: authSvc}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/logout", "", nil)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if authSvc.logoutCalls != 0 {
		t.Fatal("expected logout service not to be called")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	authSvc := &fakeAuthService{}
	srv := &Server{authsvc: authSvc}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/auth/logout", "", map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if authSvc.logoutCalls != 1 {
		t.Fatalf("expected one logout call, got %d", authSvc.logoutCalls)
	}
}

func TestSessionRequiredRejectsMissingToken(t *testing.T) {
	srv := &Server{authsvc: &fakeAuthService{}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/api/subscription/state", "", nil)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestSessionRequiredRejectsInvalidToken(t *testing.T) {
	srv := &Server{authsvc: &fakeAuthService{authErr: sessiondomain.ErrInvalidSession}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/api/subscription/state", "", map[string]string{
		HeaderSessionToken: "bogus",
	})

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func testSession() *sessiondomain.Session {
	return &sessiondomain.Session{
		ID:         snowflake.ID(10),
		CustomerID: snowflake.ID(20),
		AppCode:    config.DefaultAppCode,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestMeReturnsSessionAndUser(t *testing.T) {
	srv := &Server{
		authsvc: &fakeAuthService{session: testSession()},
		customerSvc: &fakeCustomerService{
			customer: &customerdomain.Customer{
				ID:       snowflake.ID(20),
				Username: "alice",
				Name:     "Alice Pérez",
				Email:    "Alice@Example.com",
				SectorID: "HOTELS",
			},
		},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/auth/me", "", map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			IsAdmin  bool   `json:"is_admin"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.User.Username != "alice" || payload.User.IsAdmin {
		t.Fatalf("unexpected user payload: %+v", payload.User)
	}
	if payload.User.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", payload.User.Email)
	}
}

func TestGetSubscriptionStateReturnsView(t *testing.T) {
	subSvc := &fakeSubscriptionService{
		state: &subscriptiondomain.EffectiveState{
			PlanDisplayName: "Basic",
			PlanCode:        "BASIC",
			Status:          subscriptiondomain.StatusActive,
		},
	}
	srv := &Server{
		authsvc:         &fakeAuthService{session: testSession()},
		subscriptionSvc: subSvc,
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/api/subscription/state", "", map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var state subscriptiondomain.EffectiveState
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if state.PlanCode != "BASIC" || state.IsPaywalled {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestChangePlanRequiresPlanCode(t *testing.T) {
	srv := &Server{
		authsvc:         &fakeAuthService{session: testSession()},
		subscriptionSvc: &fakeSubscriptionService{},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/subscription/change-plan", `{"plan_code":"  "}`, map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestChangePlanNormalizesAndForwardsCode(t *testing.T) {
	subSvc := &fakeSubscriptionService{
		changed: &subscriptiondomain.Subscription{
			ID:     snowflake.ID(30),
			Status: subscriptiondomain.StatusPendingPayment,
		},
	}
	srv := &Server{
		authsvc:         &fakeAuthService{session: testSession()},
		subscriptionSvc: subSvc,
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/subscription/change-plan", `{"plan_code":"pro"}`, map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if subSvc.lastReq.PlanCode != "PRO" {
		t.Fatalf("expected plan code PRO, got %q", subSvc.lastReq.PlanCode)
	}
	if subSvc.lastReq.CustomerID != snowflake.ID(20) {
		t.Fatalf("expected customer from session, got %s", subSvc.lastReq.CustomerID)
	}
}

func TestChangePlanMapsPendingChangeTo409(t *testing.T) {
	srv := &Server{
		authsvc:         &fakeAuthService{session: testSession()},
		subscriptionSvc: &fakeSubscriptionService{changeErr: subscriptiondomain.ErrPendingPlanChange},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/subscription/change-plan", `{"plan_code":"PRO"}`, map[string]string{
		HeaderSessionToken: "raw-token",
	})

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestSubmitAccessRequestCreated(t *testing.T) {
	srv := &Server{
		accessRequestSvc: &fakeAccessRequestService{
			result: &accessrequestdomain.SubmitResult{ID: snowflake.ID(40)},
		},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/access-requests", `{"company_name":"Hotel Sol","cif":"B123","contact_name":"Ana","email":"ana@example.com","accepted_terms":true,"accepted_professional_use":true}`, nil)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSubmitAccessRequestDuplicateReturns200(t *testing.T) {
	srv := &Server{
		accessRequestSvc: &fakeAccessRequestService{
			result: &accessrequestdomain.SubmitResult{ID: snowflake.ID(40), Duplicate: true},
		},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/access-requests", `{"company_name":"Hotel Sol","cif":"B123","contact_name":"Ana","email":"ana@example.com","accepted_terms":true,"accepted_professional_use":true}`, nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result accessrequestdomain.SubmitResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate flag to survive the round trip")
	}
}

func TestSubmitAccessRequestValidationErrorsListFields(t *testing.T) {
	srv := &Server{
		accessRequestSvc: &fakeAccessRequestService{
			err: &accessrequestdomain.ValidationError{
				Fields: map[string]string{
					"email":        "email is invalid",
					"company_name": "company name is required",
				},
			},
		},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/api/access-requests", `{}`, nil)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	var payload errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", payload.Error.Type)
	}
	if len(payload.Error.Errors) != 2 {
		t.Fatalf("expected two field errors, got %+v", payload.Error.Errors)
	}
	if payload.Error.Errors[0].Field != "company_name" {
		t.Fatalf("expected fields sorted by name, got %+v", payload.Error.Errors)
	}
}

func TestSweepEndpointHiddenWithoutSecret(t *testing.T) {
	srv := &Server{cfg: config.Config{}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/internal/sweep", "", nil)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestSweepEndpointRejectsBadSecret(t *testing.T) {
	srv := &Server{cfg: config.Config{SweepSecret: "s3cret"}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/internal/sweep", "", map[string]string{
		HeaderSweepSecret: "guess",
	})

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
