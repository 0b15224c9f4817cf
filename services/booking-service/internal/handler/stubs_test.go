package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/metrics"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
	"github.com/vasapolrittideah/appointment-booking-api/shared/logger"
)

const validToken = "valid-token"

var testUser = &model.User{
	ID:              bson.NewObjectID(),
	Name:            "Alice",
	Email:           "alice@example.com",
	IsEmailVerified: true,
}

type stubAuthUsecase struct {
	registerErr error
	loginErr    error
	oauthErr    error
	authURL     string
	lastState   string
}

func (s *stubAuthUsecase) Register(_ context.Context, params usecase.RegisterParams) (*model.PendingUser, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &model.PendingUser{Name: params.Name, Email: strings.ToLower(params.Email)}, nil
}

func (s *stubAuthUsecase) Login(context.Context, usecase.LoginParams) (*usecase.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &usecase.Session{Token: validToken, User: testUser}, nil
}

func (s *stubAuthUsecase) GoogleAuthURL(state string) (string, error) {
	if s.authURL == "" {
		return "", usecase.ErrOAuthNotConfigured
	}
	s.lastState = state
	return s.authURL + "?state=" + state, nil
}

func (s *stubAuthUsecase) OAuthCallback(context.Context, string) (*usecase.Session, error) {
	if s.oauthErr != nil {
		return nil, s.oauthErr
	}
	return &usecase.Session{Token: validToken, User: testUser}, nil
}

func (s *stubAuthUsecase) VerifySession(_ context.Context, token string) (*model.User, error) {
	switch token {
	case validToken:
		return testUser, nil
	case "expired":
		return nil, usecase.ErrSessionExpired
	case "orphan":
		return nil, usecase.ErrUserNotFound
	case "broken":
		return nil, errors.New("database unavailable")
	default:
		return nil, usecase.ErrSessionInvalid
	}
}

type stubVerificationUsecase struct {
	issueErr  error
	verifyErr error
}

func (s *stubVerificationUsecase) StartSignup(
	context.Context,
	usecase.StartSignupParams,
) (*model.PendingUser, error) {
	return nil, errors.New("not used")
}

func (s *stubVerificationUsecase) IssueCode(context.Context, string) error {
	return s.issueErr
}

func (s *stubVerificationUsecase) VerifyCode(context.Context, string, string) (*usecase.Session, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &usecase.Session{Token: validToken, User: testUser}, nil
}

type stubBookingUsecase struct {
	bookErr    error
	cancelErr  error
	lastBook   usecase.BookParams
	lastList   usecase.ListParams
	lastAdmin  usecase.AdminListParams
	lastCancel string
}

func (s *stubBookingUsecase) Availability(_ context.Context, date string) (*usecase.Availability, error) {
	if date == "bad" {
		return nil, &usecase.ValidationError{Code: usecase.CodeInvalidDateFormat, Message: "Invalid date format"}
	}
	return &usecase.Availability{Date: date, TotalSlots: 18, AvailableCount: 18}, nil
}

func (s *stubBookingUsecase) Book(_ context.Context, params usecase.BookParams) (*model.Appointment, error) {
	s.lastBook = params
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &model.Appointment{
		ID:        bson.NewObjectID(),
		UserID:    params.UserID,
		UserEmail: params.UserEmail,
		UserName:  params.UserName,
		Time:      params.Time,
		Status:    model.AppointmentStatusConfirmed,
		Active:    true,
	}, nil
}

func (s *stubBookingUsecase) Cancel(_ context.Context, appointmentID, userID string) (*model.Appointment, error) {
	s.lastCancel = appointmentID
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &model.Appointment{ID: bson.NewObjectID(), UserID: userID, Status: model.AppointmentStatusCancelled}, nil
}

func (s *stubBookingUsecase) ListForUser(_ context.Context, params usecase.ListParams) (*usecase.AppointmentPage, error) {
	s.lastList = params
	return &usecase.AppointmentPage{Pagination: usecase.Pagination{Page: 1, Limit: 50}}, nil
}

func (s *stubBookingUsecase) ListAll(_ context.Context, params usecase.AdminListParams) (*usecase.AppointmentPage, error) {
	s.lastAdmin = params
	return &usecase.AppointmentPage{Pagination: usecase.Pagination{Page: 1, Limit: 100}}, nil
}

type stubPasswordResetUsecase struct {
	requestErr  error
	validateErr error
	resetErr    error
}

func (s *stubPasswordResetUsecase) RequestPasswordReset(context.Context, string) error {
	return s.requestErr
}

func (s *stubPasswordResetUsecase) ResetPassword(context.Context, string, string) error {
	return s.resetErr
}

func (s *stubPasswordResetUsecase) ValidatePasswordResetToken(context.Context, string) error {
	return s.validateErr
}

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error {
	return s.err
}

type testServer struct {
	handler      http.Handler
	auth         *stubAuthUsecase
	verification *stubVerificationUsecase
	booking      *stubBookingUsecase
	reset        *stubPasswordResetUsecase
	registry     *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	ts := &testServer{
		auth:         &stubAuthUsecase{},
		verification: &stubVerificationUsecase{},
		booking:      &stubBookingUsecase{},
		reset:        &stubPasswordResetUsecase{},
		registry:     reg,
	}

	h := NewHandler(Config{FrontendURL: "https://frontend.test", AuthRateLimit: 1000}, Dependencies{
		Logger:               logger.Nop(),
		AuthUsecase:          ts.auth,
		VerificationUsecase:  ts.verification,
		BookingUsecase:       ts.booking,
		PasswordResetUsecase: ts.reset,
		Health:               stubHealth{},
		Metrics:              metrics.New(reg, "booking-service"),
		Gatherer:             reg,
	})
	ts.handler = h.Routes()

	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
