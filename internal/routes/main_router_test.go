package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"admin-system/pkg/config"
	"admin-system/pkg/customvalidator"
	"admin-system/pkg/service"
	"admin-system/pkg/utils"
)

// RouterTestSuite exercises routing, validation and auth middleware.
// The pool and redis client connect lazily, so paths that stop before
// touching storage run without any backing services.
type RouterTestSuite struct {
	suite.Suite
	Echo   *echo.Echo
	JwtSvc service.JWTService
}

func (s *RouterTestSuite) SetupSuite() {
	e := echo.New()
	logger := zap.NewNop()
	cfg := config.New()

	v := validator.New()
	require.NoError(s.T(), customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)

	pool, err := pgxpool.New(context.Background(), cfg.Postgres.DSN)
	require.NoError(s.T(), err)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})

	s.JwtSvc = service.NewJWTService("router-test-secret", time.Minute*30, time.Hour, logger)
	InitRouter(e, pool, redisClient, s.JwtSvc, logger, cfg)
	s.Echo = e
}

func (s *RouterTestSuite) request(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) TestSecuredRoutesRejectMissingToken() {
	for _, path := range []string{
		"/api/users",
		"/api/departments",
		"/api/departments/tree",
		"/api/auth/me",
	} {
		rec := s.request(http.MethodGet, path, "", "")
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}
}

func (s *RouterTestSuite) TestSecuredRoutesRejectGarbageToken() {
	rec := s.request(http.MethodGet, "/api/users", "", "not-a-real-token")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestRefreshTokenRejectedAsAccessToken() {
	_, refresh, err := s.JwtSvc.GenerateTokens("user-1", false)
	s.Require().NoError(err)

	rec := s.request(http.MethodGet, "/api/users", "", refresh)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestLoginValidation() {
	rec := s.request(http.MethodPost, "/api/auth/login", `{"username":""}`, "")
	s.Equal(http.StatusBadRequest, rec.Code)

	var response utils.HttpResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.False(response.Status)
}

func (s *RouterTestSuite) TestCreateUserValidation() {
	token, _, err := s.JwtSvc.GenerateTokens("user-1", true)
	s.Require().NoError(err)

	// Short password fails validation before any storage call.
	rec := s.request(http.MethodPost, "/api/users", `{"username":"alice","password":"123"}`, token)
	s.Equal(http.StatusBadRequest, rec.Code)

	// Malformed body too.
	rec = s.request(http.MethodPost, "/api/users", `{"username":`, token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestInvalidIDParamRejected() {
	token, _, err := s.JwtSvc.GenerateTokens("user-1", true)
	s.Require().NoError(err)

	rec := s.request(http.MethodGet, "/api/users/not-a-uuid", "", token)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodDelete, "/api/departments/42", "", token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestUnknownRoute() {
	rec := s.request(http.MethodGet, "/nope", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
