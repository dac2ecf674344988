package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/internal/approval"
	"stokri/internal/platform/middleware"
	"stokri/internal/request/models"
	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// stubService fakes the workflow service behind the handler.
type stubService struct {
	Service

	createFn        func(ctx context.Context, assetID domain.AssetID, quantity int, purpose string) (*models.Request, error)
	approveFn       func(ctx context.Context, requestID domain.RequestID, issueCondition, issueNotes, comments string) (*models.Request, error)
	listFn          func(ctx context.Context) ([]*models.Request, error)
	listApprovalsFn func(ctx context.Context, requestID domain.RequestID) ([]*approval.Approval, error)
}

func (s *stubService) Create(ctx context.Context, assetID domain.AssetID, quantity int, purpose string) (*models.Request, error) {
	return s.createFn(ctx, assetID, quantity, purpose)
}

func (s *stubService) Approve(ctx context.Context, requestID domain.RequestID, issueCondition, issueNotes, comments string) (*models.Request, error) {
	return s.approveFn(ctx, requestID, issueCondition, issueNotes, comments)
}

func (s *stubService) List(ctx context.Context) ([]*models.Request, error) {
	return s.listFn(ctx)
}

func (s *stubService) ListApprovals(ctx context.Context, requestID domain.RequestID) ([]*approval.Approval, error) {
	return s.listApprovalsFn(ctx, requestID)
}

// allowAll lets every request through so handler behavior is tested alone.
type allowAll struct{}

func (allowAll) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{UserID: uuid.NewString(), Role: "officer"}, nil
}

type RequestHandlerSuite struct {
	suite.Suite
	stub   *stubService
	router chi.Router
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerSuite))
}

func (s *RequestHandlerSuite) SetupTest() {
	s.stub = &stubService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.stub, logger, nil, allowAll{})
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *RequestHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RequestHandlerSuite) TestCreate() {
	s.Run("valid body reaches the service", func() {
		assetID := domain.AssetID(uuid.New())
		s.stub.createFn = func(_ context.Context, gotAsset domain.AssetID, quantity int, purpose string) (*models.Request, error) {
			s.Equal(assetID, gotAsset)
			s.Equal(2, quantity)
			s.Equal("lab", purpose)
			return &models.Request{ID: domain.RequestID(uuid.New()), Status: models.StatusPending}, nil
		}

		rec := s.do(http.MethodPost, "/requests/", map[string]any{
			"asset_id": assetID.String(), "quantity": 2, "purpose": "lab",
		})
		s.Equal(http.StatusCreated, rec.Code)

		var resp models.Request
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(models.StatusPending, resp.Status)
	})

	s.Run("malformed asset id is a 400", func() {
		rec := s.do(http.MethodPost, "/requests/", map[string]any{"asset_id": "nope", "quantity": 1})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("garbage body is a 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/requests/", bytes.NewReader([]byte("{")))
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *RequestHandlerSuite) TestApprove() {
	s.Run("conflict codes map to 409", func() {
		s.stub.approveFn = func(context.Context, domain.RequestID, string, string, string) (*models.Request, error) {
			return nil, dErrors.New(dErrors.CodeInsufficientQuantity, "insufficient quantity: available 1, requested 3")
		}
		rec := s.do(http.MethodPost, "/requests/"+uuid.NewString()+"/approve", map[string]any{})
		s.Equal(http.StatusConflict, rec.Code)

		var body map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("insufficient_quantity", body["error"])
		s.Contains(body["error_description"], "available 1, requested 3")
	})

	s.Run("internal errors hide their message", func() {
		s.stub.approveFn = func(context.Context, domain.RequestID, string, string, string) (*models.Request, error) {
			return nil, dErrors.New(dErrors.CodeInternal, "pq: connection refused")
		}
		rec := s.do(http.MethodPost, "/requests/"+uuid.NewString()+"/approve", map[string]any{})
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "connection refused")
	})
}

func (s *RequestHandlerSuite) TestList() {
	s.stub.listFn = func(context.Context) ([]*models.Request, error) {
		return []*models.Request{{ID: domain.RequestID(uuid.New())}}, nil
	}
	rec := s.do(http.MethodGet, "/requests/", nil)
	s.Equal(http.StatusOK, rec.Code)

	var resp []*models.Request
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp, 1)
}

func (s *RequestHandlerSuite) TestListApprovals() {
	requestID := domain.RequestID(uuid.New())
	s.stub.listApprovalsFn = func(_ context.Context, gotID domain.RequestID) ([]*approval.Approval, error) {
		s.Equal(requestID, gotID)
		rid := requestID
		return []*approval.Approval{{
			ID:        domain.ApprovalID(uuid.New()),
			RequestID: &rid,
			Decision:  approval.DecisionApproved,
			Approver:  domain.UserID(uuid.New()),
		}}, nil
	}

	rec := s.do(http.MethodGet, "/requests/"+requestID.String()+"/approvals", nil)
	s.Equal(http.StatusOK, rec.Code)

	var resp []*approval.Approval
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp, 1)
	s.Equal(approval.DecisionApproved, resp[0].Decision)
}

func (s *RequestHandlerSuite) TestUnauthenticated() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.stub, logger, nil, denyAll{})
	router := chi.NewRouter()
	h.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/requests/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

type denyAll struct{}

func (denyAll) ValidateToken(string) (*middleware.JWTClaims, error) {
	return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}
