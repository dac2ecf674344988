package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

type RequestSuite struct {
	suite.Suite
	now       time.Time
	requester domain.UserID
}

func TestRequestSuite(t *testing.T) {
	suite.Run(t, new(RequestSuite))
}

func (s *RequestSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.requester = domain.UserID(uuid.New())
}

func (s *RequestSuite) pending() *Request {
	r, err := NewRequest(domain.RequestID(uuid.New()), domain.AssetID(uuid.New()), s.requester, 2, "lab session", s.now)
	s.Require().NoError(err)
	return r
}

func (s *RequestSuite) TestNewRequest() {
	s.Run("starts pending", func() {
		r := s.pending()
		s.Equal(StatusPending, r.Status)
		s.False(r.Terminal())
	})

	s.Run("rejects zero quantity", func() {
		_, err := NewRequest(domain.RequestID(uuid.New()), domain.AssetID(uuid.New()), s.requester, 0, "", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects missing requester", func() {
		_, err := NewRequest(domain.RequestID(uuid.New()), domain.AssetID(uuid.New()), domain.UserID{}, 1, "", s.now)
		s.Error(err)
	})
}

func (s *RequestSuite) TestApproval() {
	s.Run("approval fulfils in one transition", func() {
		r := s.pending()
		s.NoError(r.CanApprove())
		r.ApplyApproval("GOOD", "minor scratches", s.now)
		s.Equal(StatusFulfilled, r.Status)
		s.Equal("GOOD", r.IssueCondition)
		s.NotNil(r.FulfilledAt)
	})

	s.Run("fulfilled request cannot approve again", func() {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		s.True(dErrors.HasCode(r.CanApprove(), dErrors.CodeInvalidState))
	})

	s.Run("rejected request cannot approve", func() {
		r := s.pending()
		r.ApplyRejection(s.now)
		s.Error(r.CanApprove())
		s.True(r.Terminal())
	})
}

func (s *RequestSuite) TestReturn() {
	s.Run("only the requester may return", func() {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		err := r.CanReturn(domain.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.NoError(r.CanReturn(s.requester))
	})

	s.Run("pending request cannot return", func() {
		r := s.pending()
		s.True(dErrors.HasCode(r.CanReturn(s.requester), dErrors.CodeInvalidState))
	})

	s.Run("return records the self-reported condition", func() {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		r.ApplyReturn(ConditionFair, "well used", s.now)
		s.Equal(StatusReturned, r.Status)
		s.Equal(ConditionFair, *r.ReturnedWith)
		s.NotNil(r.ReturnedAt)
		s.False(r.Terminal())
	})
}

func (s *RequestSuite) TestVerification() {
	returned := func() *Request {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		r.ApplyReturn(ConditionGood, "", s.now)
		return r
	}

	s.Run("verifier may diverge from the self-report", func() {
		r := returned()
		verifier := domain.UserID(uuid.New())
		s.NoError(r.CanVerify())
		r.ApplyVerification(verifier, ConditionDamaged, "cracked lens", s.now)
		s.Equal(ConditionGood, *r.ReturnedWith)
		s.Equal(ConditionDamaged, *r.VerifiedWith)
		s.Equal(verifier, *r.Verifier)
		s.True(r.Terminal())
	})

	s.Run("verification happens once", func() {
		r := returned()
		r.ApplyVerification(domain.UserID(uuid.New()), ConditionGood, "", s.now)
		s.True(dErrors.HasCode(r.CanVerify(), dErrors.CodeInvalidState))
	})

	s.Run("fulfilled request cannot verify", func() {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		s.Error(r.CanVerify())
	})
}

func (s *RequestSuite) TestEditAndDelete() {
	s.Run("pending request edits quantity and purpose", func() {
		r := s.pending()
		s.NoError(r.CanEdit(s.requester))
		s.NoError(r.ApplyEdit(5, "bigger session", s.now))
		s.Equal(5, r.RequestedQuantity)
	})

	s.Run("edit rejects zero quantity", func() {
		r := s.pending()
		s.True(dErrors.HasCode(r.ApplyEdit(0, "", s.now), dErrors.CodeValidation))
	})

	s.Run("only the requester may edit or delete", func() {
		r := s.pending()
		stranger := domain.UserID(uuid.New())
		s.True(dErrors.HasCode(r.CanEdit(stranger), dErrors.CodeForbidden))
		s.True(dErrors.HasCode(r.CanDelete(stranger), dErrors.CodeForbidden))
	})

	s.Run("fulfilled request is immutable", func() {
		r := s.pending()
		r.ApplyApproval("GOOD", "", s.now)
		s.True(dErrors.HasCode(r.CanEdit(s.requester), dErrors.CodeInvalidState))
		s.True(dErrors.HasCode(r.CanDelete(s.requester), dErrors.CodeInvalidState))
	})
}
