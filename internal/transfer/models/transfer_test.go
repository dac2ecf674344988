package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

type TransferSuite struct {
	suite.Suite
	now       time.Time
	holder    domain.UserID
	recipient domain.UserID
	admin     domain.UserID
}

func TestTransferSuite(t *testing.T) {
	suite.Run(t, new(TransferSuite))
}

func (s *TransferSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.holder = domain.UserID(uuid.New())
	s.recipient = domain.UserID(uuid.New())
	s.admin = domain.UserID(uuid.New())
}

func (s *TransferSuite) pending() *Transfer {
	t, err := NewTransfer(domain.TransferID(uuid.New()), domain.AssetID(uuid.New()),
		&s.holder, s.recipient, 1, "handover", false, s.holder, s.now)
	s.Require().NoError(err)
	return t
}

func (s *TransferSuite) TestNewTransfer() {
	s.Run("starts pending without a receipt", func() {
		t := s.pending()
		s.Equal(StatusPending, t.Status)
		s.Empty(t.ReceiptNumber)
		s.False(t.Terminal())
	})

	s.Run("source and destination must differ", func() {
		_, err := NewTransfer(domain.TransferID(uuid.New()), domain.AssetID(uuid.New()),
			&s.holder, s.holder, 1, "", false, s.holder, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil source means shared stock", func() {
		t, err := NewTransfer(domain.TransferID(uuid.New()), domain.AssetID(uuid.New()),
			nil, s.recipient, 3, "", false, s.admin, s.now)
		s.NoError(err)
		s.Nil(t.FromHolder)
	})

	s.Run("rejects zero quantity", func() {
		_, err := NewTransfer(domain.TransferID(uuid.New()), domain.AssetID(uuid.New()),
			&s.holder, s.recipient, 0, "", false, s.holder, s.now)
		s.Error(err)
	})
}

func (s *TransferSuite) TestApproval() {
	s.Run("admin approval required", func() {
		t := s.pending()
		err := t.CanApprove(s.admin, domain.RoleOfficer)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.NoError(t.CanApprove(s.admin, domain.RoleAdmin))
	})

	s.Run("a party cannot approve even as admin", func() {
		t := s.pending()
		s.True(dErrors.HasCode(t.CanApprove(s.recipient, domain.RoleAdmin), dErrors.CodeForbidden))
		s.True(dErrors.HasCode(t.CanApprove(s.holder, domain.RoleAdmin), dErrors.CodeForbidden))
	})

	s.Run("completion stamps the receipt exactly once", func() {
		t := s.pending()
		t.ApplyCompletion(s.now)
		s.Equal(StatusCompleted, t.Status)
		s.Regexp(regexp.MustCompile(`^TR-20260310-[0-9a-f]{8}$`), t.ReceiptNumber)
		s.True(t.Terminal())
		s.Error(t.CanApprove(s.admin, domain.RoleAdmin))
	})
}

func (s *TransferSuite) TestRejection() {
	s.Run("admin rejection terminates without a receipt", func() {
		t := s.pending()
		s.NoError(t.CanReject(s.admin, domain.RoleAdmin))
		t.ApplyRejection(s.now)
		s.Equal(StatusRejected, t.Status)
		s.Empty(t.ReceiptNumber)
		s.True(t.Terminal())
	})

	s.Run("officer cannot reject", func() {
		t := s.pending()
		s.True(dErrors.HasCode(t.CanReject(s.admin, domain.RoleOfficer), dErrors.CodeForbidden))
	})
}

func (s *TransferSuite) TestDelete() {
	s.Run("initiator may delete while pending", func() {
		t := s.pending()
		s.NoError(t.CanDelete(s.holder, domain.RoleMember))
	})

	s.Run("stranger may not", func() {
		t := s.pending()
		s.True(dErrors.HasCode(t.CanDelete(s.recipient, domain.RoleMember), dErrors.CodeForbidden))
	})

	s.Run("completed transfer is immutable", func() {
		t := s.pending()
		t.ApplyCompletion(s.now)
		s.True(dErrors.HasCode(t.CanDelete(s.holder, domain.RoleMember), dErrors.CodeInvalidState))
	})
}
