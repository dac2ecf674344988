package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

type JWTSuite struct {
	suite.Suite
	service *JWTService
	userID  domain.UserID
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) SetupTest() {
	s.service = NewJWTService("test-signing-key", "stokri", "stokri-api")
	s.userID = domain.UserID(uuid.New())
}

func (s *JWTSuite) TestRoundTrip() {
	token, err := s.service.GenerateAccessToken(s.userID, domain.RoleOfficer, time.Hour)
	s.Require().NoError(err)

	claims, err := s.service.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal(s.userID.String(), claims.UserID)
	s.Equal(string(domain.RoleOfficer), claims.Role)
}

func (s *JWTSuite) TestExpiredToken() {
	token, err := s.service.GenerateAccessToken(s.userID, domain.RoleMember, -time.Minute)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "expired")
}

func (s *JWTSuite) TestWrongKey() {
	other := NewJWTService("different-key", "stokri", "stokri-api")
	token, err := other.GenerateAccessToken(s.userID, domain.RoleAdmin, time.Hour)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestGarbageToken() {
	_, err := s.service.ValidateToken("not.a.token")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestMiddlewareAdapter() {
	adapter := NewMiddlewareAdapter(s.service)
	token, err := s.service.GenerateAccessToken(s.userID, domain.RoleAdmin, time.Hour)
	s.Require().NoError(err)

	claims, err := adapter.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal(s.userID.String(), claims.UserID)
	s.Equal("admin", claims.Role)
}
