package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	pb "github.com/dmitrijs2005/keybind/internal/proto"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Authenticate reports domain failures in the response; only malformed
// requests become a gRPC error.
func (s *GRPCServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (*pb.AuthenticateResponse, error) {

	res, err := s.licenses.Authenticate(ctx, services.AuthRequest{
		LicenseKey:    req.LicenseKey,
		HWID:          req.Hwid,
		ClientVersion: req.ClientVersion,
		ClientType:    req.ClientType,
		RemoteAddr:    peerAddr(ctx),
	})

	if err != nil {
		reason := services.ReasonFor(err)
		if reason == services.ReasonInvalidRequest {
			return nil, toStatus(err)
		}
		return &pb.AuthenticateResponse{Success: false, Error: string(reason), Message: reason.Message()}, nil
	}

	return &pb.AuthenticateResponse{
		Success:          true,
		LicenseKey:       res.LicenseKey,
		UserName:         res.UserName,
		ExpiresAtEpochMs: res.ExpiresAt.UnixMilli(),
		Message:          "Authentication successful",
	}, nil

}

func (s *GRPCServer) CheckLicense(ctx context.Context, req *pb.CheckLicenseRequest) (*pb.CheckLicenseResponse, error) {

	l, err := s.licenses.CheckLicense(ctx, req.LicenseKey)
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.CheckLicenseResponse{License: toProtoLicense(l, s.now())}, nil

}

func (s *GRPCServer) IssueLicense(ctx context.Context, req *pb.IssueLicenseRequest) (*pb.IssueLicenseResponse, error) {

	days := int(req.ExpiryDays)
	if days == 0 {
		days = common.DefaultExpiryDays
	}

	l, err := s.licenses.IssueLicense(ctx, adminTokenFromContext(ctx), services.IssueRequest{
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		Validity:  time.Duration(days) * 24 * time.Hour,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.IssueLicenseResponse{License: toProtoLicense(l, s.now())}, nil

}

func (s *GRPCServer) RevokeLicense(ctx context.Context, req *pb.RevokeLicenseRequest) (*pb.RevokeLicenseResponse, error) {

	if err := s.licenses.RevokeLicense(ctx, req.LicenseKey, adminTokenFromContext(ctx)); err != nil {
		return nil, toStatus(err)
	}

	return &pb.RevokeLicenseResponse{}, nil

}

func (s *GRPCServer) UnbindLicense(ctx context.Context, req *pb.UnbindLicenseRequest) (*pb.UnbindLicenseResponse, error) {

	previous, err := s.licenses.UnbindLicense(ctx, req.LicenseKey, adminTokenFromContext(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.UnbindLicenseResponse{PreviousHwid: previous}, nil

}

func (s *GRPCServer) ListAttempts(ctx context.Context, req *pb.ListAttemptsRequest) (*pb.ListAttemptsResponse, error) {

	list, err := s.licenses.ListAttempts(ctx, req.LicenseKey, adminTokenFromContext(ctx), int(req.Limit))
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]*pb.Attempt, 0, len(list))
	for _, a := range list {
		out = append(out, toProtoAttempt(a))
	}
	return &pb.ListAttemptsResponse{Attempts: out}, nil

}

func (s *GRPCServer) AdminLogin(ctx context.Context, req *pb.AdminLoginRequest) (*pb.AdminLoginResponse, error) {

	tok, err := s.admin.Login(ctx, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.AdminLoginResponse{Token: tok.Token, ExpiresAtEpochMs: tok.ExpiresAt.UnixMilli()}, nil

}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}

// toStatus converts a service error into a gRPC status without leaking
// internal details.
func toStatus(err error) error {
	reason := services.ReasonFor(err)

	msg := reason.Message()
	var code codes.Code
	switch reason {
	case services.ReasonUnauthorized:
		code = codes.Unauthenticated
	case services.ReasonNotFound:
		code = codes.NotFound
	case services.ReasonInvalidRequest:
		code = codes.InvalidArgument
		msg = strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	case services.ReasonTimeout:
		code = codes.DeadlineExceeded
	case services.ReasonInvalidKey, services.ReasonRevoked, services.ReasonExpired, services.ReasonDeviceMismatch:
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}

	return status.Error(code, msg)
}

func toProtoLicense(l *models.License, now time.Time) *pb.License {
	out := &pb.License{
		LicenseKey:       l.LicenseKey,
		UserName:         l.UserName,
		UserEmail:        l.UserEmail,
		CreatedAtEpochMs: l.CreatedAt.UnixMilli(),
		ExpiresAtEpochMs: l.ExpiresAt.UnixMilli(),
		IsActive:         l.IsActive,
		Status:           string(l.StatusAt(now)),
	}
	if l.BoundHWID != nil {
		out.BoundHwid = *l.BoundHWID
	}
	if l.FirstUsedAt != nil {
		out.FirstUsedAtEpochMs = l.FirstUsedAt.UnixMilli()
	}
	if l.LastUsedAt != nil {
		out.LastUsedAtEpochMs = l.LastUsedAt.UnixMilli()
	}
	return out
}

func toProtoAttempt(a *models.Attempt) *pb.Attempt {
	return &pb.Attempt{
		Id:               a.ID,
		LicenseKey:       a.LicenseKey,
		Hwid:             a.HWID,
		ClientVersion:    a.ClientVersion,
		ClientType:       a.ClientType,
		RemoteAddr:       a.RemoteAddr,
		Outcome:          a.Outcome,
		CreatedAtEpochMs: a.CreatedAt.UnixMilli(),
	}
}

func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
