package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	pb "github.com/dmitrijs2005/keybind/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.LicenseServiceClient

	mu         sync.RWMutex
	adminToken string
}

func withAdminToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AdminTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) adminTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	s.mu.RLock()
	token := s.adminToken
	s.mu.RUnlock()

	if token != "" {
		ctx = withAdminToken(ctx, token)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewLicenseClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.adminTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewLicenseServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SetAdminToken sets the token attached to every following call.
func (s *GRPCClient) SetAdminToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminToken = token
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetStatus() != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {

	resp, err := s.client.Authenticate(ctx, &pb.AuthenticateRequest{
		LicenseKey:    req.LicenseKey,
		Hwid:          req.HWID,
		ClientVersion: req.ClientVersion,
		ClientType:    req.ClientType,
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	res := &AuthResult{
		Success:    resp.Success,
		LicenseKey: resp.LicenseKey,
		UserName:   resp.UserName,
		Reason:     resp.Error,
		Message:    resp.Message,
	}
	if resp.ExpiresAtEpochMs != 0 {
		res.ExpiresAt = time.UnixMilli(resp.ExpiresAtEpochMs).UTC()
	}
	return res, nil

}

func (s *GRPCClient) CheckLicense(ctx context.Context, key string) (*License, error) {

	resp, err := s.client.CheckLicense(ctx, &pb.CheckLicenseRequest{LicenseKey: key})
	if err != nil {
		return nil, s.mapError(err)
	}

	return fromProtoLicense(resp.GetLicense()), nil

}

func (s *GRPCClient) IssueLicense(ctx context.Context, name, email string, days int) (*License, error) {

	resp, err := s.client.IssueLicense(ctx, &pb.IssueLicenseRequest{UserName: name, UserEmail: email, ExpiryDays: int32(days)})
	if err != nil {
		return nil, s.mapError(err)
	}

	return fromProtoLicense(resp.GetLicense()), nil

}

func (s *GRPCClient) RevokeLicense(ctx context.Context, key string) error {

	if _, err := s.client.RevokeLicense(ctx, &pb.RevokeLicenseRequest{LicenseKey: key}); err != nil {
		return s.mapError(err)
	}
	return nil

}

func (s *GRPCClient) UnbindLicense(ctx context.Context, key string) (string, error) {

	resp, err := s.client.UnbindLicense(ctx, &pb.UnbindLicenseRequest{LicenseKey: key})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.PreviousHwid, nil

}

func (s *GRPCClient) ListAttempts(ctx context.Context, key string, limit int) ([]Attempt, error) {

	resp, err := s.client.ListAttempts(ctx, &pb.ListAttemptsRequest{LicenseKey: key, Limit: int32(limit)})
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]Attempt, 0, len(resp.GetAttempts()))
	for _, a := range resp.GetAttempts() {
		out = append(out, Attempt{
			ID:            a.Id,
			HWID:          a.Hwid,
			ClientVersion: a.ClientVersion,
			ClientType:    a.ClientType,
			RemoteAddr:    a.RemoteAddr,
			Outcome:       a.Outcome,
			CreatedAt:     time.UnixMilli(a.CreatedAtEpochMs).UTC(),
		})
	}
	return out, nil

}

// AdminLogin exchanges the admin password for a token. The token is also
// attached to the following calls of this client.
func (s *GRPCClient) AdminLogin(ctx context.Context, password string) (string, time.Time, error) {

	resp, err := s.client.AdminLogin(ctx, &pb.AdminLoginRequest{Password: password})
	if err != nil {
		return "", time.Time{}, s.mapError(err)
	}

	s.SetAdminToken(resp.Token)

	return resp.Token, time.UnixMilli(resp.ExpiresAtEpochMs).UTC(), nil

}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func fromProtoLicense(l *pb.License) *License {
	if l == nil {
		return nil
	}
	out := &License{
		LicenseKey: l.LicenseKey,
		UserName:   l.UserName,
		UserEmail:  l.UserEmail,
		CreatedAt:  time.UnixMilli(l.CreatedAtEpochMs).UTC(),
		ExpiresAt:  time.UnixMilli(l.ExpiresAtEpochMs).UTC(),
		IsActive:   l.IsActive,
		BoundHWID:  l.BoundHwid,
		Status:     l.Status,
	}
	if l.FirstUsedAtEpochMs != 0 {
		v := time.UnixMilli(l.FirstUsedAtEpochMs).UTC()
		out.FirstUsedAt = &v
	}
	if l.LastUsedAtEpochMs != 0 {
		v := time.UnixMilli(l.LastUsedAtEpochMs).UTC()
		out.LastUsedAt = &v
	}
	return out
}
