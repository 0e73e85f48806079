package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/keybind/internal/logging"
	pb "github.com/dmitrijs2005/keybind/internal/proto"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"google.golang.org/grpc"
)

// LicenseService is the binding authority as seen by the gRPC layer.
type LicenseService interface {
	Authenticate(ctx context.Context, req services.AuthRequest) (*services.AuthResult, error)
	CheckLicense(ctx context.Context, key string) (*models.License, error)
	IssueLicense(ctx context.Context, credential string, req services.IssueRequest) (*models.License, error)
	RevokeLicense(ctx context.Context, key, credential string) error
	UnbindLicense(ctx context.Context, key, credential string) (string, error)
	ListAttempts(ctx context.Context, key, credential string, limit int) ([]*models.Attempt, error)
}

// AdminService exchanges the admin password for a token.
type AdminService interface {
	Login(ctx context.Context, password string) (*services.AdminToken, error)
}

type GRPCServer struct {
	pb.UnimplementedLicenseServiceServer
	address  string
	licenses LicenseService
	admin    AdminService
	verifier services.CredentialVerifier
	logger   logging.Logger
	now      func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, ls LicenseService, as AdminService, v services.CredentialVerifier) (*GRPCServer, error) {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		licenses: ls,
		admin:    as,
		verifier: v,
		now:      time.Now,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the gRPC server on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.adminTokenInterceptor))

	// registers service
	pb.RegisterLicenseServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
