package grpc

import (
	"context"

	"github.com/dmitrijs2005/keybind/internal/common"
	pb "github.com/dmitrijs2005/keybind/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const adminTokenKey ctxKey = "adminToken"

var adminMethods = map[string]bool{
	pb.LicenseService_IssueLicense_FullMethodName:  true,
	pb.LicenseService_RevokeLicense_FullMethodName: true,
	pb.LicenseService_UnbindLicense_FullMethodName: true,
	pb.LicenseService_ListAttempts_FullMethodName:  true,
}

// adminTokenInterceptor requires a valid admin token in the metadata of
// administrative methods and hands it to the handler through the context.
func (s *GRPCServer) adminTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if adminMethods[info.FullMethod] {

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AdminTokenHeaderName)
			if len(values) > 0 {
				token = values[0]
			}
		}
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		if err := s.verifier.Verify(ctx, token); err != nil {
			s.logger.Warn(ctx, "rejected admin token", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, adminTokenKey, token)

	}

	return handler(ctx, req)
}

func adminTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(adminTokenKey).(string)
	return token
}
