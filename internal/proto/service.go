package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "keybind.v1.LicenseService"

const (
	LicenseService_Authenticate_FullMethodName  = "/" + ServiceName + "/Authenticate"
	LicenseService_CheckLicense_FullMethodName  = "/" + ServiceName + "/CheckLicense"
	LicenseService_IssueLicense_FullMethodName  = "/" + ServiceName + "/IssueLicense"
	LicenseService_RevokeLicense_FullMethodName = "/" + ServiceName + "/RevokeLicense"
	LicenseService_UnbindLicense_FullMethodName = "/" + ServiceName + "/UnbindLicense"
	LicenseService_ListAttempts_FullMethodName  = "/" + ServiceName + "/ListAttempts"
	LicenseService_AdminLogin_FullMethodName    = "/" + ServiceName + "/AdminLogin"
	LicenseService_Ping_FullMethodName          = "/" + ServiceName + "/Ping"
)

// LicenseServiceServer is the server API for keybind.v1.LicenseService.
type LicenseServiceServer interface {
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	CheckLicense(context.Context, *CheckLicenseRequest) (*CheckLicenseResponse, error)
	IssueLicense(context.Context, *IssueLicenseRequest) (*IssueLicenseResponse, error)
	RevokeLicense(context.Context, *RevokeLicenseRequest) (*RevokeLicenseResponse, error)
	UnbindLicense(context.Context, *UnbindLicenseRequest) (*UnbindLicenseResponse, error)
	ListAttempts(context.Context, *ListAttemptsRequest) (*ListAttemptsResponse, error)
	AdminLogin(context.Context, *AdminLoginRequest) (*AdminLoginResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedLicenseServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedLicenseServiceServer struct{}

func (UnimplementedLicenseServiceServer) Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Authenticate not implemented")
}
func (UnimplementedLicenseServiceServer) CheckLicense(context.Context, *CheckLicenseRequest) (*CheckLicenseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckLicense not implemented")
}
func (UnimplementedLicenseServiceServer) IssueLicense(context.Context, *IssueLicenseRequest) (*IssueLicenseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IssueLicense not implemented")
}
func (UnimplementedLicenseServiceServer) RevokeLicense(context.Context, *RevokeLicenseRequest) (*RevokeLicenseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RevokeLicense not implemented")
}
func (UnimplementedLicenseServiceServer) UnbindLicense(context.Context, *UnbindLicenseRequest) (*UnbindLicenseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnbindLicense not implemented")
}
func (UnimplementedLicenseServiceServer) ListAttempts(context.Context, *ListAttemptsRequest) (*ListAttemptsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAttempts not implemented")
}
func (UnimplementedLicenseServiceServer) AdminLogin(context.Context, *AdminLoginRequest) (*AdminLoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AdminLogin not implemented")
}
func (UnimplementedLicenseServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterLicenseServiceServer(s grpc.ServiceRegistrar, srv LicenseServiceServer) {
	s.RegisterService(&LicenseService_ServiceDesc, srv)
}

// unary adapts a typed server method to a grpc method handler.
func unary[Req any, Resp any](fullMethod string, call func(LicenseServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LicenseServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LicenseServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var LicenseService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LicenseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: unary(LicenseService_Authenticate_FullMethodName, LicenseServiceServer.Authenticate)},
		{MethodName: "CheckLicense", Handler: unary(LicenseService_CheckLicense_FullMethodName, LicenseServiceServer.CheckLicense)},
		{MethodName: "IssueLicense", Handler: unary(LicenseService_IssueLicense_FullMethodName, LicenseServiceServer.IssueLicense)},
		{MethodName: "RevokeLicense", Handler: unary(LicenseService_RevokeLicense_FullMethodName, LicenseServiceServer.RevokeLicense)},
		{MethodName: "UnbindLicense", Handler: unary(LicenseService_UnbindLicense_FullMethodName, LicenseServiceServer.UnbindLicense)},
		{MethodName: "ListAttempts", Handler: unary(LicenseService_ListAttempts_FullMethodName, LicenseServiceServer.ListAttempts)},
		{MethodName: "AdminLogin", Handler: unary(LicenseService_AdminLogin_FullMethodName, LicenseServiceServer.AdminLogin)},
		{MethodName: "Ping", Handler: unary(LicenseService_Ping_FullMethodName, LicenseServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keybind/v1/license.proto",
}

// LicenseServiceClient is the client API for keybind.v1.LicenseService.
type LicenseServiceClient interface {
	Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error)
	CheckLicense(ctx context.Context, in *CheckLicenseRequest, opts ...grpc.CallOption) (*CheckLicenseResponse, error)
	IssueLicense(ctx context.Context, in *IssueLicenseRequest, opts ...grpc.CallOption) (*IssueLicenseResponse, error)
	RevokeLicense(ctx context.Context, in *RevokeLicenseRequest, opts ...grpc.CallOption) (*RevokeLicenseResponse, error)
	UnbindLicense(ctx context.Context, in *UnbindLicenseRequest, opts ...grpc.CallOption) (*UnbindLicenseResponse, error)
	ListAttempts(ctx context.Context, in *ListAttemptsRequest, opts ...grpc.CallOption) (*ListAttemptsResponse, error)
	AdminLogin(ctx context.Context, in *AdminLoginRequest, opts ...grpc.CallOption) (*AdminLoginResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type licenseServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLicenseServiceClient(cc grpc.ClientConnInterface) LicenseServiceClient {
	return &licenseServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *licenseServiceClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error) {
	return invoke[AuthenticateResponse](ctx, c.cc, LicenseService_Authenticate_FullMethodName, in, opts)
}

func (c *licenseServiceClient) CheckLicense(ctx context.Context, in *CheckLicenseRequest, opts ...grpc.CallOption) (*CheckLicenseResponse, error) {
	return invoke[CheckLicenseResponse](ctx, c.cc, LicenseService_CheckLicense_FullMethodName, in, opts)
}

func (c *licenseServiceClient) IssueLicense(ctx context.Context, in *IssueLicenseRequest, opts ...grpc.CallOption) (*IssueLicenseResponse, error) {
	return invoke[IssueLicenseResponse](ctx, c.cc, LicenseService_IssueLicense_FullMethodName, in, opts)
}

func (c *licenseServiceClient) RevokeLicense(ctx context.Context, in *RevokeLicenseRequest, opts ...grpc.CallOption) (*RevokeLicenseResponse, error) {
	return invoke[RevokeLicenseResponse](ctx, c.cc, LicenseService_RevokeLicense_FullMethodName, in, opts)
}

func (c *licenseServiceClient) UnbindLicense(ctx context.Context, in *UnbindLicenseRequest, opts ...grpc.CallOption) (*UnbindLicenseResponse, error) {
	return invoke[UnbindLicenseResponse](ctx, c.cc, LicenseService_UnbindLicense_FullMethodName, in, opts)
}

func (c *licenseServiceClient) ListAttempts(ctx context.Context, in *ListAttemptsRequest, opts ...grpc.CallOption) (*ListAttemptsResponse, error) {
	return invoke[ListAttemptsResponse](ctx, c.cc, LicenseService_ListAttempts_FullMethodName, in, opts)
}

func (c *licenseServiceClient) AdminLogin(ctx context.Context, in *AdminLoginRequest, opts ...grpc.CallOption) (*AdminLoginResponse, error) {
	return invoke[AdminLoginResponse](ctx, c.cc, LicenseService_AdminLogin_FullMethodName, in, opts)
}

func (c *licenseServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, LicenseService_Ping_FullMethodName, in, opts)
}
