// Package client talks to the keybind gRPC API on behalf of licensectl.
//
// GRPCClient manages the connection, attaches the admin token to outgoing
// calls and maps gRPC status codes to the sentinel errors in errors.go, so
// callers can match them with errors.Is.
package client
