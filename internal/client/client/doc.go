// Package client contains the client-side gRPC wrapper for otpmail.
//
// GRPCClient talks to otpmail.MessageService over an insecure connection
// using the JSON content-subtype. Every unary call carries the access token in
// the access_token metadata key; when the server answers Unauthenticated with
// "token expired" and a TokenRefresher is configured, the token is re-minted
// and the call is retried once.
//
// Transport errors are mapped to the package sentinels (ErrUnauthorized,
// ErrUnavailable, ErrNotFound, ErrInvalidRequest) so callers can use
// errors.Is without inspecting gRPC status codes.
package client
