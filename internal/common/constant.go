package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultMinKeyLength is the floor applied to every generated key, in bytes.
const DefaultMinKeyLength = 128
