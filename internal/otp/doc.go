// Package otp implements the one-time-pad transform used for messages.
//
// A message is an ordered list of segments (subject, body, attachment). Each
// segment consumes its own slice of the key: segment i starts where segment
// i-1 ended, so no key byte is used twice within one message. The transform
// is a plain XOR and therefore its own inverse. Ciphertext travels as
// lowercase hex.
//
// The package is stateless; every function is safe for concurrent use.
package otp
