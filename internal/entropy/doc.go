// Package entropy supplies the random bytes that become one-time-pad keys.
//
// QRNGSource asks an external quantum random number service over HTTP,
// LocalSource reads crypto/rand, and FallbackSource chains the two so that an
// unreachable service degrades to local randomness without the caller
// noticing (operators see a warning in the log).
package entropy
