// Package otp wraps github.com/pquerna/otp as the TOTP engine: it generates
// provisioning keys (secret, otpauth URI and QR code) and computes or checks
// codes for a base32 secret. It knows nothing about how secrets are stored.
package otp
