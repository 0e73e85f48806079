// Package common contains shared constants, sentinel errors and small helpers
// used by both the keybind server and the licensectl client.
package common

// AdminTokenHeaderName is the gRPC metadata key carrying the administrative
// token on outbound requests.
const AdminTokenHeaderName = "admin_token"

// LicenseKeyAlphabet is the character set license keys are drawn from.
const LicenseKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LicenseKeyLength is the number of characters in a generated key.
// 32 characters over a 36-symbol alphabet give roughly 165 bits of entropy.
const LicenseKeyLength = 32

// DefaultExpiryDays is used when an issuance request omits expiry_days.
const DefaultExpiryDays = 30
