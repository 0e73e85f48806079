package common

import (
	"crypto/rand"
	"math/big"
)

// GenerateLicenseKey draws LicenseKeyLength characters uniformly from
// LicenseKeyAlphabet using crypto/rand.
func GenerateLicenseKey() (string, error) {
	return randomString(LicenseKeyAlphabet, LicenseKeyLength)
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
