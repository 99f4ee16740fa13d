package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
)

const (
	// DefaultOTPLength is also the minimum accepted code length
	DefaultOTPLength = 6
	DefaultOTPTTL    = 15 * time.Minute
)

// OTPGeneratorImpl implements domain.OTPGenerator with crypto/rand digits
type OTPGeneratorImpl struct {
	length int
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// NewOTPGenerator creates a generator. Lengths below DefaultOTPLength and
// non-positive TTLs fall back to the defaults.
func NewOTPGenerator(length int, ttl time.Duration) *OTPGeneratorImpl {
	if length < DefaultOTPLength {
		length = DefaultOTPLength
	}
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPGeneratorImpl{
		length: length,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}
}

var _ domain.OTPGenerator = (*OTPGeneratorImpl)(nil)

// Generate implements domain.OTPGenerator
func (g *OTPGeneratorImpl) Generate() (domain.OTPChallenge, error) {
	code, err := randomString(g.random, digits, g.length)
	if err != nil {
		return domain.OTPChallenge{}, fmt.Errorf("failed to generate OTP code: %w", err)
	}
	return domain.OTPChallenge{
		Code:      code,
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

const (
	digits       = "0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// randomString draws n characters uniformly from alphabet
func randomString(r io.Reader, alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(r, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
