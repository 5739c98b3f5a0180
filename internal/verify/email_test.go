package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/enrich-cli/internal/config"
)

type setVerifier map[string]bool

func (v setVerifier) Verify(_ context.Context, email string) bool { return v[email] }

func TestFilterVerified(t *testing.T) {
	verifier := setVerifier{"info@acme.com": true, "sales@acme.com": true}
	emails := []string{"sales@acme.com", "bogus@acme.com", "info@acme.com"}

	out := FilterVerified(context.Background(), verifier, emails)
	assert.Equal(t, []string{"sales@acme.com", "info@acme.com"}, out, "order preserved")
}

func TestFilterVerified_NilVerifier(t *testing.T) {
	assert.Nil(t, FilterVerified(context.Background(), nil, []string{"info@acme.com"}))
}

func TestFilterVerified_Empty(t *testing.T) {
	assert.Empty(t, FilterVerified(context.Background(), setVerifier{}, nil))
}

func TestSMTPVerifier_BadSyntax(t *testing.T) {
	v := NewSMTPVerifier(config.VerifyConfig{TimeoutSecs: 1, HeloDomain: "localhost", FromAddress: "probe@localhost"})

	for _, email := range []string{"", "no-at-sign", "@acme.com", "info@"} {
		assert.False(t, v.probe(context.Background(), email), email)
	}
}
