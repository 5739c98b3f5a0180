package verify

import (
	"context"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/monitoring"
)

// EmailVerifier checks deliverability of an address. Implementations are
// fail-closed: any error or timeout reports the address as unverified.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) bool
}

// SMTPVerifier probes the address's MX host with a MAIL FROM / RCPT TO
// handshake and quits before DATA. Every failure path (bad syntax, no MX,
// dial error, rejected RCPT, timeout) yields false.
type SMTPVerifier struct {
	timeout time.Duration
	helo    string
	from    string
}

// NewSMTPVerifier creates an SMTPVerifier from config.
func NewSMTPVerifier(cfg config.VerifyConfig) *SMTPVerifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPVerifier{
		timeout: timeout,
		helo:    cfg.HeloDomain,
		from:    cfg.FromAddress,
	}
}

// Verify probes one address. The whole handshake shares a single deadline.
func (v *SMTPVerifier) Verify(ctx context.Context, email string) bool {
	ok := v.probe(ctx, email)
	result := "unverified"
	if ok {
		result = "verified"
	}
	monitoring.EmailProbes.WithLabelValues(result).Inc()
	return ok
}

func (v *SMTPVerifier) probe(ctx context.Context, email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	probeCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var resolver net.Resolver
	mxs, err := resolver.LookupMX(probeCtx, domain)
	if err != nil || len(mxs) == 0 {
		zap.L().Debug("verify: mx lookup failed", zap.String("domain", domain), zap.Error(err))
		return false
	}

	dialer := net.Dialer{Timeout: v.timeout}
	conn, err := dialer.DialContext(probeCtx, "tcp", strings.TrimSuffix(mxs[0].Host, ".")+":25")
	if err != nil {
		zap.L().Debug("verify: dial failed", zap.String("domain", domain), zap.Error(err))
		return false
	}
	defer func() { _ = conn.Close() }()

	// One deadline covers the whole handshake.
	if deadline, ok := probeCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, domain)
	if err != nil {
		return false
	}
	defer func() { _ = client.Close() }()

	if err := client.Hello(v.helo); err != nil {
		return false
	}
	if err := client.Mail(v.from); err != nil {
		return false
	}
	if err := client.Rcpt(email); err != nil {
		zap.L().Debug("verify: rcpt rejected", zap.String("email", email), zap.Error(err))
		return false
	}
	_ = client.Quit()
	return true
}

// FilterVerified returns only the addresses the verifier accepts. Order is
// preserved. With a nil verifier nothing passes.
func FilterVerified(ctx context.Context, verifier EmailVerifier, emails []string) []string {
	if verifier == nil {
		return nil
	}
	var out []string
	for _, e := range emails {
		if verifier.Verify(ctx, e) {
			out = append(out, e)
		}
	}
	return out
}
