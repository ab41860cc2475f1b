package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProbeOutcome classifies a single SMTP handshake attempt.
type ProbeOutcome int

// Handshake outcomes.
const (
	// ProbeAccepted means the exchanger accepted the address and rejected a
	// control recipient, so the acceptance is address-specific.
	ProbeAccepted ProbeOutcome = iota
	// ProbeCatchAll means the exchanger accepted the control recipient too;
	// acceptance proves nothing about the address.
	ProbeCatchAll
	// ProbeRejected means the exchanger returned a permanent, address-specific
	// rejection (5xx on RCPT).
	ProbeRejected
	// ProbeAmbiguous covers refused connections, timeouts, greylisting, and
	// every other failure that does not implicate the address itself.
	ProbeAmbiguous
)

// ProbeResult is the outcome of one handshake plus a short diagnostic.
type ProbeResult struct {
	Outcome ProbeOutcome
	Detail  string
}

// Prober asks a mail exchanger whether it would accept mail for an address,
// without transmitting a message body.
type Prober interface {
	Probe(ctx context.Context, exchanger, address string) ProbeResult
}

// smtpProber performs a minimal HELO/MAIL/RCPT exchange over port 25.
type smtpProber struct {
	timeout    time.Duration
	port       int
	heloDomain string
	mailFrom   string
}

// NewSMTPProber builds the production Prober.
func NewSMTPProber(timeout time.Duration, port int, heloDomain, mailFrom string) Prober {
	if port <= 0 {
		port = 25
	}
	return &smtpProber{
		timeout:    timeout,
		port:       port,
		heloDomain: heloDomain,
		mailFrom:   mailFrom,
	}
}

// Probe opens one connection and never retries. A second RCPT for a
// randomized recipient on the same domain distinguishes address-specific
// acceptance from catch-all behavior.
func (p *smtpProber) Probe(ctx context.Context, exchanger, address string) ProbeResult {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(exchanger, strconv.Itoa(p.port)))
	if err != nil {
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: fmt.Sprintf("dial %s: connection failed", exchanger)}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: "set deadline failed"}
	}

	client, err := smtp.NewClient(conn, exchanger)
	if err != nil {
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: "banner read failed"}
	}
	defer client.Close()

	if err := client.Hello(p.heloDomain); err != nil {
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: "helo refused"}
	}
	if err := client.Mail(p.mailFrom); err != nil {
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: "mail from refused"}
	}

	if err := client.Rcpt(address); err != nil {
		if isPermanentReject(err) {
			return ProbeResult{Outcome: ProbeRejected, Detail: fmt.Sprintf("%s: %s", exchanger, rejectCode(err))}
		}
		return ProbeResult{Outcome: ProbeAmbiguous, Detail: fmt.Sprintf("%s: %s", exchanger, rejectCode(err))}
	}

	// The exchanger said yes. Many servers say yes to everything during
	// probing; a control recipient that also passes makes the answer useless.
	if err := client.Rcpt(controlRecipient(address)); err != nil && isPermanentReject(err) {
		return ProbeResult{Outcome: ProbeAccepted, Detail: exchanger}
	}
	return ProbeResult{Outcome: ProbeCatchAll, Detail: fmt.Sprintf("%s accepts any recipient", exchanger)}
}

// controlRecipient builds an address on the same domain that cannot
// plausibly exist.
func controlRecipient(address string) string {
	domain := address
	if at := strings.LastIndex(address, "@"); at >= 0 {
		domain = address[at+1:]
	}
	return "vp-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@" + domain
}

func isPermanentReject(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 500 && tpErr.Code < 600
	}
	return false
}

func rejectCode(err error) string {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return strconv.Itoa(tpErr.Code)
	}
	return "io error"
}
