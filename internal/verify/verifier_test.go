package verify

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
)

type fakeResolver struct {
	mx      map[string][]*net.MX
	hosts   map[string][]string
	mxErr   error
	hostErr error
}

func (f *fakeResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if f.mxErr != nil {
		return nil, f.mxErr
	}
	if records, ok := f.mx[domain]; ok {
		return records, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: domain, IsNotFound: true}
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if f.hostErr != nil {
		return nil, f.hostErr
	}
	if addrs, ok := f.hosts[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

type fakeProber struct {
	result        ProbeResult
	lastExchanger string
	calls         int
}

func (f *fakeProber) Probe(_ context.Context, exchanger, _ string) ProbeResult {
	f.calls++
	f.lastExchanger = exchanger
	return f.result
}

func newVerifier(r Resolver, p Prober, probeEnabled bool) *Verifier {
	metrics.Init()
	return New(r, p, nil, zap.NewNop(), Config{
		ProbeEnabled: probeEnabled,
		Timeout:      time.Second,
	})
}

func TestVerify_NoMXNoAddressRecords(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{}
	for _, probeEnabled := range []bool{false, true} {
		prober := &fakeProber{}
		v := newVerifier(resolver, prober, probeEnabled)

		got := v.Verify(context.Background(), "jane@dead-domain.invalid")

		assert.Equal(t, pipeline.VerdictRejected, got.Verdict)
		assert.False(t, got.MXFound)
		assert.Nil(t, got.SMTPAccepted)
		assert.Zero(t, prober.calls)
	}
}

func TestVerify_MXFoundProbeDisabled(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"widgets.io": {{Host: "mx.widgets.io.", Pref: 10}},
	}}
	prober := &fakeProber{}
	v := newVerifier(resolver, prober, false)

	got := v.Verify(context.Background(), "jane@widgets.io")

	assert.Equal(t, pipeline.VerdictUnknown, got.Verdict)
	assert.True(t, got.MXFound)
	assert.Nil(t, got.SMTPAccepted)
	assert.Zero(t, prober.calls)
}

func TestVerify_ProbeAccepted(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"widgets.io": {
			{Host: "backup.widgets.io.", Pref: 20},
			{Host: "mx.widgets.io.", Pref: 5},
		},
	}}
	prober := &fakeProber{result: ProbeResult{Outcome: ProbeAccepted, Detail: "mx.widgets.io"}}
	v := newVerifier(resolver, prober, true)

	got := v.Verify(context.Background(), "jane@widgets.io")

	assert.Equal(t, pipeline.VerdictVerified, got.Verdict)
	assert.True(t, got.MXFound)
	require.NotNil(t, got.SMTPAccepted)
	assert.True(t, *got.SMTPAccepted)
	assert.Equal(t, "mx.widgets.io", prober.lastExchanger)
	assert.Equal(t, 1, prober.calls)
}

func TestVerify_ProbeRejected(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"widgets.io": {{Host: "mx.widgets.io.", Pref: 10}},
	}}
	prober := &fakeProber{result: ProbeResult{Outcome: ProbeRejected, Detail: "mx.widgets.io: 550"}}
	v := newVerifier(resolver, prober, true)

	got := v.Verify(context.Background(), "nobody@widgets.io")

	assert.Equal(t, pipeline.VerdictRejected, got.Verdict)
	require.NotNil(t, got.SMTPAccepted)
	assert.False(t, *got.SMTPAccepted)
}

func TestVerify_CatchAllIsUnknown(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"widgets.io": {{Host: "mx.widgets.io.", Pref: 10}},
	}}
	prober := &fakeProber{result: ProbeResult{Outcome: ProbeCatchAll, Detail: "mx.widgets.io accepts any recipient"}}
	v := newVerifier(resolver, prober, true)

	got := v.Verify(context.Background(), "jane@widgets.io")

	assert.Equal(t, pipeline.VerdictUnknown, got.Verdict)
	assert.True(t, got.MXFound)
	assert.Nil(t, got.SMTPAccepted)
}

func TestVerify_TransientDNSFailureIsUnknown(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{
		mxErr: &net.DNSError{Err: "server misbehaving", Name: "widgets.io", IsTemporary: true},
	}
	prober := &fakeProber{}
	v := newVerifier(resolver, prober, true)

	got := v.Verify(context.Background(), "jane@widgets.io")

	assert.Equal(t, pipeline.VerdictUnknown, got.Verdict)
	assert.False(t, got.MXFound)
	assert.Zero(t, prober.calls)
}

func TestVerify_AddressRecordFallback(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{hosts: map[string][]string{
		"widgets.io": {"203.0.113.10"},
	}}
	prober := &fakeProber{result: ProbeResult{Outcome: ProbeAmbiguous}}
	v := newVerifier(resolver, prober, true)

	got := v.Verify(context.Background(), "jane@widgets.io")

	assert.True(t, got.MXFound)
	assert.Equal(t, "widgets.io", prober.lastExchanger)
	assert.Equal(t, pipeline.VerdictUnknown, got.Verdict)
}

func TestVerify_MalformedAddress(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{}
	v := newVerifier(&fakeResolver{}, prober, true)

	for _, addr := range []string{"", "no-at-sign", "@widgets.io", "jane@"} {
		got := v.Verify(context.Background(), addr)
		assert.Equal(t, pipeline.VerdictUnknown, got.Verdict, addr)
		assert.Zero(t, prober.calls)
	}
}
