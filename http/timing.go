package http

import (
	"crypto/tls"
	"log/slog"
	"net/http/httptrace"
	"sync"
	"time"
)

// TimingInfo breaks a response time down into connection phases. Phases
// that did not happen, such as DNS and TLS on a reused connection, are zero.
type TimingInfo struct {
	DNSLookup    time.Duration
	TCPConnect   time.Duration
	TLSHandshake time.Duration
	// TimeToFirstByte is measured from the end of the last connection phase
	TimeToFirstByte time.Duration
	ContentTransfer time.Duration
	Total           time.Duration
}

// LogValue renders the phases in milliseconds.
func (t TimingInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("dns_ms", t.DNSLookup.Milliseconds()),
		slog.Int64("connect_ms", t.TCPConnect.Milliseconds()),
		slog.Int64("tls_ms", t.TLSHandshake.Milliseconds()),
		slog.Int64("ttfb_ms", t.TimeToFirstByte.Milliseconds()),
		slog.Int64("transfer_ms", t.ContentTransfer.Milliseconds()),
		slog.Int64("total_ms", t.Total.Milliseconds()),
	)
}

// phaseTracer records connection phases from httptrace callbacks, which
// may run on the transport's dialing goroutines.
type phaseTracer struct {
	mu           sync.Mutex
	timing       TimingInfo
	start        time.Time
	lastPhaseEnd time.Time
	dnsStart     time.Time
	connectStart time.Time
	tlsStart     time.Time
}

func newPhaseTracer(start time.Time) *phaseTracer {
	return &phaseTracer{start: start, lastPhaseEnd: start}
}

func (p *phaseTracer) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			p.mark(&p.dnsStart)
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			p.phaseDone(p.dnsStart, &p.timing.DNSLookup)
		},
		ConnectStart: func(network, addr string) {
			p.mark(&p.connectStart)
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				p.phaseDone(p.connectStart, &p.timing.TCPConnect)
			}
		},
		TLSHandshakeStart: func() {
			p.mark(&p.tlsStart)
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				p.phaseDone(p.tlsStart, &p.timing.TLSHandshake)
			}
		},
		GotFirstResponseByte: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.timing.TimeToFirstByte = time.Since(p.lastPhaseEnd)
		},
	}
}

func (p *phaseTracer) mark(t *time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*t = time.Now()
}

func (p *phaseTracer) phaseDone(started time.Time, into *time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !started.IsZero() {
		*into = now.Sub(started)
	}
	p.lastPhaseEnd = now
}

// finish closes the record once the body has been read. transfer is the
// time spent reading the body.
func (p *phaseTracer) finish(transfer time.Duration) TimingInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timing.ContentTransfer = transfer
	p.timing.Total = time.Since(p.start)
	return p.timing
}
