/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scan

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

const (
	// DefaultProbeTimeout bounds a probe, including name resolution.
	DefaultProbeTimeout = 2 * time.Second

	protocolICMP     = 1
	protocolICMPv6   = 58
	replyBufferSize  = 1500
	defaultIDModulus = 65536
)

var echoPayload = []byte("devicewatch-probe")

// ICMPProber sends a single ICMP echo request per probe.
type ICMPProber struct {
	timeout    time.Duration
	privileged bool
	identifier int
	seq        atomic.Uint32
	resolver   *net.Resolver
	logger     logger.Logger
	now        func() time.Time
	listen     func(network, address string) (*icmp.PacketConn, error)

	// set after a socket failure has been reported, cleared on the next successful open
	socketWarned atomic.Bool
}

var _ Prober = (*ICMPProber)(nil)

// ICMPOption configures an ICMPProber.
type ICMPOption func(*ICMPProber)

// WithPrivileged switches to raw ICMP sockets, which require CAP_NET_RAW.
// The default uses unprivileged datagram ICMP sockets.
func WithPrivileged(privileged bool) ICMPOption {
	return func(p *ICMPProber) {
		p.privileged = privileged
	}
}

// WithResolver overrides the resolver used for hostnames.
func WithResolver(r *net.Resolver) ICMPOption {
	return func(p *ICMPProber) {
		p.resolver = r
	}
}

// NewICMPProber creates a prober. A non-positive timeout selects DefaultProbeTimeout.
func NewICMPProber(timeout time.Duration, log logger.Logger, opts ...ICMPOption) *ICMPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	p := &ICMPProber{
		timeout:    timeout,
		identifier: os.Getpid() % defaultIDModulus,
		resolver:   net.DefaultResolver,
		logger:     log,
		now:        time.Now,
		listen:     icmp.ListenPacket,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe resolves address and waits for one echo reply within the timeout.
func (p *ICMPProber) Probe(ctx context.Context, address string) models.ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := models.ProbeResult{Address: address}

	rtt, err := p.ping(ctx, address)

	result.CheckedAt = p.now()

	if err != nil {
		p.logger.Debug().Err(err).Str("address", address).Msg("Probe failed")
		return result
	}

	result.Alive = true
	result.RTT = rtt

	return result
}

func (p *ICMPProber) ping(ctx context.Context, address string) (time.Duration, error) {
	ip, err := p.resolve(ctx, address)
	if err != nil {
		return 0, err
	}

	v4 := ip.To4() != nil

	network, listenAddr := p.network(v4)

	conn, err := p.listen(network, listenAddr)
	if err != nil {
		p.reportSocketFailure(network, err)
		return 0, fmt.Errorf("failed to open ICMP socket: %w", err)
	}

	p.socketWarned.Store(false)
	defer func() { _ = conn.Close() }()

	// unblock ReadFrom on cancellation as well as on deadline
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return 0, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	seq := int(p.seq.Add(1) & 0xffff)

	request, err := p.echoRequest(v4, seq)
	if err != nil {
		return 0, err
	}

	dst := p.destination(ip)
	start := time.Now()

	if _, err := conn.WriteTo(request, dst); err != nil {
		return 0, fmt.Errorf("failed to send echo request: %w", err)
	}

	buf := make([]byte, replyBufferSize)

	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}

			return 0, fmt.Errorf("failed to read reply: %w", err)
		}

		if !p.matches(buf[:n], peer, ip, v4, seq) {
			continue
		}

		return time.Since(start), nil
	}
}

// reportSocketFailure warns once per run of failures: without a socket every
// device reads as offline, which otherwise looks like a network outage.
func (p *ICMPProber) reportSocketFailure(network string, err error) {
	if !p.socketWarned.CompareAndSwap(false, true) {
		return
	}

	hint := "check net.ipv4.ping_group_range or enable icmp.privileged"
	if p.privileged {
		hint = "raw ICMP sockets need CAP_NET_RAW"
	}

	p.logger.Warn().
		Err(err).
		Str("network", network).
		Str("hint", hint).
		Msg("Cannot open ICMP socket, all probes will report devices offline")
}

func (p *ICMPProber) resolve(ctx context.Context, address string) (net.IP, error) {
	if ip := net.ParseIP(address); ip != nil {
		return ip, nil
	}

	addrs, err := p.resolver.LookupIPAddr(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", address, err)
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s: %w", address, errNoAddresses)
	}

	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP, nil
		}
	}

	return addrs[0].IP, nil
}

func (p *ICMPProber) network(v4 bool) (network, listen string) {
	switch {
	case v4 && p.privileged:
		return "ip4:icmp", "0.0.0.0"
	case v4:
		return "udp4", "0.0.0.0"
	case p.privileged:
		return "ip6:ipv6-icmp", "::"
	default:
		return "udp6", "::"
	}
}

func (p *ICMPProber) destination(ip net.IP) net.Addr {
	if p.privileged {
		return &net.IPAddr{IP: ip}
	}

	return &net.UDPAddr{IP: ip}
}

func (p *ICMPProber) echoRequest(v4 bool, seq int) ([]byte, error) {
	var typ icmp.Type = ipv6.ICMPTypeEchoRequest
	if v4 {
		typ = ipv4.ICMPTypeEcho
	}

	msg := icmp.Message{
		Type: typ,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.identifier,
			Seq:  seq,
			Data: echoPayload,
		},
	}

	b, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal echo request: %w", err)
	}

	return b, nil
}

// matches reports whether a packet is the echo reply to our request. With
// datagram sockets the kernel rewrites the identifier, so only the sequence
// number and payload are compared.
func (p *ICMPProber) matches(packet []byte, peer net.Addr, dst net.IP, v4 bool, seq int) bool {
	proto := protocolICMPv6
	if v4 {
		proto = protocolICMP
	}

	msg, err := icmp.ParseMessage(proto, packet)
	if err != nil {
		return false
	}

	if msg.Type != ipv4.ICMPTypeEchoReply && msg.Type != ipv6.ICMPTypeEchoReply {
		return false
	}

	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || echo.Seq != seq || string(echo.Data) != string(echoPayload) {
		return false
	}

	if p.privileged && echo.ID != p.identifier {
		return false
	}

	if peerIP := addrIP(peer); peerIP != nil && !peerIP.Equal(dst) {
		p.logger.Debug().Err(errUnexpectedReply).
			Str("expected", dst.String()).
			Str("peer", peerIP.String()).
			Msg("Ignoring echo reply from another host")

		return false
	}

	return true
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}
