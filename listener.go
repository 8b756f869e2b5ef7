// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/pionwire/dtls-endpoint/internal/closer"
)

// Listener accepts DTLS connections from multiple peers over one shared
// net.PacketConn, demultiplexing inbound datagrams by remote address (C7:
// a responder has no per-peer socket the way a TCP accept loop would, so
// the session registry lives here instead of in the kernel).
type Listener struct {
	config *Config
	log    logging.LeveledLogger

	pConn *net.UDPConn

	mu       sync.Mutex
	sessions map[string]*virtualPacketConn

	acceptCh chan acceptResult
	closed   *closer.Closer
}

type acceptResult struct {
	conn *Conn
	err  error
}

// Listen opens a UDP socket at laddr and returns a Listener ready to
// Accept DTLS connections from any peer that dials in.
func Listen(network string, laddr *net.UDPAddr, config *Config) (*Listener, error) {
	if config == nil {
		return nil, errNoConfigProvided
	}

	pConn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	l := &Listener{
		config:   config,
		log:      loggerFactory.NewLogger("dtls"),
		pConn:    pConn,
		sessions: map[string]*virtualPacketConn{},
		acceptCh: make(chan acceptResult),
		closed:   closer.NewCloser(),
	}

	go l.readLoop()
	return l, nil
}

// Accept blocks until a new peer completes (or fails) its handshake.
func (l *Listener) Accept() (*Conn, error) {
	select {
	case res := <-l.acceptCh:
		return res.conn, res.err
	case <-l.closed.Done():
		return nil, ErrConnClosed
	}
}

// Addr returns the Listener's local network address.
func (l *Listener) Addr() net.Addr {
	return l.pConn.LocalAddr()
}

// Close shuts down the underlying socket and every in-flight session.
func (l *Listener) Close() error {
	l.closed.Close()
	err := l.pConn.Close()

	l.mu.Lock()
	for _, vc := range l.sessions {
		vc.closeLocally()
	}
	l.mu.Unlock()

	return err
}

const listenerReadBufferSize = 8192

func (l *Listener) readLoop() {
	buf := make([]byte, listenerReadBufferSize)
	for {
		n, rAddr, err := l.pConn.ReadFrom(buf)
		if err != nil {
			return
		}

		packet := append([]byte{}, buf[:n]...)
		vc, isNew := l.sessionFor(rAddr)
		if isNew {
			go l.handshakeSession(vc, rAddr)
		}
		vc.push(packet)
	}
}

func (l *Listener) sessionFor(rAddr net.Addr) (vc *virtualPacketConn, isNew bool) {
	key := rAddr.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.sessions[key]; ok {
		return existing, false
	}

	vc = newVirtualPacketConn(l.pConn, rAddr, func() {
		l.mu.Lock()
		delete(l.sessions, key)
		l.mu.Unlock()
	})
	l.sessions[key] = vc
	return vc, true
}

func (l *Listener) handshakeSession(vc *virtualPacketConn, rAddr net.Addr) {
	ctx, cancel := l.config.connectContextMaker()
	defer cancel()

	conn, err := ServerWithContext(ctx, vc, rAddr, l.config)
	select {
	case l.acceptCh <- acceptResult{conn: conn, err: err}:
	case <-l.closed.Done():
		if conn != nil {
			_ = conn.Close()
		}
	}
}

// virtualPacketConn is a net.PacketConn façade over one peer's slice of a
// shared UDP socket: reads are fed in from the Listener's demux loop,
// writes go straight out the shared socket addressed at the owning peer.
type virtualPacketConn struct {
	shared *net.UDPConn
	rAddr  net.Addr

	inbound chan []byte
	closed  *closer.Closer
	onClose func()
}

func newVirtualPacketConn(shared *net.UDPConn, rAddr net.Addr, onClose func()) *virtualPacketConn {
	return &virtualPacketConn{
		shared:  shared,
		rAddr:   rAddr,
		inbound: make(chan []byte, 128),
		closed:  closer.NewCloser(),
		onClose: onClose,
	}
}

func (v *virtualPacketConn) push(p []byte) {
	select {
	case v.inbound <- p:
	case <-v.closed.Done():
	default:
		// Backlog full: drop, matching the bounded queueing the Conn
		// layer itself applies to packets ahead of its current epoch.
	}
}

func (v *virtualPacketConn) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case data := <-v.inbound:
		n := copy(p, data)
		return n, v.rAddr, nil
	case <-v.closed.Done():
		return 0, nil, net.ErrClosed
	}
}

func (v *virtualPacketConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	return v.shared.WriteTo(p, addr)
}

func (v *virtualPacketConn) closeLocally() {
	v.closed.Close()
}

func (v *virtualPacketConn) Close() error {
	v.closeLocally()
	if v.onClose != nil {
		v.onClose()
	}
	return nil
}

func (v *virtualPacketConn) LocalAddr() net.Addr { return v.shared.LocalAddr() }

// Deadlines are enforced by the Conn layer's own deadline.Deadline, not by
// this façade (mirrors Conn.SetReadDeadline/SetWriteDeadline).
func (v *virtualPacketConn) SetDeadline(_ time.Time) error      { return nil }
func (v *virtualPacketConn) SetReadDeadline(_ time.Time) error  { return nil }
func (v *virtualPacketConn) SetWriteDeadline(_ time.Time) error { return nil }

var _ net.PacketConn = (*virtualPacketConn)(nil)
