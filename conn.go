// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/deadline"
	"github.com/pion/transport/v3/netctx"

	"github.com/pionwire/dtls-endpoint/internal/closer"
	"github.com/pionwire/dtls-endpoint/internal/fragmentbuffer"
	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

const (
	inboundBufferSize = 8192
	// maxAppDataPacketQueueSize bounds how many application-data records
	// this endpoint buffers for an epoch its cipher state hasn't reached
	// yet (the handshake hasn't finished, or an in-flight CCS hasn't been
	// processed), spec §5.
	maxAppDataPacketQueueSize = 100
)

// addrPkt is one raw datagram queued for later processing because it
// arrived ahead of the epoch this Conn can currently decrypt.
type addrPkt struct {
	rAddr net.Addr
	data  []byte
}

// Conn is one DTLS association over an underlying net.PacketConn, spec
// §5's Endpoint glue (C8): it owns the handshake FSM, the per-peer
// fragment/transcript state, and the Read/Write surface an application
// sees once the handshake completes.
type Conn struct {
	lock           sync.RWMutex
	nextConn       netctx.PacketConn
	fragmentBuffer *fragmentbuffer.FragmentBuffer
	handshakeCache *handshakecache.Cache
	decrypted      chan interface{}
	rAddr          net.Addr
	state          State

	maximumTransmissionUnit int

	handshakeCompletedSuccessfully atomic.Value

	encryptedPackets []addrPkt

	connectionClosedByUser bool
	closeLock              sync.Mutex
	closed                 *closer.Closer
	handshakeLoopsFinished sync.WaitGroup

	readDeadline  *deadline.Deadline
	writeDeadline *deadline.Deadline

	log logging.LeveledLogger

	handshakeRecv         chan chan struct{}
	cancelHandshaker      func()
	cancelHandshakeReader func()

	fsm *handshakeFSM

	replayProtectionWindow uint
}

func createConn(nextConn net.PacketConn, rAddr net.Addr, config *Config, isClient bool) (*Conn, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if nextConn == nil {
		return nil, errNilNextConn
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	logger := loggerFactory.NewLogger("dtls")

	c := &Conn{
		rAddr:                   rAddr,
		nextConn:                netctx.NewPacketConn(nextConn),
		fragmentBuffer:          fragmentbuffer.New(),
		handshakeCache:          handshakecache.New(),
		maximumTransmissionUnit: config.mtuFor(rAddr),

		decrypted: make(chan interface{}, 1),
		log:       logger,

		readDeadline:  deadline.New(),
		writeDeadline: deadline.New(),

		handshakeRecv:    make(chan chan struct{}),
		closed:           closer.NewCloser(),
		cancelHandshaker: func() {},

		replayProtectionWindow: config.replayProtectionWindow(),

		// DTLS 1.2 is this endpoint's preferred version; the handshake
		// engine downgrades it on HelloVerifyRequest/ServerHello per
		// spec §4.5 if the peer advertises something older.
		state: State{isClient: isClient, version: protocol.Version1_2},
	}

	c.setRemoteEpoch(0)
	c.setLocalEpoch(0)
	return c, nil
}

func handshakeConn(ctx context.Context, conn *Conn, config *Config, isClient bool) (*Conn, error) {
	if conn == nil {
		return nil, errNilNextConn
	}

	cipherSuites, err := parseCipherSuites(config.CipherSuites)
	if err != nil {
		return nil, err
	}

	signatureSchemes, err := signaturehash.ParseSignatureSchemes(config.SignatureSchemes, config.InsecureHashes)
	if err != nil {
		return nil, err
	}

	serverName := config.ServerName
	// Do not allow the use of an IP address literal as an SNI value, RFC
	// 6066 Section 3.
	if net.ParseIP(serverName) != nil {
		serverName = ""
	}

	curves := config.EllipticCurves
	if len(curves) == 0 {
		curves = elliptic.SupportedCurves()
	}

	hsCfg := &handshakeConfig{
		localPSKCallback:          config.PSK,
		localPSKIdentityHint:      config.PSKIdentityHint,
		localCipherSuites:         cipherSuites,
		localSignatureSchemes:     signatureSchemes,
		extendedMasterSecret:      config.ExtendedMasterSecret,
		serverName:                serverName,
		clientAuth:                config.ClientAuth,
		localCertificates:         config.Certificates,
		localGetCertificate:       config.GetCertificate,
		localGetClientCertificate: config.GetClientCertificate,
		insecureSkipVerify:        config.InsecureSkipVerify,
		insecureSkipVerifyHello:   config.InsecureSkipVerifyHello,
		verifyPeerCertificate:     config.VerifyPeerCertificate,
		rootCAs:                   config.RootCAs,
		clientCAs:                 config.ClientCAs,
		ellipticCurves:            curves,
		retransmitInterval:        config.retransmitInterval(),
		disableRetransmitBackoff:  config.DisableRetransmitBackoff,
		log:                       conn.log,
		initialEpoch:              0,
		keyLogWriter:              config.KeyLogWriter,
		helloRandomBytesGenerator: config.HelloRandomBytesGenerator,
		serverVersion:             config.serverVersion(),
	}

	var initialFlight flightVal
	if isClient {
		initialFlight = flight1
	} else {
		initialFlight = flight0

		// RFC 5246 Section 7.4.3: a server only offers the cipher suites its
		// configured credentials (certificate, PSK callback) can serve.
		hsCfg.localCipherSuites = filterCipherSuitesForCertificate(cipherSuites, config.includeCertificateSuites(), config.PSK != nil)

		cookieGen, err := newCookieGenerator()
		if err != nil {
			return nil, err
		}
		hsCfg.cookieGenerator = cookieGen
	}

	if err := conn.handshake(ctx, hsCfg, initialFlight); err != nil {
		return nil, err
	}

	conn.log.Trace("handshake completed")
	return conn, nil
}

// Dial connects to the given network address and establishes a DTLS
// connection over it. The handshake attempt is bounded by
// Config.ConnectContextMaker (default: no deadline).
func Dial(network string, rAddr *net.UDPAddr, config *Config) (*Conn, error) {
	ctx, cancel := config.connectContextMaker()
	defer cancel()
	return DialWithContext(ctx, network, rAddr, config)
}

// Client establishes a DTLS connection, as the initiator, over an
// existing net.PacketConn.
func Client(conn net.PacketConn, rAddr net.Addr, config *Config) (*Conn, error) {
	ctx, cancel := config.connectContextMaker()
	defer cancel()
	return ClientWithContext(ctx, conn, rAddr, config)
}

// Server listens for a single incoming DTLS connection, as the
// responder, over an existing net.PacketConn.
func Server(conn net.PacketConn, rAddr net.Addr, config *Config) (*Conn, error) {
	ctx, cancel := config.connectContextMaker()
	defer cancel()
	return ServerWithContext(ctx, conn, rAddr, config)
}

// DialWithContext connects to the given network address and establishes
// a DTLS connection over it, bounded by ctx.
func DialWithContext(ctx context.Context, network string, rAddr *net.UDPAddr, config *Config) (*Conn, error) {
	// net.ListenUDP rather than net.DialUDP: the latter would prevent
	// WriteTo from addressing rAddr explicitly.
	pConn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, err
	}
	return ClientWithContext(ctx, pConn, rAddr, config)
}

// ClientWithContext establishes a DTLS connection, as the initiator,
// over an existing net.PacketConn, bounded by ctx.
func ClientWithContext(ctx context.Context, conn net.PacketConn, rAddr net.Addr, config *Config) (*Conn, error) {
	switch {
	case config == nil:
		return nil, errNoConfigProvided
	case config.PSK != nil && config.PSKIdentityHint == nil:
		return nil, errPSKAndIdentityMustBeSetForClient
	}

	dconn, err := createConn(conn, rAddr, config, true)
	if err != nil {
		return nil, err
	}
	return handshakeConn(ctx, dconn, config, true)
}

// ServerWithContext accepts a single incoming DTLS connection, as the
// responder, over an existing net.PacketConn, bounded by ctx.
func ServerWithContext(ctx context.Context, conn net.PacketConn, rAddr net.Addr, config *Config) (*Conn, error) {
	if config == nil {
		return nil, errNoConfigProvided
	}
	dconn, err := createConn(conn, rAddr, config, false)
	if err != nil {
		return nil, err
	}
	return handshakeConn(ctx, dconn, config, false)
}

// Read reads decrypted application data from the connection. Before the
// handshake has completed successfully it returns errHandshakeInProgress
// without blocking.
func (c *Conn) Read(p []byte) (n int, err error) {
	if !c.isHandshakeCompletedSuccessfully() {
		return 0, errHandshakeInProgress
	}

	select {
	case <-c.readDeadline.Done():
		return 0, errDeadlineExceeded
	default:
	}

	select {
	case <-c.readDeadline.Done():
		return 0, errDeadlineExceeded
	case out, ok := <-c.decrypted:
		if !ok {
			return 0, io.EOF
		}
		switch val := out.(type) {
		case []byte:
			if len(p) < len(val) {
				return 0, errBufferTooSmall
			}
			return copy(p, val), nil
		case error:
			return 0, val
		}
	}
	return 0, nil
}

// Write encrypts and sends p as a single application-data record.
func (c *Conn) Write(p []byte) (int, error) {
	if c.isConnectionClosed() {
		return 0, ErrConnClosed
	}

	select {
	case <-c.writeDeadline.Done():
		return 0, errDeadlineExceeded
	default:
	}

	if !c.isHandshakeCompletedSuccessfully() {
		return 0, errHandshakeInProgress
	}

	return len(p), c.writePackets(c.writeDeadline, []*packet{
		{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{
					ContentType: protocol.ContentTypeApplicationData,
					Epoch:       c.state.getLocalEpoch(),
					Version:     c.state.version,
				},
				Content: &protocol.ApplicationData{Data: p},
			},
			shouldEncrypt: true,
		},
	})
}

// Close shuts down the connection, notifying the peer with a
// close_notify alert if the handshake had already completed.
func (c *Conn) Close() error {
	err := c.close(true)
	c.handshakeLoopsFinished.Wait()
	return err
}

// ConnectionState returns a point-in-time snapshot of the negotiated
// connection state.
func (c *Conn) ConnectionState() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.clone()
}

func (c *Conn) writePackets(ctx context.Context, pkts []*packet) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	var rawPackets [][]byte

	for _, p := range pkts {
		if h, ok := p.record.Content.(*handshake.Handshake); ok {
			if !p.alreadyCached {
				seq := c.state.handshakeSendSequence
				c.state.handshakeSendSequence++
				h.Header.MessageSequence = uint16(seq)

				raw, err := h.Marshal()
				if err != nil {
					return err
				}
				c.log.Tracef("[handshake:%s] -> %s (epoch: %d, seq: %d)",
					srvCliStr(c.state.isClient), h.Header.Type.String(), p.record.Header.Epoch, h.Header.MessageSequence)
				c.handshakeCache.Push(raw, p.record.Header.Epoch, h.Header.MessageSequence, h.Header.Type, c.state.isClient)
			}

			rawHandshakePackets, err := c.processHandshakePacket(p, h)
			if err != nil {
				return err
			}
			rawPackets = append(rawPackets, rawHandshakePackets...)
		} else {
			rawPacket, err := c.processPacket(p)
			if err != nil {
				return err
			}
			rawPackets = append(rawPackets, rawPacket)
		}
	}
	if len(rawPackets) == 0 {
		return nil
	}

	for _, compacted := range c.compactRawPackets(rawPackets) {
		if _, err := c.nextConn.WriteToContext(ctx, compacted, c.rAddr); err != nil {
			return err
		}
	}
	return nil
}

// compactRawPackets coalesces adjacent records into as few UDP datagrams
// as the MTU allows, RFC 6347 Section 4.1's "multiple records per
// datagram" allowance.
func (c *Conn) compactRawPackets(rawPackets [][]byte) [][]byte {
	if len(rawPackets) == 1 {
		return rawPackets
	}

	var combined [][]byte
	var current []byte

	for _, raw := range rawPackets {
		if len(current) > 0 && len(current)+len(raw) >= c.maximumTransmissionUnit {
			combined = append(combined, current)
			current = []byte{}
		}
		current = append(current, raw...)
	}
	combined = append(combined, current)
	return combined
}

func (c *Conn) processPacket(p *packet) ([]byte, error) {
	epoch := p.record.Header.Epoch
	p.record.Header.SequenceNumber = c.state.nextLocalSequenceNumber(epoch)
	if p.resetLocalSequenceNumber {
		p.record.Header.SequenceNumber = 0
	}

	rawPacket, err := p.record.Marshal()
	if err != nil {
		return nil, err
	}

	if p.shouldEncrypt {
		rawPacket, err = c.state.cipherSuite.Encrypt(p.record, rawPacket)
		if err != nil {
			return nil, err
		}
	}
	return rawPacket, nil
}

func (c *Conn) processHandshakePacket(p *packet, h *handshake.Handshake) ([][]byte, error) {
	handshakeFragments, err := c.fragmentHandshake(h)
	if err != nil {
		return nil, err
	}

	epoch := p.record.Header.Epoch
	rawPackets := make([][]byte, 0, len(handshakeFragments))

	for _, fragment := range handshakeFragments {
		seq := c.state.nextLocalSequenceNumber(epoch)

		header := &recordlayer.Header{
			Version:        p.record.Header.Version,
			ContentType:    p.record.Header.ContentType,
			ContentLen:     uint16(len(fragment)),
			Epoch:          epoch,
			SequenceNumber: seq,
		}
		rawPacket, err := header.Marshal()
		if err != nil {
			return nil, err
		}
		p.record.Header = *header
		rawPacket = append(rawPacket, fragment...)

		if p.shouldEncrypt {
			rawPacket, err = c.state.cipherSuite.Encrypt(p.record, rawPacket)
			if err != nil {
				return nil, err
			}
		}
		rawPackets = append(rawPackets, rawPacket)
	}
	return rawPackets, nil
}

// fragmentHandshake splits one handshake message's body into MTU-sized
// fragments, RFC 6347 Section 4.2.3.
func (c *Conn) fragmentHandshake(h *handshake.Handshake) ([][]byte, error) {
	content, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}

	contentFragments := splitBytes(content, c.maximumTransmissionUnit)
	if len(contentFragments) == 0 {
		contentFragments = [][]byte{{}}
	}

	fragments := make([][]byte, 0, len(contentFragments))
	offset := 0
	for _, cf := range contentFragments {
		header := &handshake.Header{
			Type:            h.Header.Type,
			Length:          uint32(len(content)),
			MessageSequence: h.Header.MessageSequence,
			FragmentOffset:  uint32(offset),
			FragmentLength:  uint32(len(cf)),
		}
		offset += len(cf)

		raw, err := header.Marshal()
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, append(raw, cf...))
	}
	return fragments, nil
}

// splitBytes chunks data into pieces no larger than max (max <= 0 keeps
// it whole).
func splitBytes(data []byte, max int) [][]byte {
	if max <= 0 || len(data) <= max {
		if len(data) == 0 {
			return nil
		}
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > 0 {
		n := max
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

var poolReadBuffer = sync.Pool{
	New: func() interface{} {
		b := make([]byte, inboundBufferSize)
		return &b
	},
}

func (c *Conn) readAndBuffer(ctx context.Context) error {
	bufptr, ok := poolReadBuffer.Get().(*[]byte)
	if !ok {
		return errFailedToAccessPoolReadBuffer
	}
	defer poolReadBuffer.Put(bufptr)

	b := *bufptr
	n, rAddr, err := c.nextConn.ReadFromContext(ctx, b)
	if err != nil {
		return err
	}

	pkts, err := recordlayer.UnpackDatagram(b[:n])
	if err != nil {
		return err
	}

	var hasHandshake bool
	for _, p := range pkts {
		hs, a, err := c.handleIncomingPacket(ctx, p, rAddr, true)
		if a != nil {
			if alertErr := c.notify(ctx, a.Level, a.Description); alertErr != nil && err == nil {
				err = alertErr
			}
		}

		var e *alertError
		if errors.As(err, &e) {
			sessionEnding := e.IsFatalOrCloseNotify()
			if !sessionEnding && !c.state.isClient {
				// RFC 6347 Section 4.2.2 permits (but does not require) treating
				// any non-close_notify warning alert as connection-ending; the
				// server side here takes that option deliberately, so an
				// unexpected warning from the peer tears the session down
				// instead of leaving it to wedge on later unrelated errors.
				sessionEnding = true
			}
			if sessionEnding {
				return e
			}
		}
		if err != nil {
			return err
		}
		if hs {
			hasHandshake = true
		}
	}

	if hasHandshake {
		done := make(chan struct{})
		select {
		case c.handshakeRecv <- done:
			<-done
		case <-c.closed.Done():
		}
	}
	return nil
}

func (c *Conn) handleQueuedPackets(ctx context.Context) error {
	pkts := c.encryptedPackets
	c.encryptedPackets = nil

	for _, p := range pkts {
		_, a, err := c.handleIncomingPacket(ctx, p.data, p.rAddr, false)
		if a != nil {
			if alertErr := c.notify(ctx, a.Level, a.Description); alertErr != nil && err == nil {
				err = alertErr
			}
		}
		var e *alertError
		if errors.As(err, &e) && e.IsFatalOrCloseNotify() {
			return e
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) enqueueEncryptedPackets(p addrPkt) bool {
	if len(c.encryptedPackets) < maxAppDataPacketQueueSize {
		c.encryptedPackets = append(c.encryptedPackets, p)
		return true
	}
	return false
}

func (c *Conn) handleIncomingPacket(ctx context.Context, buf []byte, rAddr net.Addr, enqueue bool) (bool, *alert.Alert, error) {
	h := &recordlayer.Header{}
	if err := h.Unmarshal(buf); err != nil {
		// Decode errors are silently discarded, RFC 6347 Section 4.1.2.7.
		c.log.Debugf("discarded broken packet: %v", err)
		return false, nil, nil
	}

	remoteEpoch := c.state.getRemoteEpoch()
	if h.Epoch > remoteEpoch {
		if h.Epoch > remoteEpoch+1 {
			c.log.Debugf("discarded future packet (epoch: %d, seq: %d)", h.Epoch, h.SequenceNumber)
			return false, nil, nil
		}
		if enqueue {
			if c.enqueueEncryptedPackets(addrPkt{rAddr, buf}) {
				c.log.Debug("received packet of next epoch, queuing")
			}
		}
		return false, nil, nil
	}

	replayDetector := c.state.replayDetectorForEpoch(h.Epoch, c.replayProtectionWindow)
	markPacketAsValid, ok := replayDetector.Check(h.SequenceNumber)
	if !ok {
		c.log.Debugf("discarded duplicate packet (epoch: %d, seq: %d)", h.Epoch, h.SequenceNumber)
		return false, nil, nil
	}

	if h.Epoch != 0 {
		if c.state.cipherSuite == nil || !c.state.cipherSuite.IsInitialized() {
			if enqueue {
				if c.enqueueEncryptedPackets(addrPkt{rAddr, buf}) {
					c.log.Debug("handshake not finished, queuing packet")
				}
			}
			return false, nil, nil
		}

		decrypted, err := c.state.cipherSuite.Decrypt(*h, buf)
		if err != nil {
			c.log.Debugf("%s: decrypt failed: %s", srvCliStr(c.state.isClient), err)
			a := &alert.Alert{Level: alert.Fatal, Description: alert.BadRecordMac}
			return false, a, &alertError{a}
		}
		buf = decrypted
	}

	isHandshake, err := c.fragmentBuffer.Push(append([]byte{}, buf...))
	if err != nil {
		// Decode errors are silently discarded, RFC 6347 Section 4.1.2.7.
		c.log.Debugf("defragment failed: %s", err)
		return false, nil, nil
	}
	if isHandshake {
		markPacketAsValid()
		for out, epoch := c.fragmentBuffer.Pop(); out != nil; out, epoch = c.fragmentBuffer.Pop() {
			header := &handshake.Header{}
			if err := header.Unmarshal(out); err != nil {
				c.log.Debugf("%s: handshake parse failed: %s", srvCliStr(c.state.isClient), err)
				continue
			}
			c.handshakeCache.Push(out, epoch, header.MessageSequence, header.Type, !c.state.isClient)
		}
		return true, nil, nil
	}

	content, err := contentForType(protocol.ContentType(buf[0]))
	if err != nil {
		return false, &alert.Alert{Level: alert.Fatal, Description: alert.DecodeError}, err
	}
	r := &recordlayer.RecordLayer{Content: content}
	if err := r.Unmarshal(buf); err != nil {
		return false, &alert.Alert{Level: alert.Fatal, Description: alert.DecodeError}, err
	}

	switch content := r.Content.(type) {
	case *alert.Alert:
		c.log.Tracef("%s: <- alert %s", srvCliStr(c.state.isClient), content.Description)
		var a *alert.Alert
		if content.Description == alert.CloseNotify {
			a = &alert.Alert{Level: alert.Warning, Description: alert.CloseNotify}
		}
		markPacketAsValid()
		return false, a, &alertError{content}

	case *protocol.ChangeCipherSpec:
		if c.state.cipherSuite == nil || !c.state.cipherSuite.IsInitialized() {
			if enqueue {
				if c.enqueueEncryptedPackets(addrPkt{rAddr, buf}) {
					c.log.Debug("cipher suite not initialized, queuing ChangeCipherSpec")
				}
			}
			return false, nil, nil
		}
		newRemoteEpoch := h.Epoch + 1
		c.log.Tracef("%s: <- ChangeCipherSpec (epoch: %d)", srvCliStr(c.state.isClient), newRemoteEpoch)
		if c.state.getRemoteEpoch()+1 == newRemoteEpoch {
			c.setRemoteEpoch(newRemoteEpoch)
			markPacketAsValid()
		}

	case *protocol.ApplicationData:
		if h.Epoch == 0 {
			return false, &alert.Alert{Level: alert.Fatal, Description: alert.UnexpectedMessage}, errApplicationDataEpochZero
		}
		markPacketAsValid()
		select {
		case c.decrypted <- content.Data:
		case <-c.closed.Done():
		case <-ctx.Done():
		}

	default:
		return false, &alert.Alert{Level: alert.Fatal, Description: alert.UnexpectedMessage}, fmt.Errorf("dtls: unhandled record content type %T", content)
	}

	return false, nil, nil
}

func (c *Conn) recvHandshake() <-chan chan struct{} {
	return c.handshakeRecv
}

func (c *Conn) notify(ctx context.Context, level alert.Level, desc alert.Description) error {
	return c.writePackets(ctx, []*packet{
		{
			record: &recordlayer.RecordLayer{
				Header: recordlayer.Header{
					ContentType: protocol.ContentTypeAlert,
					Epoch:       c.state.getLocalEpoch(),
					Version:     c.state.version,
				},
				Content: &alert.Alert{Level: level, Description: desc},
			},
			shouldEncrypt: c.isHandshakeCompletedSuccessfully(),
		},
	})
}

func (c *Conn) setHandshakeCompletedSuccessfully() {
	c.handshakeCompletedSuccessfully.Store(struct{ bool }{true})
}

func (c *Conn) isHandshakeCompletedSuccessfully() bool {
	v, _ := c.handshakeCompletedSuccessfully.Load().(struct{ bool })
	return v.bool
}

func (c *Conn) handshake(ctx context.Context, cfg *handshakeConfig, initialFlight flightVal) error {
	c.fsm = newHandshakeFSM(&c.state, c.handshakeCache, cfg, initialFlight)

	done := make(chan struct{})
	ctxRead, cancelRead := context.WithCancel(context.Background())
	c.cancelHandshakeReader = cancelRead
	cfg.onFlightState = func(_ flightVal, s handshakeState) {
		if s == handshakeFinished && !c.isHandshakeCompletedSuccessfully() {
			c.setHandshakeCompletedSuccessfully()
			close(done)
		}
	}

	ctxHs, cancel := context.WithCancel(context.Background())
	c.cancelHandshaker = cancel

	firstErr := make(chan error, 1)
	c.handshakeLoopsFinished.Add(2)

	go func() {
		defer c.handshakeLoopsFinished.Done()
		err := c.fsm.Run(ctxHs, c, handshakePreparing)
		if !errors.Is(err, context.Canceled) {
			select {
			case firstErr <- err:
			default:
			}
		}
	}()

	go func() {
		defer func() {
			close(c.decrypted)
			cancel()
		}()
		defer c.handshakeLoopsFinished.Done()
		for {
			if err := c.readAndBuffer(ctxRead); err != nil {
				var e *alertError
				if errors.As(err, &e) {
					if !e.IsFatalOrCloseNotify() {
						if c.isHandshakeCompletedSuccessfully() {
							select {
							case c.decrypted <- err:
							case <-c.closed.Done():
							case <-ctxRead.Done():
							}
						}
						continue
					}
				} else {
					switch {
					case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
					default:
						if c.isHandshakeCompletedSuccessfully() {
							select {
							case c.decrypted <- err:
							case <-c.closed.Done():
							case <-ctxRead.Done():
							}
							continue
						}
					}
				}

				select {
				case firstErr <- err:
				default:
				}

				if e != nil && e.IsFatalOrCloseNotify() {
					_ = c.close(false)
				}
				if !c.isConnectionClosed() && errors.Is(err, context.Canceled) {
					c.log.Trace("handshake timed out, closing connection")
					_ = c.close(false)
				}
				return
			}
		}
	}()

	select {
	case err := <-firstErr:
		cancelRead()
		cancel()
		c.handshakeLoopsFinished.Wait()
		return c.translateHandshakeCtxError(err)
	case <-ctx.Done():
		cancelRead()
		cancel()
		c.handshakeLoopsFinished.Wait()
		return c.translateHandshakeCtxError(ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Conn) translateHandshakeCtxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) && c.isHandshakeCompletedSuccessfully() {
		return nil
	}
	return &HandshakeError{Err: err}
}

func (c *Conn) close(byUser bool) error {
	c.cancelHandshaker()
	c.cancelHandshakeReader()

	if c.isHandshakeCompletedSuccessfully() && byUser {
		_ = c.notify(context.Background(), alert.Warning, alert.CloseNotify)
	}

	c.closeLock.Lock()
	closedByUser := c.connectionClosedByUser
	if byUser {
		c.connectionClosedByUser = true
	}
	isClosed := c.isConnectionClosed()
	c.closed.Close()
	c.closeLock.Unlock()

	if closedByUser {
		return ErrConnClosed
	}
	if isClosed {
		return nil
	}
	return c.nextConn.Close()
}

func (c *Conn) isConnectionClosed() bool {
	select {
	case <-c.closed.Done():
		return true
	default:
		return false
	}
}

func (c *Conn) setLocalEpoch(epoch uint16) {
	c.state.setLocalEpoch(epoch)
}

func (c *Conn) setRemoteEpoch(epoch uint16) {
	c.state.setRemoteEpoch(epoch)
}

// LocalAddr implements net.Conn.
func (c *Conn) LocalAddr() net.Addr {
	return c.nextConn.LocalAddr()
}

// RemoteAddr implements net.Conn.
func (c *Conn) RemoteAddr() net.Addr {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.rAddr
}

// sessionKey is the C7 session registry's lookup key: the peer's
// serialized socket address. Session resumption (a distinct SessionID
// keyspace, as crypto/tls and the source this library is grounded on
// both support) is out of scope, so there is no second keying scheme to
// reconcile with this one.
func (c *Conn) sessionKey() []byte {
	return []byte(c.rAddr.String())
}

// SetDeadline implements net.Conn.
func (c *Conn) SetDeadline(t time.Time) error {
	c.readDeadline.Set(t)
	return c.SetWriteDeadline(t)
}

// SetReadDeadline implements net.Conn. The deadline is enforced entirely
// by this layer; it is never pushed down to the underlying PacketConn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline.Set(t)
	return nil
}

// SetWriteDeadline implements net.Conn.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline.Set(t)
	return nil
}

// contentForType returns a zero-value Content for ct, the slot
// RecordLayer.Unmarshal decodes into (it never guesses the concrete type
// itself; the caller dispatches on the header's ContentType byte first).
func contentForType(ct protocol.ContentType) (recordlayer.Content, error) {
	switch ct {
	case protocol.ContentTypeChangeCipherSpec:
		return &protocol.ChangeCipherSpec{}, nil
	case protocol.ContentTypeAlert:
		return &alert.Alert{}, nil
	case protocol.ContentTypeHandshake:
		return &handshake.Handshake{}, nil
	case protocol.ContentTypeApplicationData:
		return &protocol.ApplicationData{}, nil
	default:
		return nil, errUnhandledContextType
	}
}

func srvCliStr(isClient bool) string {
	if isClient {
		return "client"
	}
	return "server"
}
