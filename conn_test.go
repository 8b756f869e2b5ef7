// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/psk"
)

const testPSKIdentityHint = "Client_identity"

func pskConfigPair() (clientCfg, serverCfg *Config) {
	lookup := func(_ []byte) (psk.Key, error) {
		return psk.Key{0x01, 0x02, 0x03, 0x04}, nil
	}

	base := &Config{
		PSK:             lookup,
		PSKIdentityHint: []byte(testPSKIdentityHint),
		CipherSuites:    []ciphersuite.ID{ciphersuite.TLS_PSK_WITH_AES_128_CBC_SHA256},
	}
	client := *base
	server := *base
	return &client, &server
}

func udpPipe(t *testing.T) (clientConn, serverConn *net.UDPConn) {
	t.Helper()

	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen server: %v", err)
	}
	clientConn, err = net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen client: %v", err)
	}
	return clientConn, serverConn
}

// TestHandshakePSKRoundTrip drives a full flight1-through-flight6 PSK
// handshake over loopback UDP and confirms application data flows both
// ways afterward, the end-to-end property spec §8 describes.
func TestHandshakePSKRoundTrip(t *testing.T) {
	clientUDP, serverUDP := udpPipe(t)
	clientCfg, serverCfg := pskConfigPair()

	clientResult := make(chan result, 1)
	serverResult := make(chan result, 1)

	go func() {
		c, err := Server(serverUDP, clientUDP.LocalAddr(), serverCfg)
		serverResult <- result{c, err}
	}()
	go func() {
		c, err := Client(clientUDP, serverUDP.LocalAddr(), clientCfg)
		clientResult <- result{c, err}
	}()

	var clientConn, serverConn *Conn
	for i := 0; i < 2; i++ {
		select {
		case r := <-clientResult:
			if r.err != nil {
				t.Fatalf("client handshake: %v", r.err)
			}
			clientConn = r.conn
		case r := <-serverResult:
			if r.err != nil {
				t.Fatalf("server handshake: %v", r.err)
			}
			serverConn = r.conn
		case <-time.After(5 * time.Second):
			t.Fatal("handshake timed out")
		}
	}
	defer clientConn.Close()
	defer serverConn.Close()

	msg := []byte("hello over dtls")
	if _, err := clientConn.Write(msg); err != nil {
		t.Fatalf("client write: %v", err)
	}

	buf := make([]byte, 1500)
	_ = serverConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err := serverConn.Read(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Fatalf("got %q, want %q", buf[:n], msg)
	}

	reply := []byte("hello back")
	if _, err := serverConn.Write(reply); err != nil {
		t.Fatalf("server write: %v", err)
	}
	_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err = clientConn.Read(buf)
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	if !bytes.Equal(buf[:n], reply) {
		t.Fatalf("got %q, want %q", buf[:n], reply)
	}
}

// TestListenerAcceptsMultiplePeers exercises the C7 session registry: two
// distinct client sockets dial the same Listener address and each gets its
// own Conn.
func TestListenerAcceptsMultiplePeers(t *testing.T) {
	_, serverCfg := pskConfigPair()
	clientCfg1, _ := pskConfigPair()
	clientCfg2, _ := pskConfigPair()

	l, err := Listen("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}, serverCfg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	accepted := make(chan *Conn, 2)
	go func() {
		for i := 0; i < 2; i++ {
			c, err := l.Accept()
			if err != nil {
				t.Errorf("accept: %v", err)
				return
			}
			accepted <- c
		}
	}()

	client1UDP, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen client1: %v", err)
	}
	client2UDP, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen client2: %v", err)
	}

	clientResults := make(chan result, 2)
	go func() {
		c, err := Client(client1UDP, l.Addr(), clientCfg1)
		clientResults <- result{c, err}
	}()
	go func() {
		c, err := Client(client2UDP, l.Addr(), clientCfg2)
		clientResults <- result{c, err}
	}()

	for i := 0; i < 2; i++ {
		select {
		case r := <-clientResults:
			if r.err != nil {
				t.Fatalf("client handshake: %v", r.err)
			}
			defer r.conn.Close()
		case <-time.After(5 * time.Second):
			t.Fatal("client handshake timed out")
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case c := <-accepted:
			defer c.Close()
		case <-time.After(5 * time.Second):
			t.Fatal("accept timed out")
		}
	}
}

type result struct {
	conn *Conn
	err  error
}
