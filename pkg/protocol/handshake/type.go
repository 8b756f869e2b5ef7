// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// Type is the 1-byte handshake message type, RFC 5246 Section 7.4.
type Type byte

// Handshake message types used by this library.
const (
	TypeHelloRequest       Type = 0
	TypeClientHello        Type = 1
	TypeServerHello        Type = 2
	TypeHelloVerifyRequest Type = 3
	TypeCertificate        Type = 11
	TypeServerKeyExchange  Type = 12
	TypeCertificateRequest Type = 13
	TypeServerHelloDone    Type = 14
	TypeCertificateVerify  Type = 15
	TypeClientKeyExchange  Type = 16
	TypeFinished           Type = 20
	TypeNewSessionTicket   Type = 4
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeHelloRequest:
		return "HelloRequest"
	case TypeClientHello:
		return "ClientHello"
	case TypeServerHello:
		return "ServerHello"
	case TypeHelloVerifyRequest:
		return "HelloVerifyRequest"
	case TypeCertificate:
		return "Certificate"
	case TypeServerKeyExchange:
		return "ServerKeyExchange"
	case TypeCertificateRequest:
		return "CertificateRequest"
	case TypeServerHelloDone:
		return "ServerHelloDone"
	case TypeCertificateVerify:
		return "CertificateVerify"
	case TypeClientKeyExchange:
		return "ClientKeyExchange"
	case TypeFinished:
		return "Finished"
	case TypeNewSessionTicket:
		return "NewSessionTicket"
	default:
		return "Unknown"
	}
}

func messageFromType(t Type) (Message, error) {
	switch t {
	case TypeHelloVerifyRequest:
		return &MessageHelloVerifyRequest{}, nil
	case TypeClientHello:
		return &MessageClientHello{}, nil
	case TypeServerHello:
		return &MessageServerHello{}, nil
	case TypeCertificate:
		return &MessageCertificate{}, nil
	case TypeServerKeyExchange:
		return &MessageServerKeyExchange{}, nil
	case TypeCertificateRequest:
		return &MessageCertificateRequest{}, nil
	case TypeServerHelloDone:
		return &MessageServerHelloDone{}, nil
	case TypeClientKeyExchange:
		return &MessageClientKeyExchange{}, nil
	case TypeCertificateVerify:
		return &MessageCertificateVerify{}, nil
	case TypeFinished:
		return &MessageFinished{}, nil
	case TypeNewSessionTicket:
		return &MessageNewSessionTicket{}, nil
	default:
		return nil, errUnknownMessageType
	}
}
