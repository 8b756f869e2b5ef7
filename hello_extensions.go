// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/extension"
)

// clientHelloExtensions builds the extension set this library always offers
// in its ClientHello, spec §4.1.
func clientHelloExtensions(cfg *handshakeConfig) []extension.Extension {
	curves := cfg.ellipticCurves
	if len(curves) == 0 {
		curves = elliptic.SupportedCurves()
	}

	exts := []extension.Extension{
		&extension.SupportedEllipticCurves{EllipticCurves: curves},
		&extension.SupportedPointFormats{PointFormats: []elliptic.CurvePointFormat{elliptic.CurvePointFormatUncompressed}},
		&extension.SupportedSignatureAlgorithms{SignatureHashAlgorithms: cfg.localSignatureSchemes},
	}

	if cfg.extendedMasterSecret != DisableExtendedMasterSecret {
		exts = append(exts, &extension.UseExtendedMasterSecret{})
	}
	if cfg.serverName != "" {
		exts = append(exts, &extension.ServerName{ServerName: cfg.serverName})
	}

	return exts
}

// negotiatedExtendedMasterSecret reports whether the peer's Hello carried
// the extended_master_secret extension.
func negotiatedExtendedMasterSecret(exts []extension.Extension) bool {
	for _, e := range exts {
		if _, ok := e.(*extension.UseExtendedMasterSecret); ok {
			return true
		}
	}
	return false
}

// peerSupportedCurves extracts the elliptic_curves extension's contents, or
// nil if absent.
func peerSupportedCurves(exts []extension.Extension) []elliptic.Curve {
	for _, e := range exts {
		if s, ok := e.(*extension.SupportedEllipticCurves); ok {
			return s.EllipticCurves
		}
	}
	return nil
}

// peerSignatureSchemes extracts the signature_algorithms extension's
// contents, or nil if the peer never sent one (pre-TLS-1.2 behavior; this
// library's negotiated signature scheme selection then falls back to its
// own default order).
func peerSignatureSchemes(exts []extension.Extension) []signaturehash.Algorithm {
	for _, e := range exts {
		if s, ok := e.(*extension.SupportedSignatureAlgorithms); ok {
			return s.SignatureHashAlgorithms
		}
	}
	return nil
}

// serverHelloExtensions builds the extension set a responder echoes back,
// based on what the initiator offered.
func serverHelloExtensions(cfg *handshakeConfig, clientExts []extension.Extension) []extension.Extension {
	var exts []extension.Extension
	if cfg.extendedMasterSecret != DisableExtendedMasterSecret && negotiatedExtendedMasterSecret(clientExts) {
		exts = append(exts, &extension.UseExtendedMasterSecret{})
	}
	return exts
}
