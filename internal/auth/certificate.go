// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // x5t is defined as the SHA-1 thumbprint
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// ClientCertificate is the application credential used to sign client
// assertions.
type ClientCertificate struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate

	// Thumbprint is the base64url SHA-1 thumbprint sent as the x5t header.
	Thumbprint string
}

// LoadClientCertificate reads a PKCS#12 bundle, or a PEM file holding both
// the certificate and its RSA key. thumbprintHex overrides the thumbprint
// computed from the certificate.
func LoadClientCertificate(path, password, thumbprintHex string) (*ClientCertificate, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}

	var (
		key  *rsa.PrivateKey
		cert *x509.Certificate
	)
	if pk, c, pfxErr := pkcs12.Decode(data, password); pfxErr == nil {
		rsaKey, ok := pk.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("certificate key is not RSA")
		}
		key, cert = rsaKey, c
	} else {
		key, cert, err = parsePEMCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("decode certificate (pkcs12: %v): %w", pfxErr, err)
		}
	}

	return NewClientCertificate(key, cert, thumbprintHex)
}

// NewClientCertificate builds a ClientCertificate from parsed parts.
func NewClientCertificate(key *rsa.PrivateKey, cert *x509.Certificate, thumbprintHex string) (*ClientCertificate, error) {
	var raw []byte
	if thumbprintHex != "" {
		b, err := hex.DecodeString(strings.ReplaceAll(thumbprintHex, ":", ""))
		if err != nil {
			return nil, fmt.Errorf("decode thumbprint: %w", err)
		}
		raw = b
	} else {
		sum := sha1.Sum(cert.Raw) //nolint:gosec // x5t
		raw = sum[:]
	}
	return &ClientCertificate{
		Key:        key,
		Cert:       cert,
		Thumbprint: base64.RawURLEncoding.EncodeToString(raw),
	}, nil
}

func parsePEMCertificate(data []byte) (*rsa.PrivateKey, *x509.Certificate, error) {
	var (
		key  *rsa.PrivateKey
		cert *x509.Certificate
	)
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			if cert != nil {
				continue
			}
			c, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse certificate: %w", err)
			}
			cert = c
		case "RSA PRIVATE KEY":
			k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse key: %w", err)
			}
			key = k
		case "PRIVATE KEY":
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse key: %w", err)
			}
			rsaKey, ok := k.(*rsa.PrivateKey)
			if !ok {
				return nil, nil, errors.New("certificate key is not RSA")
			}
			key = rsaKey
		}
	}
	if cert == nil || key == nil {
		return nil, nil, errors.New("PEM data must contain a certificate and an RSA private key")
	}
	return key, cert, nil
}
