package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"moqrelay/internal/config"
)

// buildTLSConfig loads the configured certificate/key pair, or, in dev
// mode, generates a throwaway self-signed certificate for local
// testing. NextProtos advertises both the HTTP/3 ALPN WebTransport
// upgrades over and the native MoQ ALPN token.
func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	var cert tls.Certificate
	var err error

	if cfg.DevMode && cfg.TLS.CertFile == "" {
		cert, err = selfSignedCert()
		if err != nil {
			return nil, fmt.Errorf("server: generate dev certificate: %w", err)
		}
	} else {
		cert, err = tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("server: load TLS certificate: %w", err)
		}
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h3", "moq-00"},
	}, nil
}

// selfSignedCert generates an ECDSA P-256 certificate valid for a
// single day, good enough for a dev-mode loopback relay and nothing
// else.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "moqrelay-dev"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}
