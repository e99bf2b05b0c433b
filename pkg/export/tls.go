package export

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/youmark/pkcs8"
)

// NewTLSConfig builds the client TLS configuration for the export endpoint.
//
// certFile holds the PEM certificate chain. keyFile holds the private key,
// optionally encrypted with passphrase; when empty the key is read from
// certFile. caBundle, when set, replaces the system roots.
func NewTLSConfig(certFile, keyFile, passphrase, caBundle string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if certFile != "" {
		if keyFile == "" {
			keyFile = certFile
		}
		cert, err := loadKeyPair(certFile, keyFile, passphrase)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if caBundle != "" {
		pemCerts, err := os.ReadFile(caBundle)
		if err != nil {
			return nil, errors.Wrap(err, "could not read CA bundle")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemCerts) {
			return nil, errors.Errorf("no certificates found in CA bundle %s", caBundle)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func loadKeyPair(certFile, keyFile, passphrase string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "could not read client certificate")
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "could not read client key")
	}

	key, err := parsePrivateKey(keyPEM, []byte(passphrase))
	if err != nil {
		return tls.Certificate{}, errors.Wrapf(err, "could not load client key %s", keyFile)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "unsupported client key type")
	}

	// X509KeyPair checks that the key belongs to the leaf certificate.
	cert, err := tls.X509KeyPair(certPEM, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "invalid client certificate")
	}
	return cert, nil
}

// parsePrivateKey decodes the first private key block of data. Encrypted
// PKCS#8 and legacy encrypted PEM (Proc-Type: 4,ENCRYPTED) are supported.
func parsePrivateKey(data, passphrase []byte) (any, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, errors.New("no private key found")
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}

		der := block.Bytes
		switch {
		case block.Type == "ENCRYPTED PRIVATE KEY":
			if len(passphrase) == 0 {
				return nil, errors.New("key is encrypted but no passphrase was given")
			}
			key, err := pkcs8.ParsePKCS8PrivateKey(der, passphrase)
			return key, errors.Wrap(err, "could not decrypt PKCS#8 key")
		case x509.IsEncryptedPEMBlock(block): //nolint:staticcheck
			if len(passphrase) == 0 {
				return nil, errors.New("key is encrypted but no passphrase was given")
			}
			var err error
			der, err = x509.DecryptPEMBlock(block, passphrase) //nolint:staticcheck
			if err != nil {
				return nil, errors.Wrap(err, "could not decrypt PEM key")
			}
		}

		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(der)
		case "EC PRIVATE KEY":
			return x509.ParseECPrivateKey(der)
		default:
			return x509.ParsePKCS8PrivateKey(der)
		}
	}
}
