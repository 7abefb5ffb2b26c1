package worker

import (
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// certStore implements goproxy.CertStorage, generating each host certificate once
type certStore struct {
	mu     sync.Mutex
	certs  map[string]*tls.Certificate
	logger logrus.FieldLogger
}

func newCertStore(logger logrus.FieldLogger) *certStore {
	return &certStore{
		certs:  make(map[string]*tls.Certificate),
		logger: logger,
	}
}

func (s *certStore) Fetch(hostname string, gen func() (*tls.Certificate, error)) (*tls.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[hostname]
	if ok {
		return cert, nil
	}

	cert, err := gen()
	if err != nil {
		s.logger.Errorf("Failed to generate certificate for hostname '%s': %v", hostname, err)
		return nil, fmt.Errorf("failed to generate certificate for hostname '%s': %w", hostname, err)
	}

	s.certs[hostname] = cert
	return cert, nil
}
