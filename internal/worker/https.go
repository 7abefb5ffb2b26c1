package worker

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/elazarl/goproxy"
	"github.com/inconshreveable/go-vhost"

	"github.com/iTrooz/news-reader/internal/config"
)

func loadCertificate(cfg *config.HTTPSConfig) (*tls.Certificate, error) {
	if cfg.CACertFile == "" || cfg.CAKeyFile == "" {
		return nil, nil // Use default goproxy certificate
	}

	cert, err := tls.LoadX509KeyPair(cfg.CACertFile, cfg.CAKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate and key: %w", err)
	}
	return &cert, nil
}

func (s *Server) setupHTTPSProxyHandler() error {
	caCert, err := loadCertificate(&s.config.HTTPS)
	if err != nil {
		return err
	}

	s.proxy.CertStore = newCertStore(s.logger)

	if caCert == nil {
		// Use goproxy's default certificate
		s.logger.Warnf("TLS interception enabled but no CA certificate loaded, using goproxy default certificate")
		s.proxy.OnRequest().HandleConnect(goproxy.AlwaysMitm)
		return nil
	}

	s.logger.Debugf("Loaded CA certificate from %s", s.config.HTTPS.CACertFile)

	// Make goproxy use our provided CA certificate
	customCaMitm := &goproxy.ConnectAction{
		Action:    goproxy.ConnectMitm,
		TLSConfig: goproxy.TLSConfigFromCA(caCert),
	}
	s.proxy.OnRequest().HandleConnectFunc(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		s.logger.Debugf("Handling CONNECT request for %s", host)
		return customCaMitm, host
	})
	return nil
}

// ServeTransparentHTTPS accepts TLS connections on ln and routes them through
// the proxy as if the client had sent a CONNECT for the SNI host. It returns
// when ctx is cancelled.
func (s *Server) ServeTransparentHTTPS(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warnf("Error accepting new connection: %v", err)
			continue
		}
		go s.handleTransparentConn(c)
	}
}

func (s *Server) handleTransparentConn(c net.Conn) {
	tlsConn, err := vhost.TLS(c)
	if err != nil {
		s.logger.Warnf("Error accepting new connection: %v", err)
		_ = c.Close()
		return
	}
	if tlsConn.Host() == "" {
		s.logger.Warnf("Cannot support non-SNI enabled clients")
		_ = tlsConn.Close()
		return
	}

	connectReq := &http.Request{
		Method: http.MethodConnect,
		URL: &url.URL{
			Opaque: tlsConn.Host(),
			Host:   net.JoinHostPort(tlsConn.Host(), "443"),
		},
		Host:       tlsConn.Host(),
		Header:     make(http.Header),
		RemoteAddr: c.RemoteAddr().String(),
	}
	s.proxy.ServeHTTP(dumbResponseWriter{tlsConn}, connectReq)
}

// dumbResponseWriter hands the raw connection to goproxy's CONNECT handling
type dumbResponseWriter struct {
	net.Conn
}

func (dumb dumbResponseWriter) Header() http.Header {
	panic("Header() should not be called on this ResponseWriter")
}

func (dumb dumbResponseWriter) Write(buf []byte) (int, error) {
	if string(buf) == "HTTP/1.0 200 OK\r\n\r\n" {
		return len(buf), nil // throw away the HTTP OK response from the faux CONNECT request
	}
	return dumb.Conn.Write(buf)
}

func (dumb dumbResponseWriter) WriteHeader(code int) {
	panic("WriteHeader() should not be called on this ResponseWriter")
}

func (dumb dumbResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return dumb, bufio.NewReadWriter(bufio.NewReader(dumb), bufio.NewWriter(dumb)), nil
}
