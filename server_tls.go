//go:build !tinygo

package ghost

import (
	"golang.org/x/crypto/acme/autocert"
)

// autoTLS configures the server for a Let's Encrypt certificate for host,
// cached under cacheDir.  An unset Addr becomes :443.
func (s *Server) autoTLS(host, cacheDir string) *autocert.Manager {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(host),
		Cache:      autocert.DirCache(cacheDir),
	}
	s.TLSConfig = m.TLSConfig()
	if s.Addr == "" {
		s.Addr = ":443"
	}
	return m
}

// ListenAndServeAutoTLS serves https with a certificate for host obtained
// (and renewed) through ACME TLS-ALPN challenges on the same listener
func (s *Server) ListenAndServeAutoTLS(host, cacheDir string) error {
	s.autoTLS(host, cacheDir)
	return s.ListenAndServeTLS("", "")
}
