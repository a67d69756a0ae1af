package request

import (
	"crypto/x509"
	"errors"
	"fmt"
)

// ErrCertificate indicates that the server certificate could not be verified
var ErrCertificate = errors.New("certificate verification failed")

// CertificateError wraps a tls certificate verification failure
type CertificateError struct {
	Err error
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("%v: %v", ErrCertificate, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCertificate) match
func (e *CertificateError) Is(target error) bool {
	return target == ErrCertificate
}

// certificateError returns the x509 verification error contained in err, or nil
func certificateError(err error) error {
	var (
		authority x509.UnknownAuthorityError
		invalid   x509.CertificateInvalidError
		hostname  x509.HostnameError
		roots     x509.SystemRootsError
	)

	switch {
	case errors.As(err, &authority):
		return authority
	case errors.As(err, &invalid):
		return invalid
	case errors.As(err, &hostname):
		return hostname
	case errors.As(err, &roots):
		return roots
	}

	return nil
}
