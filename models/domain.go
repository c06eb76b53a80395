package models

import (
	"fmt"
	"net"
	"strings"
)

// Domain is a normalized host name a route group is restricted to.
// The zero value means the group is registered globally (any host).
type Domain string

// NoDomain registers routes without a host constraint.
const NoDomain Domain = ""

// ParseDomain normalizes a host name into a Domain.
// The host is lowercased and a trailing dot is removed. Schemes, ports and
// paths are rejected.
func ParseDomain(host string) (Domain, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return NoDomain, nil
	}

	if strings.Contains(host, "://") || strings.ContainsAny(host, "/:?# ") {
		return NoDomain, fmt.Errorf("%w: domain %q must be a bare host name", ErrInvalidRegistry, host)
	}

	return Domain(strings.TrimSuffix(strings.ToLower(host), ".")), nil
}

// IsZero reports whether the domain is unset.
func (d Domain) IsZero() bool {
	return d == NoDomain
}

// String returns the host name.
func (d Domain) String() string {
	return string(d)
}

// Matches reports whether a request host (optionally with a port) belongs to the domain.
// An unset domain matches every host.
func (d Domain) Matches(host string) bool {
	if d.IsZero() {
		return true
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return strings.EqualFold(strings.TrimSuffix(host, "."), string(d))
}
