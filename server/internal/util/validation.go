package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateUUID checks if a string is a valid UUID v4 format.
//
// Parameters:
//   - id: The string to validate as UUID
//
// Returns:
//   - error: An error if the string is not a valid UUID, nil otherwise
//
// Example:
//
//	if err := util.ValidateUUID(c.GetHeader("X-Request-ID")); err == nil {
//	    requestID = c.GetHeader("X-Request-ID")
//	}
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}
	return nil
}

// ValidateCIDR checks if a string is valid CIDR notation (e.g., "10.0.0.0/8").
//
// Parameters:
//   - cidr: The string to validate as CIDR notation
//
// Returns:
//   - error: An error if the string is not valid CIDR, nil otherwise
//
// Example:
//
//	for _, proxy := range trustedProxies {
//	    if err := util.ValidateCIDR(proxy); err != nil {
//	        return fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
//	    }
//	}
func ValidateCIDR(cidr string) error {
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		return fmt.Errorf("invalid CIDR notation: %w", err)
	}
	return nil
}

// ValidateIP checks if a string is a valid IP address (IPv4 or IPv6).
//
// Parameters:
//   - ip: The string to validate as IP address
//
// Returns:
//   - error: An error if the string is not a valid IP, nil otherwise
//
// Example:
//
//	if err := util.ValidateIP(proxy); err != nil {
//	    return err
//	}
func ValidateIP(ip string) error {
	if parsed := net.ParseIP(ip); parsed == nil {
		return fmt.Errorf("invalid IP address")
	}
	return nil
}

// ValidateProxy checks that a trusted proxy is an IP address or a CIDR range.
func ValidateProxy(proxy string) error {
	if strings.Contains(proxy, "/") {
		return ValidateCIDR(proxy)
	}
	return ValidateIP(proxy)
}

// ValidateSegment checks that an identifier can be used as a route segment
// and as part of a dotted route name.
//
// A segment is non-empty and contains no slash, dot, brace or whitespace.
//
// Parameters:
//   - id: Module, version or cluster identifier
//
// Returns:
//   - error: An error describing the first invalid character, nil otherwise
//
// Example:
//
//	if err := util.ValidateSegment(version.ID); err != nil {
//	    return fmt.Errorf("%w: version: %v", models.ErrInvalidRegistry, err)
//	}
func ValidateSegment(id string) error {
	if id == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	for _, r := range id {
		switch {
		case r == '/' || r == '.' || r == '{' || r == '}':
			return fmt.Errorf("identifier %q must not contain %q", id, r)
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return fmt.Errorf("identifier %q must not contain whitespace", id)
		}
	}
	return nil
}

// ValidateRoutePath checks that a module path is absolute and free of
// template syntax. "/" is a valid path.
func ValidateRoutePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q must start with '/'", path)
	}
	if strings.ContainsAny(path, "{}?# ") {
		return fmt.Errorf("path %q must not contain template or query characters", path)
	}
	return nil
}

// ValidateListenAddr checks a host:port listen address.
func ValidateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port in %q", addr)
	}
	return ValidatePortRange(n)
}

// ValidatePortRange checks if a port number is in valid range (1-65535).
//
// Parameters:
//   - port: The port number to validate
//
// Returns:
//   - error: An error if the port is out of range, nil otherwise
func ValidatePortRange(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
