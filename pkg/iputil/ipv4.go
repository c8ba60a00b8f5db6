// Package iputil holds the address-shape checks the HTTP handlers rely on:
// strict dotted-quad validation and best-effort caller address extraction.
package iputil

import "strings"

// IsIPv4 reports whether s is a strict dotted-quad IPv4 address: exactly
// four dot-separated decimal octets, each in [0,255], with no surrounding
// content. Stricter than net.ParseIP, which also accepts IPv6 and
// IPv4-mapped forms that must be rejected here.
func IsIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return false
		}

		n := 0
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}

		if n > 255 {
			return false
		}
	}

	return true
}
