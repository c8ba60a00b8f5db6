package iputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIPv4(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{
			name: "simple address",
			in:   "192.168.1.1",
			want: true,
		},
		{
			name: "all zeros",
			in:   "0.0.0.0",
			want: true,
		},
		{
			name: "max octets",
			in:   "255.255.255.255",
			want: true,
		},
		{
			name: "public address",
			in:   "34.202.126.158",
			want: true,
		},
		{
			name: "octet over 255",
			in:   "256.1.1.1",
			want: false,
		},
		{
			name: "last octet over 255",
			in:   "1.1.1.999",
			want: false,
		},
		{
			name: "three parts",
			in:   "1.2.3",
			want: false,
		},
		{
			name: "five parts",
			in:   "1.2.3.4.5",
			want: false,
		},
		{
			name: "empty octet",
			in:   "1..2.3",
			want: false,
		},
		{
			name: "trailing dot",
			in:   "1.2.3.4.",
			want: false,
		},
		{
			name: "non-numeric octet",
			in:   "1.2.3.a",
			want: false,
		},
		{
			name: "negative octet",
			in:   "-1.2.3.4",
			want: false,
		},
		{
			name: "embedded whitespace",
			in:   "1.2.3.4 ",
			want: false,
		},
		{
			name: "ipv6 address",
			in:   "2001:db8::1",
			want: false,
		},
		{
			name: "ipv4-mapped ipv6",
			in:   "::ffff:1.2.3.4",
			want: false,
		},
		{
			name: "empty string",
			in:   "",
			want: false,
		},
		{
			name: "hostname",
			in:   "example.com",
			want: false,
		},
		{
			name: "four digit octet",
			in:   "1234.1.1.1",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIPv4(tt.in), "IsIPv4(%q)", tt.in)
		})
	}
}
