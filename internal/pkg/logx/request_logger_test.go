package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4_with_port", "203.0.113.77:51234", "203.0.113.0"},
		{"ipv4_bare", "203.0.113.77", "203.0.113.0"},
		{"ipv4_loopback", "127.0.0.1:9999", "127.0.0.1"},
		{"ipv6_with_port", "[2001:db8::1]:443", "2001:db8::"},
		{"ipv6_full", "2001:db8:1234:5678:9abc:def0:1234:5678", "2001:db8:1234:5678::"},
		{"ipv6_loopback", "::1", "127.0.0.1"},
		{"garbage", "not-an-address", "unknown_ip"},
		{"empty", "", "unknown_ip"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnonymizeIP(tc.in))
		})
	}
}
