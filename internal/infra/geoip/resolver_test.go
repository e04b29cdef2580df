package geoip

import (
	"errors"
	"net"
	"testing"
)

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("expected disabled resolver, got %v, %v", r, err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestNilResolverUnavailable(t *testing.T) {
	var r *Resolver
	if _, err := r.CountryCode("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil resolver: %v", err)
	}
}

func TestRoutable(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1":   false,
		"10.1.2.3":    false,
		"192.168.0.9": false,
		"::1":         false,
		"0.0.0.0":     false,
		"49.36.0.1":   true,
		"2001:4860::": true,
	}
	for ip, want := range cases {
		if got := routable(net.ParseIP(ip)); got != want {
			t.Errorf("routable(%s) = %v, want %v", ip, got, want)
		}
	}
}
