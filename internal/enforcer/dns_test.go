package enforcer

import (
	"context"
	"errors"
	"testing"
)

func TestDNSCheckDisabledWhenNameOrIPMissing(t *testing.T) {
	enabled, reason, _, _ := dnsCheck(context.Background(), nil, "", "1.2.3.4")
	if enabled || reason != "dns_disabled" {
		t.Errorf("got enabled=%v reason=%q, want disabled/dns_disabled", enabled, reason)
	}
	enabled, reason, _, _ = dnsCheck(context.Background(), nil, "example.org", "")
	if enabled || reason != "dns_disabled" {
		t.Errorf("got enabled=%v reason=%q, want disabled/dns_disabled", enabled, reason)
	}
}

func TestDNSCheckEnabledWhenExpectedIPPresent(t *testing.T) {
	lookup := func(ctx context.Context, name string) ([]string, error) {
		return []string{"10.0.0.5", "10.0.0.6"}, nil
	}
	enabled, reason, ips, lookupErr := dnsCheck(context.Background(), lookup, "gate.example.org", "10.0.0.6")
	if !enabled || reason != "dns_enabled" || lookupErr != "" {
		t.Errorf("got enabled=%v reason=%q err=%q, want enabled/dns_enabled", enabled, reason, lookupErr)
	}
	if len(ips) != 2 {
		t.Errorf("ips = %v, want both resolved addresses", ips)
	}
}

func TestDNSCheckDisabledWhenExpectedIPAbsent(t *testing.T) {
	lookup := func(ctx context.Context, name string) ([]string, error) {
		return []string{"10.0.0.9"}, nil
	}
	enabled, reason, _, _ := dnsCheck(context.Background(), lookup, "gate.example.org", "10.0.0.6")
	if enabled || reason != "dns_disabled" {
		t.Errorf("got enabled=%v reason=%q, want disabled/dns_disabled", enabled, reason)
	}
}

func TestDNSCheckErrorReportsDNSError(t *testing.T) {
	lookup := func(ctx context.Context, name string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	enabled, reason, ips, lookupErr := dnsCheck(context.Background(), lookup, "gate.example.org", "10.0.0.6")
	if enabled || reason != "dns_error" || lookupErr == "" {
		t.Errorf("got enabled=%v reason=%q err=%q, want disabled/dns_error/non-empty error", enabled, reason, lookupErr)
	}
	if ips != nil {
		t.Errorf("ips = %v, want nil on lookup error", ips)
	}
}
