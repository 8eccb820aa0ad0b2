package main

import (
	"syscall"
	"testing"
)

func TestResolveBroker(t *testing.T) {
	cases := []struct {
		name       string
		flagValue  string
		configured string
		want       string
	}{
		{"config only", "", "tcp://10.0.0.5:1883", "tcp://10.0.0.5:1883"},
		{"flag overrides config", "tcp://other:1883", "tcp://10.0.0.5:1883", "tcp://other:1883"},
		{"flag only", "tcp://other:1883", "", "tcp://other:1883"},
		{"neither disables audit", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveBroker(tc.flagValue, tc.configured); got != tc.want {
				t.Errorf("resolveBroker(%q, %q) = %q, want %q", tc.flagValue, tc.configured, got, tc.want)
			}
		})
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q", got)
	}
}
