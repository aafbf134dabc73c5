package student

import (
	"errors"
	"testing"
)

func TestDeriveFlow(t *testing.T) {
	base, id, err := DeriveFlow("https://f.io/api/v1/prediction/abc-123")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if base != "https://f.io" {
		t.Fatalf("expected base https://f.io, got %s", base)
	}
	if id != "abc-123" {
		t.Fatalf("expected flow id abc-123, got %s", id)
	}
}

func TestDeriveFlowKeepsSchemeAndPort(t *testing.T) {
	base, id, err := DeriveFlow("http://localhost:3000/api/v1/prediction/xyz")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if base != "http://localhost:3000" {
		t.Fatalf("expected base http://localhost:3000, got %s", base)
	}
	if id != "xyz" {
		t.Fatalf("expected flow id xyz, got %s", id)
	}
}

func TestDeriveFlowNoPredictionSegment(t *testing.T) {
	if _, _, err := DeriveFlow("https://f.io/api/v1/chat/abc"); !errors.Is(err, ErrInvalidFlowURL) {
		t.Fatalf("expected ErrInvalidFlowURL, got %v", err)
	}
}

func TestDeriveFlowPredictionIsLastSegment(t *testing.T) {
	if _, _, err := DeriveFlow("https://f.io/api/v1/prediction"); !errors.Is(err, ErrInvalidFlowURL) {
		t.Fatalf("expected ErrInvalidFlowURL, got %v", err)
	}
}

func TestDeriveFlowUnparsableURL(t *testing.T) {
	for _, raw := range []string{"", "not-a-url", "://bad", "/api/v1/prediction/abc"} {
		if _, _, err := DeriveFlow(raw); !errors.Is(err, ErrInvalidFlowURL) {
			t.Fatalf("expected ErrInvalidFlowURL for %q, got %v", raw, err)
		}
	}
}

func TestDeriveFlowTrailingSlashYieldsEmptyID(t *testing.T) {
	// The required-field check downstream rejects the empty id.
	_, id, err := DeriveFlow("https://f.io/api/v1/prediction/")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty flow id, got %q", id)
	}
}
