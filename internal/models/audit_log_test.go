package models

import (
	"testing"
	"time"
)

func TestNewThrottleMetadata_Blocked(t *testing.T) {
	until := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	metadata := NewThrottleMetadata(5, 0, &until)

	if metadata["attempt_count"] != 5 {
		t.Errorf("expected attempt_count 5, got %v", metadata["attempt_count"])
	}
	if metadata["remaining_attempts"] != 0 {
		t.Errorf("expected remaining_attempts 0, got %v", metadata["remaining_attempts"])
	}
	if metadata["blocked_until"] != "2026-03-01T12:00:30Z" {
		t.Errorf("expected blocked_until 2026-03-01T12:00:30Z, got %v", metadata["blocked_until"])
	}
}

func TestNewThrottleMetadata_OmitBlockedUntil(t *testing.T) {
	metadata := NewThrottleMetadata(2, 3, nil)

	if _, hasUntil := metadata["blocked_until"]; hasUntil {
		t.Errorf("expected blocked_until to be omitted when nil, but found: %v", metadata["blocked_until"])
	}
	if metadata["remaining_attempts"] != 3 {
		t.Errorf("expected remaining_attempts 3, got %v", metadata["remaining_attempts"])
	}
}

func TestAuditMetadata_ScanRoundTrip(t *testing.T) {
	var metadata AuditMetadata
	if err := metadata.Scan([]byte(`{"attempt_count":7}`)); err != nil {
		t.Fatalf("Scan() = %v, want nil", err)
	}
	if metadata["attempt_count"] != float64(7) {
		t.Errorf("expected attempt_count 7, got %v", metadata["attempt_count"])
	}

	var empty AuditMetadata
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) = %v, want nil", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil metadata, got %v", empty)
	}

	if err := empty.Scan(42); err != ErrBadRequest {
		t.Errorf("Scan(int) = %v, want ErrBadRequest", err)
	}
}
