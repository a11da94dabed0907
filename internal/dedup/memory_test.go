package dedup

import (
	"context"
	"testing"
	"time"
)

func TestKey_IncludesMessageContent(t *testing.T) {
	k1 := Key("639171234567", "Reminder X")
	k2 := Key("639171234567", "Reminder Y")
	if k1 == k2 {
		t.Fatalf("expected different keys for different messages")
	}

	if Key("639171234567", "Reminder X") != k1 {
		t.Fatalf("expected key derivation to be stable")
	}
}

func TestMemoryStore_ClaimWithinWindowSuppresses(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return current }

	won, err := s.Claim(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if !won {
		t.Fatalf("expected first claim to win")
	}

	// 2 seconds later, same key: suppressed.
	current = current.Add(2 * time.Second)
	won, err = s.Claim(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if won {
		t.Fatalf("expected second claim within window to lose")
	}

	// A different key is unaffected.
	won, _ = s.Claim(ctx, "other", time.Minute)
	if !won {
		t.Fatalf("expected claim on a different key to win")
	}
}

func TestMemoryStore_ClaimAfterWindowWins(t *testing.T) {
	ctx := context.Background()

	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return current }

	if won, _ := s.Claim(ctx, "k", time.Minute); !won {
		t.Fatalf("expected first claim to win")
	}

	current = current.Add(61 * time.Second)
	if won, _ := s.Claim(ctx, "k", time.Minute); !won {
		t.Fatalf("expected claim after window expiry to win")
	}
}
