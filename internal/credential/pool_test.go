package credential

import (
	"fmt"
	"strings"
	"testing"
)

func clearUserEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "")
	t.Setenv("API_USERNAME", "")
	for n := 1; n <= 12; n++ {
		t.Setenv(fmt.Sprintf("USER%d_API_KEY", n), "")
		t.Setenv(fmt.Sprintf("USER%d_USERNAME", n), "")
	}
}

func TestFromEnvNumberedUsers(t *testing.T) {
	clearUserEnv(t)
	t.Setenv("USER1_API_KEY", "k1")
	t.Setenv("USER1_USERNAME", "alice")
	t.Setenv("USER2_API_KEY", "k2")
	t.Setenv("USER2_USERNAME", "bob")

	pool, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("pool size = %d, want 2", len(pool))
	}
	if pool[0].Username != "alice" || pool[0].APIKey != "k1" {
		t.Fatalf("pool[0] = %+v", pool[0])
	}
	if pool[1].Username != "bob" || pool[1].APIKey != "k2" {
		t.Fatalf("pool[1] = %+v", pool[1])
	}
}

func TestFromEnvScanStopsAtGap(t *testing.T) {
	clearUserEnv(t)
	t.Setenv("USER1_API_KEY", "k1")
	t.Setenv("USER1_USERNAME", "alice")
	// USER2 absent; USER3 must be ignored.
	t.Setenv("USER3_API_KEY", "k3")
	t.Setenv("USER3_USERNAME", "carol")

	pool, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if len(pool) != 1 {
		t.Fatalf("pool size = %d, want 1 (scan stops at gap)", len(pool))
	}
}

func TestFromEnvHalfPairRejected(t *testing.T) {
	clearUserEnv(t)
	t.Setenv("USER1_API_KEY", "k1")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error for key without username")
	}
	if !strings.Contains(err.Error(), "USER1_USERNAME") {
		t.Fatalf("error should name the missing variable, got: %v", err)
	}
}

func TestFromEnvDefaultFallback(t *testing.T) {
	clearUserEnv(t)
	t.Setenv("API_KEY", "master")
	t.Setenv("API_USERNAME", "system")

	pool, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if len(pool) != 1 || pool[0].Username != "system" {
		t.Fatalf("pool = %+v, want single default credential", pool)
	}
}

func TestFromEnvEmpty(t *testing.T) {
	clearUserEnv(t)
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when nothing is configured")
	}
}
