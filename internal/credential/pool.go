// Package credential loads the ordered pool of forum accounts used to
// authenticate topic submissions.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credential is one forum account. Immutable once loaded; its identity is its
// position in the pool.
type Credential struct {
	Username string
	APIKey   string
}

// Pool is the ordered, read-only list of credentials. Topic N is always
// submitted by Pool[N mod len(Pool)].
type Pool []Credential

// FromEnv builds the pool from USERn_API_KEY / USERn_USERNAME pairs, n starting
// at 1. Scanning stops at the first n with neither variable set, so pools are
// contiguous by construction. When no numbered users exist, the default
// API_KEY / API_USERNAME pair becomes a pool of one.
func FromEnv() (Pool, error) {
	var pool Pool
	for n := 1; ; n++ {
		key := strings.TrimSpace(os.Getenv(fmt.Sprintf("USER%d_API_KEY", n)))
		user := strings.TrimSpace(os.Getenv(fmt.Sprintf("USER%d_USERNAME", n)))
		if key == "" && user == "" {
			break
		}
		if key == "" {
			return nil, fmt.Errorf("USER%d_USERNAME is set but USER%d_API_KEY is missing", n, n)
		}
		if user == "" {
			return nil, fmt.Errorf("USER%d_API_KEY is set but USER%d_USERNAME is missing", n, n)
		}
		pool = append(pool, Credential{Username: user, APIKey: key})
	}
	if len(pool) > 0 {
		return pool, nil
	}

	key := strings.TrimSpace(os.Getenv("API_KEY"))
	user := strings.TrimSpace(os.Getenv("API_USERNAME"))
	if key == "" || user == "" {
		return nil, errors.New("no credentials configured: set USERn_API_KEY/USERn_USERNAME pairs or API_KEY/API_USERNAME")
	}
	return Pool{{Username: user, APIKey: key}}, nil
}
