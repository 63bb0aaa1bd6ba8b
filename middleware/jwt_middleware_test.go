package middleware

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBlacklist_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				token := fmt.Sprintf("token-%d-%d", n, j)
				BlacklistToken(token, time.Now().Add(time.Minute))
				if !IsTokenBlacklisted(token) {
					t.Errorf("token %s missing right after blacklisting", token)
					return
				}
				// Sweeps run concurrently with the writers above, as the
				// cleanup goroutine does in production.
				sweepBlacklist(time.Now())
			}
		}(i)
	}
	wg.Wait()
}

func TestBlacklist_SweepKeepsLiveTokens(t *testing.T) {
	BlacklistToken("expired-token", time.Now().Add(-time.Minute))
	BlacklistToken("live-token", time.Now().Add(time.Hour))

	sweepBlacklist(time.Now())

	if IsTokenBlacklisted("expired-token") {
		t.Fatal("expired token survived the sweep")
	}
	if !IsTokenBlacklisted("live-token") {
		t.Fatal("live token removed by the sweep")
	}
}
