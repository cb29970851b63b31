package middleware

import (
	"net/http"
	"testing"
	"time"
)

func TestWriteThrottle_FailOpenWhenUnconfigured(t *testing.T) {
	throttle := NewWriteThrottle(0, 0)

	for i := 0; i < 100; i++ {
		if !throttle.Allow(http.MethodPost, "user-1") {
			t.Fatal("An unconfigured throttle must allow every request")
		}
	}
}

func TestWriteThrottle_ReadVerbsExempt(t *testing.T) {
	throttle := NewWriteThrottle(1, time.Hour)

	if !throttle.Allow(http.MethodPost, "user-1") {
		t.Fatal("First write should pass")
	}
	for i := 0; i < 10; i++ {
		if !throttle.Allow(http.MethodGet, "user-1") {
			t.Error("GET must never be throttled here")
		}
	}
}

func TestWriteThrottle_BudgetExhaustion(t *testing.T) {
	throttle := NewWriteThrottle(2, time.Hour)

	if !throttle.Allow(http.MethodPost, "user-1") || !throttle.Allow(http.MethodPatch, "user-1") {
		t.Fatal("The first two writes must be within budget")
	}
	if throttle.Allow(http.MethodDelete, "user-1") {
		t.Error("The third write within the window must be denied")
	}
}

func TestWriteThrottle_PerUserBuckets(t *testing.T) {
	throttle := NewWriteThrottle(1, time.Hour)

	if !throttle.Allow(http.MethodPost, "user-1") {
		t.Fatal("First write for user-1 should pass")
	}
	if throttle.Allow(http.MethodPost, "user-1") {
		t.Error("Second write for user-1 should be denied")
	}
	if !throttle.Allow(http.MethodPost, "user-2") {
		t.Error("user-2 has their own budget and should pass")
	}
}
