package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucket_ExhaustsAndRefills(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.False(t, tb.Allow())
}

func TestTokenBucket_CapacityIsUpperBound(t *testing.T) {
	tb := NewTokenBucket(2, 100)
	// 即使补充速率很高，令牌数也不会超过容量
	tb.lastRefill = tb.lastRefill.Add(-10 * time.Second)
	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.False(t, tb.Allow())
}
