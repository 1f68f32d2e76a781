// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithExponentialBackoff(t *testing.T) {
	testCases := []struct {
		name          string
		config        RetryConfig
		failures      int
		expectError   bool
		expectedCalls int
	}{
		{
			name:          "succeeds first attempt",
			config:        NewRetryConfig(3, time.Millisecond, 10*time.Millisecond),
			failures:      0,
			expectError:   false,
			expectedCalls: 1,
		},
		{
			name:          "succeeds after transient failures",
			config:        NewRetryConfig(3, time.Millisecond, 10*time.Millisecond),
			failures:      2,
			expectError:   false,
			expectedCalls: 3,
		},
		{
			name:          "exhausts all attempts",
			config:        NewRetryConfig(3, time.Millisecond, 10*time.Millisecond),
			failures:      5,
			expectError:   true,
			expectedCalls: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := RetryWithExponentialBackoff(context.Background(), tc.config, func() error {
				calls++
				if calls <= tc.failures {
					return errors.New("transient failure")
				}
				return nil
			})

			if tc.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedCalls, calls)
		})
	}
}

func TestRetryWithExponentialBackoffCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := RetryWithExponentialBackoff(ctx, NewRetryConfig(5, time.Second, time.Minute), func() error {
		calls++
		cancel()
		return errors.New("keep failing")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "retry loop should stop once the context is cancelled")
}

func TestJitterDuration(t *testing.T) {
	base := time.Minute

	for i := 0; i < 100; i++ {
		d := JitterDuration(base, 0.2)
		assert.GreaterOrEqual(t, d, 48*time.Second)
		assert.LessOrEqual(t, d, 72*time.Second)
	}

	assert.Equal(t, base, JitterDuration(base, 0), "zero fraction keeps the interval")
	assert.Equal(t, time.Duration(0), JitterDuration(0, 0.5), "zero interval is untouched")
}
