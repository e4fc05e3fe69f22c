package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

func TestRun(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 8, 1, 17, 0, 0, 0, time.UTC))
	require.NoError(t, run(context.Background(), observability.NewNopLogger(), clk))
}
