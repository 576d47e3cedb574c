package main

import (
	"testing"

	errs "barchive/pkg/errors"
	"barchive/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds("2024-06-29", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, 6, 29), start)
	assert.Equal(t, models.NewDate(2024, 7, 1), end)

	start, end, err = dayBounds("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestDayBoundsRejectsBadDates(t *testing.T) {
	_, _, err := dayBounds("06/29/2024", "")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeUsage, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "--from")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"info", "build", "download", "entries", "auth", "config"} {
		assert.True(t, names[want], want)
	}
}
