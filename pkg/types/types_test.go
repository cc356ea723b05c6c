package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeValid(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want bool
	}{
		{"normal", ModeNormal, true},
		{"alert", ModeAlert, true},
		{"pre-lockdown", ModePreLockdown, true},
		{"lockdown", ModeLockdown, true},
		{"recovery", ModeRecovery, true},
		{"unknown", Mode("PANIC"), false},
		{"empty", Mode(""), false},
		{"lowercase", Mode("normal"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.Valid())
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"researcher", "researcher", RoleResearcher, false},
		{"director", "director", RoleDirector, false},
		{"system is not a caller role", "system", "", true},
		{"empty", "", "", true},
		{"capitalized", "Director", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelNext(t *testing.T) {
	assert.Equal(t, LevelL2, LevelL1.Next())
	assert.Equal(t, LevelL3, LevelL2.Next())
	assert.Equal(t, LevelL4, LevelL3.Next())

	// The ladder tops out at L4.
	assert.Equal(t, LevelL4, LevelL4.Next())
}

func TestEscalationStateTerminal(t *testing.T) {
	open := []EscalationState{EscalationDetected, EscalationNotified, EscalationReminded}
	for _, s := range open {
		assert.False(t, s.Terminal(), "state %s", s)
		assert.False(t, s.Handled(), "state %s", s)
	}

	closed := []EscalationState{EscalationAcknowledged, EscalationResolved, EscalationExpired}
	for _, s := range closed {
		assert.True(t, s.Terminal(), "state %s", s)
		assert.True(t, s.Handled(), "state %s", s)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	s := FormatTime(now)
	assert.Equal(t, "2026-03-14T09:26:53", s)

	parsed, err := ParseTime(s)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))

	assert.Equal(t, "20260314_092653", CompactTimestamp(now))
}

func TestParseTimeAcceptsFractionalSeconds(t *testing.T) {
	// Rows written by the previous implementation carry microseconds.
	parsed, err := ParseTime("2025-11-02T17:40:12.123456")
	require.NoError(t, err)
	assert.Equal(t, 17, parsed.Hour())
	assert.Equal(t, 12, parsed.Second())

	_, err = ParseTime("not a timestamp")
	require.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	clk := &FixedClock{Instant: start}

	assert.Equal(t, start, clk.Now())

	clk.Advance(24 * time.Hour)
	assert.Equal(t, start.Add(24*time.Hour), clk.Now())
}

func TestErrorKinds(t *testing.T) {
	var policy *PolicyError
	var invariant *InvariantError
	var storage *StorageError

	err := error(&PolicyError{Msg: "denied"})
	assert.True(t, errors.As(err, &policy))
	assert.False(t, errors.As(err, &invariant))

	wrapped := &StorageError{Op: "insert task", Err: errors.New("disk full")}
	assert.True(t, errors.As(error(wrapped), &storage))
	assert.EqualError(t, wrapped, "insert task: disk full")
	assert.EqualError(t, errors.Unwrap(wrapped), "disk full")
}

func TestStrPtr(t *testing.T) {
	assert.Nil(t, StrPtr(""))
	require.NotNil(t, StrPtr("x"))
	assert.Equal(t, "x", *StrPtr("x"))
	assert.Equal(t, "", StrVal(nil))
	assert.Equal(t, "y", StrVal(StrPtr("y")))
}
