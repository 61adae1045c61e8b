package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/timeutil"
)

func TestGenerateSlotsCoversWindow(t *testing.T) {
	windows, err := GenerateSlots("09:00", "11:00", 30, 0)
	require.NoError(t, err)

	require.Len(t, windows, 4)
	assert.Equal(t, SlotWindow{StartTime: "09:00", EndTime: "09:30"}, windows[0])
	assert.Equal(t, SlotWindow{StartTime: "10:30", EndTime: "11:00"}, windows[3])
}

func TestGenerateSlotsWithBuffer(t *testing.T) {
	windows, err := GenerateSlots("09:00", "10:30", 30, 15)
	require.NoError(t, err)

	// 09:00-09:30, then 15 min dead time, 09:45-10:15; 10:30 boundary stops the third.
	require.Len(t, windows, 2)
	assert.Equal(t, "09:45", windows[1].StartTime)
	assert.Equal(t, "10:15", windows[1].EndTime)
}

func TestGenerateSlotsProperties(t *testing.T) {
	cases := []struct {
		start, end       string
		duration, buffer int
	}{
		{"08:00", "12:00", 30, 0},
		{"08:00", "12:00", 45, 10},
		{"00:00", "24:00", 60, 0},
		{"22:00", "24:00", 20, 5},
	}
	for _, tc := range cases {
		windows, err := GenerateSlots(tc.start, tc.end, tc.duration, tc.buffer)
		require.NoError(t, err)
		require.NotEmpty(t, windows)

		endBound, err := timeutil.ToEndMinutes(tc.end)
		require.NoError(t, err)

		prevStart := -1
		for _, w := range windows {
			start, err := timeutil.ToMinutes(w.StartTime)
			require.NoError(t, err)
			span, err := timeutil.SpanMinutes(w.StartTime, w.EndTime)
			require.NoError(t, err)

			assert.Equal(t, tc.duration, span, "every slot is exactly slotDuration long")
			assert.LessOrEqual(t, start+span, endBound, "no slot exceeds the window end")
			if prevStart >= 0 {
				assert.Equal(t, tc.duration+tc.buffer, start-prevStart, "consecutive starts are duration+buffer apart")
			}
			prevStart = start
		}
	}
}

func TestGenerateSlotsMidnightSentinel(t *testing.T) {
	windows, err := GenerateSlots("23:00", "24:00", 30, 0)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	// The sentinel is normalised to the persisted "00:00" form.
	assert.Equal(t, "23:30", windows[1].StartTime)
	assert.Equal(t, "00:00", windows[1].EndTime)
}

func TestGenerateSlotsInvalidPeriod(t *testing.T) {
	_, err := GenerateSlots("11:00", "09:00", 30, 0)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, typed.Code)

	_, err = GenerateSlots("11:00", "11:00", 30, 0)
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, typed.Code)
}

func TestGenerateSlotsInvalidInputs(t *testing.T) {
	_, err := GenerateSlots("9am", "11:00", 30, 0)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, typed.Code)

	_, err = GenerateSlots("09:00", "11:00", 0, 0)
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidRequest.Code, typed.Code)

	_, err = GenerateSlots("09:00", "11:00", 30, -5)
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidRequest.Code, typed.Code)
}
