package service

import (
	"fmt"

	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/timeutil"
)

// SlotWindow is one candidate slot time-range produced by the generator.
// Windows reaching midnight carry an EndTime of "00:00", the persisted form
// of the 24:00 generation sentinel.
type SlotWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// GenerateSlots cuts the [startTime, endTime) window into consecutive
// candidate slots of exactly slotDuration minutes, leaving buffer minutes of
// dead time between one slot's end and the next slot's start. endTime may be
// the "24:00" sentinel. The function is pure; it touches no store.
func GenerateSlots(startTime, endTime string, slotDuration, buffer int) ([]SlotWindow, error) {
	if slotDuration <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, fmt.Sprintf("slot duration must be positive, got %d", slotDuration))
	}
	if buffer < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, fmt.Sprintf("buffer must not be negative, got %d", buffer))
	}

	start, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return nil, err
	}
	end, err := timeutil.ToEndMinutes(endTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrInvalidPeriod, fmt.Sprintf("window %s-%s is empty", startTime, endTime))
	}

	var windows []SlotWindow
	for cursor := start; cursor+slotDuration <= end; cursor += slotDuration + buffer {
		windows = append(windows, SlotWindow{
			StartTime: timeutil.FormatMinutes(cursor),
			EndTime:   timeutil.FormatMinutes(cursor + slotDuration),
		})
	}
	return windows, nil
}
