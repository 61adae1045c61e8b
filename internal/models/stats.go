package models

import "time"

// AvailabilityWindow is a derived {from, to} span of a day period that
// contains at least one available slot.
type AvailabilityWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DayStatistics breaks a provider's slot set down for one calendar day.
type DayStatistics struct {
	Date           time.Time            `json:"date"`
	TotalSlots     int                  `json:"total_slots"`
	AvailableSlots int                  `json:"available_slots"`
	BookedSlots    int                  `json:"booked_slots"`
	DisabledSlots  int                  `json:"disabled_slots"`
	TotalHours     float64              `json:"total_hours"`
	Periods        int                  `json:"periods"`
	AvailableTimes []AvailabilityWindow `json:"available_times"`
}

// ProviderStatistics is the aggregate report over a date range. Rates are
// fractions in [0, 1]; revenue is denominated in the provider's fee currency.
type ProviderStatistics struct {
	ProviderID            string          `json:"provider_id"`
	StartDate             time.Time       `json:"start_date"`
	EndDate               time.Time       `json:"end_date"`
	TotalSlots            int             `json:"total_slots"`
	AvailableSlots        int             `json:"available_slots"`
	BookedSlots           int             `json:"booked_slots"`
	DisabledSlots         int             `json:"disabled_slots"`
	TotalHours            float64         `json:"total_hours"`
	AvailableHours        float64         `json:"available_hours"`
	BookedHours           float64         `json:"booked_hours"`
	DisabledHours         float64         `json:"disabled_hours"`
	TotalPeriods          int             `json:"total_periods"`
	AveragePeriodDuration float64         `json:"average_period_duration"`
	UtilizationRate       float64         `json:"utilization_rate"`
	AvailabilityRate      float64         `json:"availability_rate"`
	EarliestSlotTime      string          `json:"earliest_slot_time,omitempty"`
	LatestSlotTime        string          `json:"latest_slot_time,omitempty"`
	MostActiveHour        int             `json:"most_active_hour"`
	PotentialRevenue      float64         `json:"potential_revenue"`
	ActualRevenue         float64         `json:"actual_revenue"`
	Days                  []DayStatistics `json:"days"`
}
