package api

import "github.com/gugo-beep/bazi-backend/pillar"

// =============================================================================
// RESPONSE DTOs
// =============================================================================

// PillarDTO is one upgraded Pillars row.
type PillarDTO struct {
	GregorianDatetime string `json:"gregorian_datetime"`
	GregorianYear     int    `json:"gregorian_year"`
	GregorianMonth    int    `json:"gregorian_month"`
	GregorianDay      int    `json:"gregorian_day"`
	Hour              int    `json:"hour"`

	LunarDateStr string `json:"lunar_date_str"`
	LunarYear    int    `json:"lunar_year"`
	LunarMonth   int    `json:"lunar_month"`
	LunarDay     int    `json:"lunar_day"`
	IsLeapMonth  bool   `json:"is_leap_month"`

	YearPillar  string `json:"year_pillar"`
	MonthPillar string `json:"month_pillar"`
	DayPillar   string `json:"day_pillar"`
	HourPillar  string `json:"hour_pillar"`

	TaiYuan  string `json:"tai_yuan"`
	MingGong string `json:"ming_gong"`
	ShenGong string `json:"shen_gong"`
}

// PillarListResponse wraps lookups that may match several rows.
type PillarListResponse struct {
	Count   int         `json:"count"`
	Pillars []PillarDTO `json:"pillars"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPillarDTO(r pillar.Record) PillarDTO {
	return PillarDTO{
		GregorianDatetime: r.GregorianDatetime,
		GregorianYear:     r.GregorianYear,
		GregorianMonth:    r.GregorianMonth,
		GregorianDay:      r.GregorianDay,
		Hour:              r.Hour,
		LunarDateStr:      r.LunarDateStr,
		LunarYear:         r.Lunar.Year,
		LunarMonth:        r.Lunar.Month,
		LunarDay:          r.Lunar.Day,
		IsLeapMonth:       r.Lunar.Leap,
		YearPillar:        r.Pillars.Year,
		MonthPillar:       r.Pillars.Month,
		DayPillar:         r.Pillars.Day,
		HourPillar:        r.Pillars.Hour,
		TaiYuan:           r.TaiYuan,
		MingGong:          r.MingGong,
		ShenGong:          r.ShenGong,
	}
}

func toPillarList(recs []pillar.Record) PillarListResponse {
	out := PillarListResponse{Count: len(recs), Pillars: make([]PillarDTO, 0, len(recs))}
	for _, r := range recs {
		out.Pillars = append(out.Pillars, toPillarDTO(r))
	}
	return out
}
