package dto

import (
	"github.com/yukikurage/timecard-api/internal/services"
	"github.com/yukikurage/timecard-api/internal/worktime"
)

// MemberRollupDTO is one member's line in a team roll-up.
type MemberRollupDTO struct {
	User         MemberDTO       `json:"user"`
	TodayMinutes int             `json:"todayMinutes"`
	WeekMinutes  int             `json:"weekMinutes"`
	MonthMinutes int             `json:"monthMinutes"`
	Selected     SummaryDTO      `json:"selected"`
	Records      []TimeRecordDTO `json:"records"`
	IsWorking    bool            `json:"isWorking"`
	OpenRecord   *TimeRecordDTO  `json:"openRecord"`
	LiveMinutes  int             `json:"liveMinutes"`
}

type RollupTotalsDTO struct {
	TodayMinutes        int     `json:"todayMinutes"`
	WeekMinutes         int     `json:"weekMinutes"`
	MonthMinutes        int     `json:"monthMinutes"`
	SelectedMinutes     int     `json:"selectedMinutes"`
	SelectedHours       float64 `json:"selectedHours"`
	SelectedEarnings    float64 `json:"selectedEarnings"`
	SelectedOvertime    int     `json:"selectedOvertimeMinutes"`
	SelectedRecordCount int     `json:"selectedRecordCount"`
	CurrentlyWorking    int     `json:"currentlyWorking"`
}

type TeamRollupDTO struct {
	Team    TeamDTO           `json:"team"`
	Year    int               `json:"year"`
	Month   int               `json:"month"`
	View    string            `json:"view"`
	Members []MemberRollupDTO `json:"members"`
	Totals  RollupTotalsDTO   `json:"totals"`
}

func ToTeamRollupDTO(r *services.TeamRollup, viewerID string) TeamRollupDTO {
	members := make([]MemberRollupDTO, len(r.Members))
	for i, m := range r.Members {
		members[i] = MemberRollupDTO{
			User:         ToMemberDTO(m.User),
			TodayMinutes: m.TodayMinutes,
			WeekMinutes:  m.WeekMinutes,
			MonthMinutes: m.MonthMinutes,
			Selected:     ToSummaryDTO(m.Selected),
			Records:      ToTimeRecordDTOs(m.Records),
			IsWorking:    m.OpenRecord != nil,
			LiveMinutes:  m.LiveMinutes,
		}
		if m.OpenRecord != nil {
			open := ToTimeRecordDTO(*m.OpenRecord)
			members[i].OpenRecord = &open
		}
	}

	t := r.Totals
	return TeamRollupDTO{
		Team:    ToTeamDTO(r.Team, viewerID),
		Year:    r.Year,
		Month:   r.Month,
		View:    string(r.View),
		Members: members,
		Totals: RollupTotalsDTO{
			TodayMinutes:        t.TodayMinutes,
			WeekMinutes:         t.WeekMinutes,
			MonthMinutes:        t.MonthMinutes,
			SelectedMinutes:     t.SelectedMinutes,
			SelectedHours:       float64(t.SelectedMinutes) / 60,
			SelectedEarnings:    worktime.RoundCurrency(t.SelectedEarnings),
			SelectedOvertime:    t.SelectedOvertime,
			SelectedRecordCount: t.SelectedRecordCount,
			CurrentlyWorking:    t.CurrentlyWorking,
		},
	}
}
