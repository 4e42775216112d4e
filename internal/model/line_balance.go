package model

import (
	"time"

	"github.com/uptrace/bun"
)

// LineBalance is a balancing study for one (ISO week, layout) pair.
type LineBalance struct {
	bun.BaseModel `bun:"ct_line_balances,alias:lb"`

	ID        string    `bun:",pk" json:"id"`
	StrDate   string    `json:"strDate"`
	Week      int       `json:"week"`
	UserID    string    `json:"userId"`
	LayoutID  string    `json:"layoutId"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`

	// TakeCount is only populated by listings.
	TakeCount int `bun:",scanonly" json:"-"`

	Layout *Layout `bun:"rel:belongs-to,join:layout_id=id" json:"layout,omitempty"`
	User   *User   `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Takes  []*Take `bun:"rel:has-many,join:id=line_balance_id" json:"takes,omitempty"`
}

// Take is one measurement pass within a study.
type Take struct {
	bun.BaseModel `bun:"ct_cycle_time_takes,alias:tk"`

	ID            string    `bun:",pk" json:"id"`
	WorkPlanID    string    `json:"workPlanId"`
	LineBalanceID string    `json:"lineBalanceId"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`

	WorkPlan *WorkPlan          `bun:"rel:belongs-to,join:work_plan_id=id" json:"workPlan,omitempty"`
	Records  []*CycleTimeRecord `bun:"rel:has-many,join:id=take_id" json:"records,omitempty"`
}

// CycleTimeRecord holds the raw stopwatch samples of one station in one take.
type CycleTimeRecord struct {
	bun.BaseModel `bun:"ct_cycle_time_records,alias:ctr"`

	ID        string    `bun:",pk" json:"id"`
	CycleTime []float64 `bun:"cycle_time,type:json" json:"cycleTime"`
	UserID    string    `json:"userId"`
	TakeID    string    `json:"takeId"`
	StationID string    `json:"stationId"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Station *Station `bun:"rel:belongs-to,join:station_id=id" json:"station,omitempty"`
}
