package model

import (
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

type Platform struct {
	bun.BaseModel `bun:"planner_platform,alias:pf"`

	ID               string      `bun:",pk" json:"id"`
	FN               int         `bun:"f_n" json:"fn"`
	Platform         string      `json:"platform"`
	SKU              string      `bun:"sku" json:"sku"`
	UPH              int         `bun:"uph" json:"uph"`
	Cost             float64     `json:"cost"`
	InService        bool        `json:"inService"`
	Components       int         `json:"components"`
	ComponentsListID null.String `json:"componentsListId" swaggertype:"string"`
	Width            null.Float  `json:"width" swaggertype:"number"`
	Height           null.Float  `json:"height" swaggertype:"number"`
	CreatedAt        time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// WorkPlan carries the throughput targets of a line for one date.
type WorkPlan struct {
	bun.BaseModel `bun:"planner_work_plan,alias:wp"`

	ID           string    `bun:",pk" json:"id"`
	WorkDayID    string    `json:"workDayId"`
	PlatformID   string    `json:"platformId"`
	LineID       string    `json:"lineId"`
	PlannedHours float64   `json:"plannedHours"`
	TargetOEE    float64   `bun:"target_oee" json:"targetOee"`
	UPHI         int       `bun:"uph_i" json:"uphI"`
	StartHour    int       `json:"startHour"`
	EndHour      int       `json:"endHour"`
	StrDate      string    `json:"strDate"`
	Week         int       `json:"week"`
	HeadCount    int       `json:"headCount"`
	FT           int       `bun:"ft" json:"ft"`
	ICT          int       `bun:"ict" json:"ict"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Platform *Platform `bun:"rel:belongs-to,join:platform_id=id" json:"platform,omitempty"`
	Line     *Line     `bun:"rel:belongs-to,join:line_id=id" json:"line,omitempty"`
}

// RatedUPH returns the rated throughput of the platform built under this plan,
// or 0 when the platform is not loaded.
func (wp *WorkPlan) RatedUPH() float64 {
	if wp == nil || wp.Platform == nil {
		return 0
	}
	return float64(wp.Platform.UPH)
}
