package model

import (
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

type Layout struct {
	bun.BaseModel `bun:"layouts,alias:lo"`

	ID        string    `bun:",pk" json:"id"`
	Version   int       `json:"version"`
	LineID    string    `json:"lineId"`
	UserID    string    `json:"userId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Line     *Line      `bun:"rel:belongs-to,join:line_id=id" json:"line,omitempty"`
	User     *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Stations []*Station `bun:"rel:has-many,join:id=layout_id" json:"stations,omitempty"`
}

// Station is a position in a layout. Index orders stations for display and
// positional matching; OperationID is the stable key across layout edits.
type Station struct {
	bun.BaseModel `bun:"layout_stations,alias:st"`

	ID               string      `bun:",pk" json:"id"`
	Index            int         `json:"index"`
	OperationID      null.String `json:"operationId" swaggertype:"string"`
	AreaID           null.String `json:"areaId" swaggertype:"string"`
	StationClusterID null.String `json:"stationClusterId" swaggertype:"string"`
	MachineID        null.String `json:"machineId" swaggertype:"string"`
	LayoutID         null.String `json:"layoutId" swaggertype:"string"`

	Operation *Operation `bun:"rel:belongs-to,join:operation_id=id" json:"operation,omitempty"`
	Area      *Area      `bun:"rel:belongs-to,join:area_id=id" json:"area,omitempty"`
}

// Section returns the process section of the station, or an empty string if
// the area is unresolved.
func (s *Station) Section() string {
	if s == nil || s.Area == nil {
		return ""
	}
	return s.Area.Section.String
}

type Operation struct {
	bun.BaseModel `bun:"layout_operations,alias:op"`

	ID          string      `bun:",pk" json:"id"`
	Label       null.String `json:"label" swaggertype:"string"`
	Name        string      `json:"name"`
	Description null.String `json:"description" swaggertype:"string"`
	IsAutomatic bool        `json:"isAutomatic"`
}

type Area struct {
	bun.BaseModel `bun:"layout_areas,alias:ar"`

	ID      string      `bun:",pk" json:"id"`
	Index   null.Int    `json:"index" swaggertype:"integer"`
	Name    string      `json:"name"`
	Section null.String `json:"section" swaggertype:"string"`
}
