package model

import (
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

type Factory struct {
	bun.BaseModel `bun:"planner_factory,alias:f"`

	ID   string `bun:",pk" json:"id"`
	Name string `json:"name"`
}

type Line struct {
	bun.BaseModel `bun:"planner_lines,alias:ln"`

	ID          string      `bun:",pk" json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description" swaggertype:"string"`
	IsActive    bool        `json:"isActive"`
	FactoryID   string      `json:"factoryId"`
	CreatedAt   time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Factory *Factory `bun:"rel:belongs-to,join:factory_id=id" json:"factory,omitempty"`
}
