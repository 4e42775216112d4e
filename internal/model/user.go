package model

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"api_users,alias:u"`

	ID          string    `bun:",pk" json:"id"`
	Username    string    `json:"username"`
	IsSuspended bool      `json:"isSuspended"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
