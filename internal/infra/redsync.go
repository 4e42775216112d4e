package infra

import (
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// RedSync shares the cache client; locks live next to the cached views they guard.
func RedSync(client *goredislib.Client) *redsync.Redsync {
	return redsync.New(goredis.NewPool(client))
}
