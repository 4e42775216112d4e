package cachectrl

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zeebo/xxh3"
)

func OptInCustom(ctx *fiber.Ctx, t time.Time, offset time.Duration) {
	ctx.Set("Cache-Control", "private, max-age="+strconv.Itoa(int(offset.Seconds())))
	ctx.Response().Header.SetLastModified(t)
}

func OptOut(ctx *fiber.Ctx) {
	ctx.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.Set("Pragma", "no-cache")
	ctx.Set("Expires", "0")
}

// Revalidate marks the response as cacheable only after revalidation and
// tags it with a weak ETag derived from body. It reports whether the client
// copy is current, in which case the status is already set to 304.
func Revalidate(ctx *fiber.Ctx, body []byte) bool {
	etag := `W/"` + strconv.FormatUint(xxh3.Hash(body), 36) + `"`
	ctx.Set("Cache-Control", "private, no-cache")
	ctx.Set(fiber.HeaderETag, etag)

	if ctx.Get(fiber.HeaderIfNoneMatch) == etag {
		ctx.Status(fiber.StatusNotModified)
		return true
	}
	return false
}
