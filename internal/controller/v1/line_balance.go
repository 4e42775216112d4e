package v1

import (
	"mime"

	"github.com/go-redsync/redsync/v4"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model/types"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/archiver"
	"ietool.dev/backend-next/internal/pkg/cachectrl"
	"ietool.dev/backend-next/internal/pkg/fiberstore"
	"ietool.dev/backend-next/internal/pkg/middlewares"
	"ietool.dev/backend-next/internal/server/svr"
	"ietool.dev/backend-next/internal/service"
	"ietool.dev/backend-next/internal/util/rekuest"
)

type LineBalance struct {
	fx.In

	Redis              *redis.Client
	RedSync            *redsync.Redsync
	LineBalanceService *service.LineBalance
	ExportService      *service.Export
}

func RegisterLineBalance(v1 *svr.V1, c LineBalance) {
	idempotent := middlewares.Idempotency(&middlewares.IdempotencyConfig{
		Lifetime:  constant.LineBalanceIdempotencyLifetime,
		KeyHeader: constant.IdempotencyKeyHeader,
		KeepResponseHeaders: []string{
			fiber.HeaderContentType,
			fiber.HeaderContentLength,
			fiber.HeaderLocation,
		},
		Storage: fiberstore.NewRedis(c.Redis, constant.LineBalanceIdempotencyRedisPrefix),
		RedSync: c.RedSync,
	})

	v1.Post("/line-balances", idempotent, c.CreateStudy)
	v1.Get("/line-balances", c.ListStudies)
	v1.Get("/line-balances/:id", c.GetStudy)
	v1.Get("/line-balances/:id/export", c.ExportStudy)
	v1.Delete("/line-balances/:id", c.DeleteStudy)
	v1.Post("/line-balances/:id/takes", idempotent, c.CreateTake)
	v1.Delete("/takes/:id", c.DeleteTake)
	v1.Put("/cycle-times/:id", c.UpdateCycleTime)
}

// @Summary      Create a Line Balance
// @Description  Opens the line balance of the ISO week of strDate for the active layout of the line, with a baseline take covering every station.
// @Tags         LineBalance
// @Accept       json
// @Produce      json
// @Param        request  body      types.CreateStudyRequest  true  "Study to create"
// @Success      201      {object}  types.CreatedResponse
// @Failure      404      {object}  apperr.Error "The line has no active layout or no work plan on strDate"
// @Failure      409      {object}  apperr.Error "A line balance already exists for the week and layout"
// @Router       /api/v1/line-balances [POST]
func (c *LineBalance) CreateStudy(ctx *fiber.Ctx) error {
	var req types.CreateStudyRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	id, err := c.LineBalanceService.CreateStudy(ctx.UserContext(), req.StrDate, req.LineID, middlewares.UserFromCtx(ctx).ID)
	if err != nil {
		return err
	}

	ctx.Location("/api/v1/line-balances/" + id)
	return ctx.Status(fiber.StatusCreated).JSON(types.CreatedResponse{ID: id})
}

// @Summary      List Line Balances of a Week
// @Tags         LineBalance
// @Produce      json
// @Param        week  query     int     false  "ISO week number"
// @Param        date  query     string  false  "Any date within the ISO week, YYYY-MM-DD"
// @Success      200   {array}   model.StudySummary
// @Router       /api/v1/line-balances [GET]
func (c *LineBalance) ListStudies(ctx *fiber.Ctx) error {
	var query types.ListStudiesQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid query: %s", err)
	}
	if err := rekuest.ValidStruct(&query); err != nil {
		return err
	}

	switch {
	case query.Week != nil:
		summaries, err := c.LineBalanceService.ListStudiesByWeek(ctx.UserContext(), *query.Week)
		if err != nil {
			return err
		}
		return ctx.JSON(summaries)
	case query.Date != "":
		summaries, err := c.LineBalanceService.ListStudiesByDate(ctx.UserContext(), query.Date)
		if err != nil {
			return err
		}
		return ctx.JSON(summaries)
	default:
		return apperr.ErrInvalidReq.Msg("either week or date is required")
	}
}

// @Summary      Get a Reconciled Line Balance
// @Description  Returns every take of the line balance merged per station, with the bottleneck of each section. Supports conditional requests via ETag.
// @Tags         LineBalance
// @Produce      json
// @Param        id   path      string  true  "Line balance ID"
// @Success      200  {object}  model.ReconciledStudyView
// @Success      304
// @Failure      404  {object}  apperr.Error
// @Router       /api/v1/line-balances/{id} [GET]
func (c *LineBalance) GetStudy(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	view, err := c.LineBalanceService.GetStudy(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	body, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if cachectrl.Revalidate(ctx, body) {
		return nil
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return ctx.Send(body)
}

// @Summary      Export a Line Balance
// @Tags         LineBalance
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "Line balance ID"
// @Success      200
// @Failure      404  {object}  apperr.Error
// @Router       /api/v1/line-balances/{id}/export [GET]
func (c *LineBalance) ExportStudy(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	book, name, err := c.ExportService.ExportStudy(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	cachectrl.OptOut(ctx)
	ctx.Set(fiber.HeaderContentType, archiver.WorkbookContent)
	ctx.Set(fiber.HeaderContentDisposition, attachmentDisposition(name))
	return ctx.Send(book)
}

// attachmentDisposition quotes or RFC 2231 encodes the file name as needed,
// since line names are user input.
func attachmentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// @Summary      Delete a Line Balance
// @Description  Deletes the line balance with all of its takes and records.
// @Tags         LineBalance
// @Param        id   path  string  true  "Line balance ID"
// @Success      204
// @Failure      404  {object}  apperr.Error
// @Router       /api/v1/line-balances/{id} [DELETE]
func (c *LineBalance) DeleteStudy(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.LineBalanceService.DeleteStudy(ctx.UserContext(), id, middlewares.UserFromCtx(ctx).ID); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// @Summary      Create a Take
// @Tags         LineBalance
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Line balance ID"
// @Param        request  body      types.CreateTakeRequest  true  "Stations to measure"
// @Success      201      {object}  types.CreatedResponse
// @Failure      400      {object}  apperr.Error "Stations are missing or outside the layout of the line balance"
// @Router       /api/v1/line-balances/{id}/takes [POST]
func (c *LineBalance) CreateTake(ctx *fiber.Ctx) error {
	studyID, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	var req types.CreateTakeRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	id, err := c.LineBalanceService.CreateTake(ctx.UserContext(), studyID, req.StationIDs, middlewares.UserFromCtx(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(types.CreatedResponse{ID: id})
}

// @Summary      Delete a Take
// @Tags         LineBalance
// @Param        id   path  string  true  "Take ID"
// @Success      204
// @Failure      404  {object}  apperr.Error
// @Router       /api/v1/takes/{id} [DELETE]
func (c *LineBalance) DeleteTake(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.LineBalanceService.DeleteTake(ctx.UserContext(), id, middlewares.UserFromCtx(ctx).ID); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// @Summary      Replace Cycle Time Samples
// @Tags         LineBalance
// @Accept       json
// @Param        id       path  string                        true  "Cycle time record ID"
// @Param        request  body  types.UpdateCycleTimeRequest  true  "Samples in seconds"
// @Success      204
// @Failure      404  {object}  apperr.Error
// @Router       /api/v1/cycle-times/{id} [PUT]
func (c *LineBalance) UpdateCycleTime(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	var req types.UpdateCycleTimeRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	if err := c.LineBalanceService.UpdateCycleTime(ctx.UserContext(), id, req.CycleTime, middlewares.UserFromCtx(ctx).ID); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
