package v1

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/model/types"
	"ietool.dev/backend-next/internal/pkg/middlewares"
	"ietool.dev/backend-next/internal/server/svr"
	"ietool.dev/backend-next/internal/service"
	"ietool.dev/backend-next/internal/util/rekuest"
)

type Layout struct {
	fx.In

	LayoutService *service.Layout
}

func RegisterLayout(v1 *svr.V1, c Layout) {
	v1.Get("/layouts", c.ListLayouts)
	v1.Post("/layouts", c.CreateLayout)
	v1.Get("/layouts/:id", c.GetLayout)
	v1.Get("/layouts/:id/stations", c.ListStations)
	v1.Patch("/layouts/:id/stations", c.UpdateStations)
	v1.Get("/lines/:id/layout", c.GetActiveLayout)
	v1.Get("/catalog/operations-areas", c.ListOperationsAndAreas)
}

func (c *Layout) ListLayouts(ctx *fiber.Ctx) error {
	layouts, err := c.LayoutService.ListLayouts(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(layouts)
}

// @Summary      Create a Layout Version
// @Description  Creates the next layout version of a line, copying the stations of the active one. The new layout becomes the only active layout of the line.
// @Tags         Layout
// @Accept       json
// @Produce      json
// @Param        request  body      types.CreateLayoutRequest  true  "Line of the layout"
// @Success      201      {object}  types.CreatedResponse
// @Router       /api/v1/layouts [POST]
func (c *Layout) CreateLayout(ctx *fiber.Ctx) error {
	var req types.CreateLayoutRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	id, err := c.LayoutService.CreateLayout(ctx.UserContext(), req.LineID, middlewares.UserFromCtx(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(types.CreatedResponse{ID: id})
}

func (c *Layout) GetLayout(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	layout, err := c.LayoutService.GetLayout(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(layout)
}

func (c *Layout) GetActiveLayout(ctx *fiber.Ctx) error {
	lineID, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	layout, err := c.LayoutService.GetActiveLayoutByLine(ctx.UserContext(), lineID)
	if err != nil {
		return err
	}
	return ctx.JSON(layout)
}

func (c *Layout) ListStations(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	stations, err := c.LayoutService.ListStations(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(stations)
}

// @Summary      Update Layout Stations
// @Description  Reconciles the stations of a layout with the given list, matching by operation. Sending the current list again is a no-op.
// @Tags         Layout
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Layout ID"
// @Param        request  body      types.UpdateStationsRequest  true  "Desired stations"
// @Success      200      {object}  service.StationUpdateResult
// @Router       /api/v1/layouts/{id}/stations [PATCH]
func (c *Layout) UpdateStations(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	var req types.UpdateStationsRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	result, err := c.LayoutService.UpdateStations(ctx.UserContext(), id, req.Stations)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (c *Layout) ListOperationsAndAreas(ctx *fiber.Ctx) error {
	catalog, err := c.LayoutService.ListOperationsAndAreas(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(catalog)
}
