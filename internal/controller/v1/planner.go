package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/pkg/cachectrl"
	"ietool.dev/backend-next/internal/server/svr"
	"ietool.dev/backend-next/internal/service"
	"ietool.dev/backend-next/internal/util/rekuest"
)

type Planner struct {
	fx.In

	LineService     *service.Line
	WorkPlanService *service.WorkPlan
	PlatformService *service.Platform
}

func RegisterPlanner(v1 *svr.V1, c Planner) {
	v1.Get("/factories", c.ListFactories)
	v1.Get("/work-plans", c.ListWorkPlans)
	v1.Get("/work-plans/:id", c.GetWorkPlan)
	v1.Get("/platforms", c.ListPlatforms)
}

func (c *Planner) ListFactories(ctx *fiber.Ctx) error {
	factories, err := c.LineService.ListFactoriesWithLines(ctx.UserContext())
	if err != nil {
		return err
	}
	cachectrl.OptInCustom(ctx, time.Now(), time.Minute)
	return ctx.JSON(factories)
}

func (c *Planner) ListWorkPlans(ctx *fiber.Ctx) error {
	date := ctx.Query("date")
	if err := rekuest.ValidVar(date, "required,isodate"); err != nil {
		return err
	}

	plans, err := c.WorkPlanService.GetWorkPlansByDate(ctx.UserContext(), date)
	if err != nil {
		return err
	}
	return ctx.JSON(plans)
}

func (c *Planner) GetWorkPlan(ctx *fiber.Ctx) error {
	id, err := rekuest.ValidID(ctx, "id")
	if err != nil {
		return err
	}

	plan, err := c.WorkPlanService.GetWorkPlan(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(plan)
}

func (c *Planner) ListPlatforms(ctx *fiber.Ctx) error {
	platforms, err := c.PlatformService.ListPlatformsInService(ctx.UserContext())
	if err != nil {
		return err
	}
	cachectrl.OptInCustom(ctx, time.Now(), time.Minute)
	return ctx.JSON(platforms)
}
