package repo

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("repo", fx.Provide(
		NewTx,
		NewUser,
		NewLine,
		NewArea,
		NewTake,
		NewLayout,
		NewFactory,
		NewStation,
		NewPlatform,
		NewWorkPlan,
		NewOperation,
		NewLineBalance,
		NewCycleTimeRecord,
	))
}
