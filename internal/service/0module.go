package service

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("service", fx.Provide(
		NewUser,
		NewLine,
		NewExport,
		NewEvents,
		NewLayout,
		NewHealth,
		NewArchive,
		NewWorkPlan,
		NewPlatform,
		NewLineBalance,
		NewTargetCheck,
		NewRedSyncLocker,
		NewStudyViewCache,
	))
}
