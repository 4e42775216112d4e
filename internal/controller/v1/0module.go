package v1

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("controller.v1", fx.Invoke(
		RegisterLineBalance,
		RegisterLayout,
		RegisterPlanner,
		RegisterUser,
	))
}
