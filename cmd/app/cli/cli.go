package cli

import (
	"context"

	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/app"
	"ietool.dev/backend-next/internal/app/appcontext"
)

func Start(module fx.Option) error {
	return app.New(appcontext.Declare(appcontext.EnvCLI), module).Start(context.Background())
}
