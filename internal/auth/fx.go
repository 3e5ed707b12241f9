package auth

import (
	authdomain "github.com/paperlane/paperlane/internal/auth/domain"
	"github.com/paperlane/paperlane/internal/auth/jwtverifier"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(jwtverifier.New, fx.As(new(authdomain.Verifier))),
	),
)
