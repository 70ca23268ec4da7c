package flag

import (
	"github.com/smallbiznis/flaghub/internal/flag/repository"
	"github.com/smallbiznis/flaghub/internal/flag/service"
	"go.uber.org/fx"
)

var Module = fx.Module("flag.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
