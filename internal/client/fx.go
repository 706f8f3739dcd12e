package client

import (
	"go.uber.org/fx"

	"github.com/keiridesk/keiridesk/internal/client/service"
)

var Module = fx.Module("client.service",
	fx.Provide(service.New),
)
