package supplier

import (
	"go.uber.org/fx"

	"github.com/keiridesk/keiridesk/internal/supplier/service"
)

var Module = fx.Module("supplier.service",
	fx.Provide(service.New),
)
