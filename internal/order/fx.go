package order

import (
	"go.uber.org/fx"

	"github.com/keiridesk/keiridesk/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(service.New),
)
