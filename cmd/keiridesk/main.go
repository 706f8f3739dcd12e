package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/keiridesk/keiridesk/internal/config"
	"github.com/keiridesk/keiridesk/internal/migration"
	"github.com/keiridesk/keiridesk/internal/observability"
	"github.com/keiridesk/keiridesk/internal/server"
	"github.com/keiridesk/keiridesk/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
