package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/paperlane/paperlane/internal/auth"
	"github.com/paperlane/paperlane/internal/batch"
	"github.com/paperlane/paperlane/internal/clock"
	"github.com/paperlane/paperlane/internal/config"
	"github.com/paperlane/paperlane/internal/ledger"
	"github.com/paperlane/paperlane/internal/migration"
	obsmetrics "github.com/paperlane/paperlane/internal/observability/metrics"
	"github.com/paperlane/paperlane/internal/server"
	"github.com/paperlane/paperlane/internal/usage"
	"github.com/paperlane/paperlane/pkg/db"
	"github.com/paperlane/paperlane/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		obsmetrics.Module,

		auth.Module,
		ledger.Module,
		batch.Module,
		usage.Module,

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
