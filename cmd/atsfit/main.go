package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/clock"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/logger"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/migration"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/notifier"
	obsmetrics "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/observability/metrics"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/server"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/webhook"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		obsmetrics.Module,
		migration.Module,

		// Payment domains
		gateway.Module,
		ledger.Module,
		plan.Module,
		user.Module,
		subscription.Module,
		webhook.Module,
		notifier.Module,

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
