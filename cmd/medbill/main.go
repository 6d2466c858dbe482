package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/medbill/internal/cache"
	"github.com/smallbiznis/medbill/internal/config"
	"github.com/smallbiznis/medbill/internal/inquiry"
	"github.com/smallbiznis/medbill/internal/lineitem"
	"github.com/smallbiznis/medbill/internal/material"
	"github.com/smallbiznis/medbill/internal/migration"
	"github.com/smallbiznis/medbill/internal/observability"
	"github.com/smallbiznis/medbill/internal/server"
	"github.com/smallbiznis/medbill/internal/template"
	"github.com/smallbiznis/medbill/pkg/db"
	"github.com/smallbiznis/medbill/pkg/validation"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		cache.Module,
		validation.Module,
		migration.Module,

		// Functional Domains
		material.Module,
		lineitem.Module,
		inquiry.Module,
		template.Module,

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
