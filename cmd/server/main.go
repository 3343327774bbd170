package main

import (
	"github.com/marula-ai/marula/internal/server"
	"github.com/marula-ai/marula/internal/util"
	"github.com/marula-ai/marula/pkg/logger"
	"github.com/marula-ai/marula/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
