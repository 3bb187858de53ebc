package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tyemirov/seshmux/internal/cli"
	"github.com/tyemirov/seshmux/internal/utils"
)

// main is the entry point for the seshmux command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.LogLevelInfo)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if applicationExecutionError := cli.Execute(ctx); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
