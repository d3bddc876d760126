// Command server runs the matching core behind the UDP boundary: bind
// an address, start the pipeline, and process orders until an
// operator presses ENTER. Translated from the reference
// implementation's runServer.
package main

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/zap"

	"matchcore/boundary"
	"matchcore/matching"
	"matchcore/observability"
	"matchcore/orderbook"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <ip> <port>\n", os.Args[0])
		os.Exit(1)
	}
	addr := fmt.Sprintf("%s:%s", os.Args[1], os.Args[2])

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.Sugar()

	bridge := observability.NewBridge()
	sampler := observability.NewSampler(bridge)

	book := orderbook.NewBook()
	engine := matching.NewEngine(book)
	pipeline := matching.NewPipeline(engine, matching.NewConfig(
		matching.WithLogger(log),
		matching.WithSampleHook(sampler.Sample),
	))

	server, err := boundary.Listen(addr, pipeline, log)
	if err != nil {
		sugar.Errorw("failed to bind", "addr", addr, "error", err)
		os.Exit(1)
	}

	metricsSrv := observability.NewMetricsServer(bridge)
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil {
			sugar.Warnw("metrics server stopped", "error", err)
		}
	}()

	pipeline.Start()
	go server.Run()

	sugar.Infow("server listening", "addr", server.Addr().String())
	fmt.Println("Press ENTER to stop server...")
	bufio.NewReader(os.Stdin).ReadString('\n')

	server.Stop()
	pipeline.Stop()
	metricsSrv.Close()

	sugar.Infow("server stopped")
}
