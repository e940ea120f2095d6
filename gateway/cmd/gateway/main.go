package main

import (
	"flag"
	"fmt"
	"os"

	"code.cloudfoundry.org/clock"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"

	"github.com/oligostore/gateway/gateway/config"
	"github.com/oligostore/gateway/gateway/server"
	"github.com/oligostore/gateway/healthendpoint"
	"github.com/oligostore/gateway/helpers"
	"github.com/oligostore/gateway/ratelimiter"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "", "config file")
	flag.Parse()
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "missing config file")
		os.Exit(1)
	}

	conf := mustLoadConfig(configPath)

	helpers.SetupOpenTelemetry()
	logger := helpers.InitLoggerFromConfig(&conf.Logging, "gateway")

	var limiter ratelimiter.Limiter
	if conf.RateLimit.Enabled() {
		limiter = ratelimiter.DefaultRateLimiter(conf.RateLimit.MaxAmount, conf.RateLimit.ValidDuration,
			logger.Session("gateway-ratelimiter"))
	}

	gatewayServer := server.NewServer(logger.Session("gateway_http_server"), conf, clock.NewClock(),
		healthendpoint.NewHTTPStatusCollector("oligostore", "gateway"),
		healthendpoint.NewCounterCollector(), limiter)
	if err := gatewayServer.Setup(); err != nil {
		logger.Error("failed to setup gateway server", err)
		os.Exit(1)
	}

	members := grouper.Members{}
	for _, listener := range []struct {
		name  string
		build func() (ifrit.Runner, error)
	}{
		{"gateway_https_server", gatewayServer.GetGatewayServer},
		{"redirect_http_server", gatewayServer.GetRedirectServer},
		{"health_server", gatewayServer.GetHealthServer},
	} {
		runner, err := listener.build()
		if err != nil {
			logger.Error("failed to create "+listener.name, err)
			os.Exit(1)
		}
		members = append(members, grouper.Member{Name: listener.name, Runner: runner})
	}

	monitor := ifrit.Invoke(sigmon.New(grouper.NewOrdered(os.Interrupt, members)))
	logger.Info("started")

	if err := <-monitor.Wait(); err != nil {
		logger.Error("exited-with-failure", err)
		os.Exit(1)
	}
	logger.Info("exited")
}

// mustLoadConfig reports problems on stdout so they land in the process
// log stream alongside everything else the gateway prints at startup.
func mustLoadConfig(path string) *config.Config {
	configFile, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stdout, "failed to open config file '%s' : %s\n", path, err.Error())
		os.Exit(1)
	}

	conf, err := config.LoadConfig(configFile)
	_ = configFile.Close()
	if err != nil {
		fmt.Fprintf(os.Stdout, "failed to read config file '%s' : %s\n", path, err.Error())
		os.Exit(1)
	}

	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stdout, "failed to validate configuration : %s\n", err.Error())
		os.Exit(1)
	}
	return conf
}
