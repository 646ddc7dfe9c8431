// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"flag"
	"fmt"

	"marketfeed/internal/cli"
	"marketfeed/internal/config"
	"marketfeed/internal/handler"
	"marketfeed/internal/scheduler"
	"marketfeed/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/marketfeed.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	cli.LogConfigSummary(cfg)

	ctx := svc.NewServiceContext(*cfg)
	handler.RegisterHandlers(server, ctx)

	if cfg.Warmup.Enabled() {
		warmer, err := scheduler.NewWarmer(ctx.Collector, cfg.Warmup, cfg.DefaultDays)
		if err != nil {
			logx.Must(err)
		}
		warmer.Start()
		defer warmer.Stop()
	}

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
