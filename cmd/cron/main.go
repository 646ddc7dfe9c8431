package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketfeed/internal/cli"
	"marketfeed/internal/config"
	"marketfeed/internal/scheduler"
	"marketfeed/internal/svc"
)

var (
	configFile = flag.String("f", "etc/marketfeed.yaml", "the config file")
	runNow     = flag.Bool("now", false, "run one warmup pass before waiting for the schedule")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting warmup scheduler...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}
	if !appCfg.Warmup.Enabled() {
		log.Fatalf("[main] Warmup is not configured; set Warmup.Spec and Warmup.Assets in %s", *configFile)
	}

	svcCtx := svc.NewServiceContext(*appCfg)
	warmer, err := scheduler.NewWarmer(svcCtx.Collector, appCfg.Warmup, appCfg.DefaultDays)
	if err != nil {
		log.Fatalf("[main] Failed to build warmer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *runNow {
		for _, o := range warmer.RunOnce(ctx) {
			if o.Err != nil {
				log.Printf("[warmup.%s] [ERROR] %v", o.Asset, o.Err)
				continue
			}
			log.Printf("[warmup.%s] [OK] origin=%s", o.Asset, o.Origin)
		}
	}

	warmer.Start()
	log.Println("[main] Warmup scheduler started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping scheduler...")
	warmer.Stop()
	log.Println("[main] Warmup scheduler stopped")
}
