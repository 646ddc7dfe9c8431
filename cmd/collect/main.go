package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/mr"

	"marketfeed/internal/config"
	"marketfeed/internal/svc"
	"marketfeed/pkg/market"
	"marketfeed/pkg/market/collector"
)

var (
	configFile = flag.String("f", "etc/marketfeed.yaml", "the config file")
	days       = flag.Int("days", 0, "days of history; 0 uses DefaultDays")
	timeout    = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	workers    = flag.Int("workers", 4, "assets collected concurrently")
)

type line struct {
	Asset    string           `json:"asset"`
	Origin   string           `json:"origin,omitempty"`
	Envelope *market.Envelope `json:"envelope,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] asset [asset...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	assets := flag.Args()
	if len(assets) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	svcCtx := svc.NewServiceContext(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	results := make([]line, len(assets))
	mr.ForEach(func(source chan<- int) {
		for i := range assets {
			source <- i
		}
	}, func(i int) {
		results[i] = collect(ctx, svcCtx.Collector, assets[i], *days)
	}, mr.WithWorkers(*workers))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func collect(ctx context.Context, col *collector.Collector, asset string, days int) line {
	out := line{Asset: strings.ToLower(strings.TrimSpace(asset))}
	res, err := col.Collect(ctx, asset, days)
	if err != nil {
		var exhausted *market.ExhaustedError
		if errors.As(err, &exhausted) {
			out.Error = "all_sources_exhausted: " + exhausted.Reason()
		} else {
			out.Error = err.Error()
		}
		return out
	}
	out.Origin = string(res.Origin)
	out.Envelope = res.Envelope
	return out
}
