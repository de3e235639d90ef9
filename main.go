package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"sched-server/config"
	"sched-server/di"
	"sched-server/period"
	"sched-server/util"
)

// plotOccupancy hydrates a window around today and renders the occupancy
// chart for it. Debug utility, enabled via SCHED_PLOT_OCCUPANCY.
func plotOccupancy(container *di.Container) {
	periods := container.ScheduleService.ResidentPeriods(
		period.VIEW_MONTH, time.Now(), config.DEFAULT_WINDOW_RADIUS, true)
	// Prefetches are fire-and-forget; give them a moment to land.
	time.Sleep(2 * time.Second)
	util.PlotOccupancy(container.ScheduleService.MergedView(periods, true))
}

func main() {
	cfgPath := os.Getenv("SCHED_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", cfgPath, err)
	}
	if env := os.Getenv("SCHED_ENV"); env != "" {
		cfg.Env = env
	}

	container := di.NewContainer(cfg)

	if os.Getenv("SCHED_PLOT_OCCUPANCY") != "" {
		plotOccupancy(container)
	}

	fmt.Println("starting reconciler!")
	container.ReconcilerService.Start()

	fmt.Println("starting periodic refresh job!")
	if err := container.CacheRefresherService.StartPeriodicJob(cfg.RefreshCron); err != nil {
		log.Fatalf("Failed to schedule cache refresh: %v", err)
	}

	fmt.Println("starting server!")
	container.SchedHttpServer.Start()
}
