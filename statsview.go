package main

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/retroenv/retrogolib/log"
)

const statsViewPath = "/debug/statsview"

// launchStatsView serves runtime statistics charts and the pprof handlers
// on addr in a new goroutine.
func launchStatsView(logger *log.Logger, addr string) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	logger.Info("Stats server available", log.String("url", "http://"+addr+statsViewPath))
}
