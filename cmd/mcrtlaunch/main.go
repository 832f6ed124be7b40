package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime/pprof"

	"github.com/astroforge/mcrt/internal/mcrt"
)

func main() {
	profile := os.Getenv("PROFILE") != ""
	if profile {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	cfg := "run.yaml"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}

	summary, collector, err := mcrt.Run(cfg, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("launched %d packets (%d zero-weight) in %s, total weight %.6g, total luminosity %.6g\n",
		summary.Packets, summary.ZeroWeight, summary.Elapsed, summary.TotalWeight, summary.SourceLuminosity)
	for _, m := range summary.Media {
		fmt.Printf("medium %s: mass %.6g Msun over %d sites, tau(%.3g um) x/y/z = %.3g/%.3g/%.3g\n",
			m.ID, m.Mass, m.Sites, m.RefLambda, m.TauX, m.TauY, m.TauZ)
	}

	if summary.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		fmt.Printf("serving /metrics on %s\n", summary.MetricsAddr)
		if err := http.ListenAndServe(summary.MetricsAddr, mux); err != nil {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}
}
