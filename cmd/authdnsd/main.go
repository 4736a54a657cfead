// Command authdnsd is the bootstrap of spec §4.5: it loads configuration,
// builds the authority table and the store stack, wires the resolution
// core, and serves UDP/TCP until signalled to stop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/astracat-dns/authdns/internal/config"
	"github.com/astracat-dns/authdns/internal/handler"
	"github.com/astracat-dns/authdns/internal/listener"
	"github.com/astracat-dns/authdns/internal/metrics"
	"github.com/astracat-dns/authdns/internal/store"
)

func main() {
	configPath := flag.String("config", "authdns.yaml", "path to the YAML configuration file")
	storePath := flag.String("store-dir", "./data/records", "directory for the LMDB record store")
	cacheEntries := flag.Int64("store-cache-entries", 100_000, "max resident entries in the store's read-through cache")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Misconfiguration at startup is fatal per spec §7: the process
		// aborts rather than serve with a guessed configuration.
		log.Fatalf("authdnsd: %v", err)
	}

	table := listener.BuildTable(cfg)

	backing, err := store.OpenLMDBStore(*storePath)
	if err != nil {
		log.Fatalf("authdnsd: %v", err)
	}
	defer backing.Close()

	cached, err := store.NewCachedStore(backing, *cacheEntries)
	if err != nil {
		log.Fatalf("authdnsd: %v", err)
	}

	m := metrics.NewMetrics()
	cached.SetRecorder(m)

	h := handler.New(table, cached, cfg.DNS.RecordTTL)
	h.SetRecorder(m)

	l := listener.New(h, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("authdnsd: serving %d zone(s) on %v", len(cfg.DNS.Zone), cfg.DNS.Inets)
	if err := l.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("authdnsd: %v", err)
	}
}
