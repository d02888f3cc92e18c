// Command alephd runs the channel daemon: it creates the shared-memory
// channel, publishes a demo state blob on a timer, drains shell commands,
// and logs the channel's name and data size on a timer until terminated.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/alephchan/alephd/config"
	"github.com/alephchan/alephd/daemon"
)

func main() {
	log.Println("🐙 alephd starting...")

	_ = godotenv.Load()

	var (
		cfgPath = pflag.StringP("config", "c", "", "path to daemon TOML config")
		name    = pflag.StringP("name", "n", "", "override channel name from config")
	)
	pflag.Parse()

	if *cfgPath == "" {
		*cfgPath = os.Getenv("ALEPHD_CONFIG")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *cfgPath, err)
		}
		cfg = loaded
	}
	if *name != "" {
		cfg.Channel.Name = *name
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.Create(cfg.Channel.Name, cfg.Channel.ChannelConfig())
	if err != nil {
		log.Fatalf("daemon: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("daemon: close: %v", err)
		}
	}()
	log.Printf("📡 channel ready: /dev/shm/%s (data_size=%d cmd_slots=%d)",
		cfg.Channel.Name, cfg.Channel.DataSize, cfg.Channel.CmdSlots)

	statsInterval := time.Duration(cfg.Log.StatsIntervalSeconds) * time.Second
	if statsInterval <= 0 {
		statsInterval = 5 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runCommandDrain(gctx, d) })
	g.Go(func() error { return runDemoPublisher(gctx, d) })
	g.Go(func() error { return runStats(gctx, d, statsInterval) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Printf("alephd: %v", err)
	}
	log.Println("👋 alephd stopped.")
}

// runCommandDrain is the daemon's single command-ring consumer. It is the
// only goroutine in the process permitted to call TryRecvCommand.
func runCommandDrain(ctx context.Context, d *daemon.Daemon) error {
	buf := make([]byte, 4096)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				clientID, n, ok := d.TryRecvCommand(buf)
				if !ok {
					break
				}
				log.Printf("cmd: client=%d len=%d payload=%q", clientID, n, buf[:n])
			}
		}
	}
}

// runDemoPublisher stands in for the real domain-state producer a consumer
// of this package would write (a PulseAudio wrapper publishing its
// volumes/devices/streams, for example). It exists only so the daemon
// binary has something to publish.
func runDemoPublisher(ctx context.Context, d *daemon.Daemon) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			seq++
			msg := []byte("tick-" + time.Now().UTC().Format(time.RFC3339Nano))
			if uint64(len(msg)) > d.DataSize() {
				msg = msg[:d.DataSize()]
			}
			d.WriteData(msg)
		}
	}
}

func runStats(ctx context.Context, d *daemon.Daemon, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			log.Printf("stats: channel=%s data_size=%d", d.Name(), d.DataSize())
		}
	}
}
