// Command padenc runs the DAB+ PAD encoding engine: the MOT SlideShow and
// DLS engines, the Coordinator that ticks them, and the optional HTTP
// control surface. Bootstrap follows the teacher's daemon package: load
// config, wire dependencies, run until an interrupt/terminate signal, then
// drain and shut down gracefully.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sekz/ODR-PadEnc/internal/cache"
	controlhttp "github.com/sekz/ODR-PadEnc/internal/control/http"
	"github.com/sekz/ODR-PadEnc/internal/coordinator"
	"github.com/sekz/ODR-PadEnc/internal/dls"
	"github.com/sekz/ODR-PadEnc/internal/imagecodec"
	padlog "github.com/sekz/ODR-PadEnc/internal/log"
	"github.com/sekz/ODR-PadEnc/internal/padsink"
	"github.com/sekz/ODR-PadEnc/internal/persistence"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
	"github.com/sekz/ODR-PadEnc/internal/validator"

	"github.com/sekz/ODR-PadEnc/internal/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	sinkPath := flag.String("pad-sink", "", "path to the PAD sink output file (empty = in-memory only)")
	storePath := flag.String("store", "", "path to the badger state directory (empty = no persistence)")
	flag.Parse()

	cfg, err := config.NewLoader(*configPath, version).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "padenc: config: %v\n", err)
		os.Exit(1)
	}

	padlog.Configure(padlog.Config{Level: cfg.LogLevel, Service: cfg.LogService, Version: version})
	logger := padlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *configPath, *sinkPath, *storePath); err != nil {
		logger.Error().Err(err).Msg("padenc: exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Snapshot, configPath, sinkPath, storePath string) error {
	logger := padlog.WithComponent("main")

	var sharedDedup cache.Store
	if cfg.DLS.RedisAddr != "" {
		redisStore, err := cache.NewRedis(cache.RedisConfig{Addr: cfg.DLS.RedisAddr}, logger)
		if err != nil {
			return fmt.Errorf("connect redis dedup cache: %w", err)
		}
		defer redisStore.Close()
		sharedDedup = redisStore
	}

	codec := imagecodec.New(imagecodec.DefaultBackend())
	slides := slideshow.New(slideshow.Config{
		Cap:             cfg.Slideshow.CacheCap,
		MaxObjectBytes:  cfg.Slideshow.MaxObjectBytes,
		SmartSelection:  cfg.Slideshow.SmartSelection,
		DedupEnabled:    cfg.Slideshow.DedupEnabled,
		RescoreInterval: cfg.Slideshow.RescoreInterval,
		EvictPressure:   cfg.Slideshow.EvictPressure,
		MaxWidth:        cfg.Codec.MaxWidth,
		MaxHeight:       cfg.Codec.MaxHeight,
		TargetFormat:    imagecodec.Format(cfg.Codec.TargetFormat),
		Dedup:           sharedDedup,
	}, codec, nil)
	defer slides.Stop()

	messages := dls.New(dls.Config{
		MaxLen:        cfg.DLS.MaxLen,
		DedupWindow:   cfg.DLS.DedupWindow,
		DefaultTTL:    cfg.DLS.DefaultTTL,
		SweepInterval: cfg.DLS.SweepInterval,
		Dedup:         sharedDedup,
	}, nil)
	defer messages.Stop()

	selector := dls.NewContextSelector()

	v := validator.New(validator.TokenLists{
		Disallowed: cfg.Thai.DisallowedTerms,
		Royal:      cfg.Thai.RoyalTerms,
		Religious:  cfg.Thai.ReligiousTerms,
	})

	var sink padsink.Sink = padsink.NewMemorySink()
	if sinkPath != "" {
		fileSink, err := padsink.NewFileSink(sinkPath)
		if err != nil {
			return fmt.Errorf("open pad sink: %w", err)
		}
		sink = fileSink
	}
	defer sink.Close()

	var store *persistence.Store
	if storePath != "" {
		s, err := persistence.Open(storePath)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer s.Close()
		store = s
	}

	coord := coordinator.New(coordinator.Config{
		SlideshowTickInterval: cfg.Slideshow.TickInterval,
		DLSTickInterval:       cfg.DLS.TickInterval,
		DLSEmergencyInterval:  cfg.DLS.EmergencyInterval,
	}, slides, messages, selector, sink, store)

	if cfg.Slideshow.ImageDir != "" {
		if err := slides.Scan(ctx, cfg.Slideshow.ImageDir); err != nil {
			logger.Warn().Err(err).Str("dir", cfg.Slideshow.ImageDir).Msg("main: initial image scan failed")
		}
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error { return coord.Run(gctx) })

	slides.RunRescorer()
	messages.RunSweeper()

	if cfg.Slideshow.ImageDir != "" {
		group.Go(func() error {
			return slides.Watch(gctx, cfg.Slideshow.ImageDir, nil)
		})
	}

	if cfg.Control.Enabled {
		server := controlhttp.New(controlhttp.Config{
			BindAddr:     cfg.Control.BindAddr,
			RateLimitRPS: cfg.Control.RateLimitRPS,
			ConfigPath:   configPath,
			Version:      version,
		}, slides, messages, coord, selector, v)
		group.Go(func() error { return server.ListenAndServe(gctx) })
	}

	logger.Info().Str("version", version).Msg("padenc: started")
	err := group.Wait()
	coord.Stop()
	logger.Info().Msg("padenc: stopped")
	return err
}
