package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/lox/hangorburn/internal/advice"
	"github.com/lox/hangorburn/internal/api"
	"github.com/lox/hangorburn/internal/burning"
	"github.com/lox/hangorburn/internal/cache"
	"github.com/lox/hangorburn/internal/geo"
	"github.com/lox/hangorburn/internal/ingest"
	"github.com/lox/hangorburn/internal/service"
	"github.com/lox/hangorburn/internal/store"
)

type CLI struct {
	DB            string        `help:"Path to SQLite database (empty disables persistence)." default:"data/hangorburn.db" env:"HANGORBURN_DB"`
	TimeZone      string        `help:"Time zone for reported times." default:"Europe/London" env:"HANGORBURN_TZ"`
	CacheTTL      time.Duration `help:"How long fetched forecasts are reused." default:"1h" env:"HANGORBURN_CACHE_TTL"`
	IndoorTemp    float64       `help:"Indoor temperature assumed by the burning model (°C)." default:"${indoor_temp}" env:"HANGORBURN_INDOOR_TEMP"`
	RedisAddr     string        `help:"Redis address for the forecast cache." env:"REDIS_ADDR"`
	RedisPassword string        `help:"Redis password." env:"REDIS_PASSWORD"`
	OpenAIKey     string        `help:"OpenAI API key for advice text." env:"OPENAI_API_KEY"`
	ForecastURL   string        `help:"Open-Meteo forecast endpoint." default:"${forecast_url}" env:"HANGORBURN_FORECAST_URL"`
	GeocodeURL    string        `help:"Open-Meteo geocoding endpoint." default:"${geocode_url}" env:"HANGORBURN_GEOCODE_URL"`

	Serve     ServeCmd     `cmd:"" help:"Run the JSON HTTP API."`
	Recommend RecommendCmd `cmd:"" help:"Print a recommendation for a place as JSON."`
	Locations LocationsCmd `cmd:"" help:"List the reference towns and their coastal tiers."`
}

type ServeCmd struct {
	Port            string        `help:"HTTP server port." default:"8080" env:"HANGORBURN_PORT"`
	Places          []string      `help:"Places to keep warm in the cache." env:"HANGORBURN_LOCATIONS" sep:","`
	RefreshInterval time.Duration `help:"How often warm places are refetched." default:"30m" env:"HANGORBURN_REFRESH_INTERVAL"`
	NoRefresh       bool          `help:"Disable the background refresher (for local dev)."`
}

type RecommendCmd struct {
	Place  string `arg:"" help:"Town name or lat,lon."`
	Domain string `help:"drying, burning or both." default:"both" enum:"drying,burning,both"`
	Advice bool   `help:"Add AI-written advice when OPENAI_API_KEY is set."`
}

type LocationsCmd struct{}

// app is everything a command needs, built from the global flags.
type app struct {
	svc   *service.Service
	store *store.Store
	close func()
}

func (c *CLI) build(ctx context.Context) (*app, error) {
	tz, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC: %v", c.TimeZone, err)
		tz = time.UTC
	}

	a := &app{close: func() {}}
	var closers []func()
	a.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if c.DB != "" {
		if c.DB != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(c.DB), 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite", c.DB)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		closers = append(closers, func() { db.Close() })
		if c.DB == ":memory:" {
			db.SetMaxOpenConns(1)
		}

		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")

		a.store = store.New(db, tz)
		if err := a.store.Migrate(); err != nil {
			a.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Println("database migrated")
	}

	var fc cache.Cache
	switch {
	case c.RedisAddr != "":
		r, err := cache.DialRedis(ctx, c.RedisAddr, c.RedisPassword, 0)
		if err != nil {
			a.close()
			return nil, err
		}
		closers = append(closers, func() { r.Close() })
		fc = cache.Instrumented("redis", r)
		log.Printf("forecast cache: redis at %s", c.RedisAddr)
	case a.store != nil:
		fc = cache.Instrumented("sqlite", a.store)
	default:
		fc = cache.Instrumented("memory", cache.NewMemory())
	}

	ds := geo.UK()
	engines, err := service.DefaultEngines(ds, c.IndoorTemp)
	if err != nil {
		a.close()
		return nil, err
	}

	cfg := service.Config{
		Forecaster: ingest.NewForecastClient(c.ForecastURL, tz),
		Geocoder:   ingest.NewGeocoder(c.GeocodeURL, "GB"),
		Cache:      fc,
		CacheTTL:   c.CacheTTL,
		Dataset:    ds,
		Engines:    engines,
		TimeZone:   tz,
	}
	if a.store != nil {
		cfg.Locations = a.store
		cfg.Runs = a.store
	}
	if gen, err := advice.New(c.OpenAIKey); err != nil {
		log.Printf("Advice generation disabled: %v", err)
	} else {
		cfg.Advisor = gen
	}

	a.svc, err = service.New(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (cmd *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := cli.build(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !cmd.NoRefresh && len(cmd.Places) > 0 {
		var m service.Maintainer
		if a.store != nil {
			m = a.store
		}
		refresher := service.NewRefresher(a.svc, cmd.Places, cmd.RefreshInterval, m)
		go refresher.Run(ctx)
	} else {
		log.Println("refresher disabled")
	}

	server := api.NewServer(a.svc, a.store, cmd.Port)
	log.Printf("starting server on :%s", cmd.Port)
	return server.Run(ctx)
}

func (cmd *RecommendCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := cli.build(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	domains, err := a.svc.ParseDomains(cmd.Domain)
	if err != nil {
		return err
	}
	report, err := a.svc.Recommend(ctx, cmd.Place, domains, cmd.Advice)
	if errors.Is(err, service.ErrLocationNotFound) {
		return fmt.Errorf("no UK place called %q", cmd.Place)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (cmd *LocationsCmd) Run(cli *CLI) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLAT\tLON\tCOAST KM\tTIER\tSHELTER")
	ds := geo.UK()
	for _, t := range ds.Towns {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.1f\t%s\t%.2f\n",
			t.Name, t.Latitude, t.Longitude, t.CoastalKm, geo.ClassifyTier(t.CoastalKm), ds.Shelter(t.Name))
	}
	return w.Flush()
}

func main() {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hangorburn"),
		kong.Description("Should you hang the washing out, or light the woodburner?"),
		kong.UsageOnError(),
		kong.Vars{
			"forecast_url": ingest.DefaultForecastURL,
			"geocode_url":  ingest.DefaultGeocodeURL,
			"indoor_temp":  strconv.FormatFloat(burning.DefaultIndoorTemp, 'f', -1, 64),
		},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
