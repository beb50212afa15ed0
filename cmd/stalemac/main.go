package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ExclusiveAccount/stalemac/pkg/config"
	"github.com/ExclusiveAccount/stalemac/pkg/inventory"
	"github.com/ExclusiveAccount/stalemac/pkg/report"
	"github.com/ExclusiveAccount/stalemac/pkg/timestamp"
)

const (
	appName    = "stalemac"
	appVersion = "1.0.0"
)

var log = logrus.New()

func main() {
	app := newApp(log)

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp(logger *logrus.Logger) *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "Report hosts whose MAC address has not been seen on a switch for months",
		Version: appVersion,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (YAML or JSON)",
				EnvVars: []string{"STALEMAC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"STALEMAC_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress messages",
			},
		}, scanFlags()...),
		Before: func(c *cli.Context) error {
			logger.SetOutput(c.App.ErrWriter)
			logger.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Action: runScan(logger),
		Commands: []*cli.Command{
			commandScan(logger),
			commandLookup(logger),
		},
	}
}

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "history",
			Aliases: []string{"H"},
			Value:   config.DefaultConfig().HistoryPath,
			Usage:   "Switch sighting history `FILE`",
			EnvVars: []string{"STALEMAC_HISTORY"},
		},
		&cli.StringFlag{
			Name:  "pcap",
			Usage: "Also load sightings from an offline packet capture `FILE`",
		},
	}
}

func scanFlags() []cli.Flag {
	return append(historyFlags(),
		&cli.StringFlag{
			Name:    "inventory",
			Aliases: []string{"i"},
			Value:   config.DefaultConfig().InventoryPath,
			Usage:   "Host database `FILE`",
			EnvVars: []string{"STALEMAC_INVENTORY"},
		},
		&cli.IntFlag{
			Name:    "threshold",
			Aliases: []string{"m"},
			Value:   config.DefaultConfig().Threshold,
			Usage:   "Months without a sighting before a host is reported",
			EnvVars: []string{"STALEMAC_THRESHOLD"},
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "Skip host database lines matching `PATTERN` (repeatable)",
		},
		&cli.StringFlag{
			Name:    "oui",
			Usage:   "Annotate the report with vendor names from an IEEE registry CSV `FILE`",
			EnvVars: []string{"STALEMAC_OUI"},
		},
		&cli.StringFlag{
			Name:  "now",
			Usage: "Reference time as YYYYMMDD_HHMMSS (default: current time)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   report.FormatText,
			Usage:   "Report format (text, json, csv)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   "-",
			Usage:   "Write the report to `FILE` instead of stdout",
		},
	)
}

// commandScan returns the scan command configuration
func commandScan(logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:    "scan",
		Aliases: []string{"s"},
		Usage:   "Load the switch history and report stale hosts (default)",
		Flags:   scanFlags(),
		Action:  runScan(logger),
	}
}

// commandLookup returns the lookup command configuration
func commandLookup(logger *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Aliases:   []string{"l"},
		Usage:     "Show the sighting window and count for MAC addresses",
		ArgsUsage: "MAC [MAC...]",
		Flags:     historyFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("lookup needs at least one MAC address")
			}

			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			configureLogger(logger, cfg)

			idx, err := loadSightings(cfg, logger, statusWriter(c, cfg))
			if err != nil {
				return err
			}

			for _, arg := range c.Args().Slice() {
				mac := inventory.NormalizeMAC(arg)
				rec, ok := idx.Lookup(mac)
				if !ok {
					fmt.Fprintf(c.App.Writer, "%s never seen\n", mac)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s seen %d times, window: %v\n", mac, rec.Count, rec.Dates)
			}
			return nil
		},
	}
}

func runScan(logger *logrus.Logger) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := buildConfig(c)
		if err != nil {
			return err
		}
		configureLogger(logger, cfg)

		now := time.Now()
		if ctx := setIn(c, "now"); ctx != nil {
			now, err = timestamp.Parse(ctx.String("now"))
			if err != nil {
				return fmt.Errorf("invalid --now: %w", err)
			}
		}

		status := statusWriter(c, cfg)
		if cfg.Output == "" || cfg.Output == "-" {
			_, err = scan(cfg, now, c.App.Writer, status, logger)
			return err
		}

		return writeReport(cfg.Output, func(w io.Writer) error {
			_, err := scan(cfg, now, w, status, logger)
			return err
		})
	}
}

// writeReport writes through a temporary file next to path. path is only
// replaced when fn succeeds.
func writeReport(path string, fn func(io.Writer) error) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	tempFilePath := tempFile.Name()
	defer os.Remove(tempFilePath)

	if err := fn(tempFile); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Chmod(0644); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to set report file mode: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	if err := os.Rename(tempFilePath, path); err != nil {
		return fmt.Errorf("failed to replace report file: %w", err)
	}
	return nil
}

// buildConfig layers the config file, then explicitly set flags, over the defaults
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadConfigFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if ctx := setIn(c, "history"); ctx != nil {
		cfg.HistoryPath = ctx.String("history")
	}
	if ctx := setIn(c, "inventory"); ctx != nil {
		cfg.InventoryPath = ctx.String("inventory")
	}
	if ctx := setIn(c, "pcap"); ctx != nil {
		cfg.PcapPath = ctx.String("pcap")
	}
	if ctx := setIn(c, "oui"); ctx != nil {
		cfg.OUIPath = ctx.String("oui")
	}
	if ctx := setIn(c, "threshold"); ctx != nil {
		cfg.Threshold = ctx.Int("threshold")
	}
	if ctx := setIn(c, "exclude"); ctx != nil {
		cfg.Exclude = ctx.StringSlice("exclude")
	}
	if ctx := setIn(c, "format"); ctx != nil {
		cfg.Format = ctx.String("format")
	}
	if ctx := setIn(c, "output"); ctx != nil {
		cfg.Output = ctx.String("output")
	}
	if ctx := setIn(c, "log-level"); ctx != nil {
		cfg.LogLevel = ctx.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.Verbose = false
	}

	return cfg, cfg.Validate()
}

// setIn returns the innermost context in which name was explicitly set.
// Scan flags are declared on both the app and its subcommands, so a value
// given before the subcommand lives only on the app context.
func setIn(c *cli.Context, name string) *cli.Context {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx
		}
	}
	return nil
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if !cfg.Verbose && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
}

func statusWriter(c *cli.Context, cfg config.Config) io.Writer {
	if !cfg.Verbose {
		return io.Discard
	}
	return c.App.ErrWriter
}
