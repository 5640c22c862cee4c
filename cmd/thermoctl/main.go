package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/ThatOneShortGuy/thermostat/internal/app"
	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/db"
	"github.com/ThatOneShortGuy/thermostat/internal/logging"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/repository"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

const appName = "thermoctl"

var version = "dev"

const usage = `usage: %s <command>
  migrate                     create missing tables and seed the default sensor
  sensors                     list registered sensors
  convert <value> <from> <to> convert a temperature between K, C and F
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintf(stderr, usage, appName)
		return 2
	}

	switch args[0] {
	case "convert":
		if len(args) != 4 {
			fmt.Fprintf(stderr, "usage: %s convert <value> <from> <to>\n", appName)
			return 2
		}
		out, err := convert(args[1], args[2], args[3])
		if err != nil {
			fmt.Fprintf(stderr, "convert: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, out)
		return 0
	case "migrate", "sensors":
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		fmt.Fprintf(stderr, usage, appName)
		return 2
	}

	cfg, err := config.LoadServerFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(stderr, cfg.Common, version, appName)

	switch args[0] {
	case "migrate":
		err = migrate(ctx, cfg, logger)
		if err == nil {
			fmt.Fprintln(stdout, "migrations applied")
		}
	case "sensors":
		err = listSensors(ctx, cfg, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func migrate(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	writer := db.NewWriter(cfg, logger)
	defer func() {
		if closeErr := writer.Close(); closeErr != nil {
			logger.Error("db close", "err", closeErr)
		}
	}()
	return app.Migrate(ctx, writer, cfg, logger)
}

func listSensors(ctx context.Context, cfg config.Server, stdout io.Writer) error {
	reader, err := db.OpenReader(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(reader)

	sensors, err := repository.NewRepository(nil, reader).ListSensors(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tCREATED")
	for _, s := range sensors {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", s.ID, s.Name, s.Active, s.CreatedDate)
	}
	return tw.Flush()
}

func convert(value, from, to string) (string, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", fmt.Errorf("invalid value %q: %w", value, err)
	}
	fromUnit, err := units.ParseUnit(from)
	if err != nil {
		return "", err
	}
	toUnit, err := units.ParseUnit(to)
	if err != nil {
		return "", err
	}
	out := units.NewTemperature(v, fromUnit).In(toUnit)
	return strconv.FormatFloat(out, 'f', 2, 64) + " " + toUnit.String(), nil
}
