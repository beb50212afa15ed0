package main

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/stalemac/pkg/config"
	"github.com/ExclusiveAccount/stalemac/pkg/correlate"
	"github.com/ExclusiveAccount/stalemac/pkg/history"
	"github.com/ExclusiveAccount/stalemac/pkg/inventory"
	"github.com/ExclusiveAccount/stalemac/pkg/oui"
	"github.com/ExclusiveAccount/stalemac/pkg/report"
	"github.com/ExclusiveAccount/stalemac/pkg/sighting"
)

var (
	progress = color.New(color.FgYellow)
	done     = color.New(color.FgGreen)
)

// loadSightings builds the sighting index from the history file and, when
// configured, an offline packet capture
func loadSightings(cfg config.Config, logger *logrus.Logger, status io.Writer) (*sighting.Index, error) {
	idx := sighting.NewIndex()
	parser := history.NewParser(logger)

	if cfg.HistoryPath != "" {
		progress.Fprint(status, "Loading switch history...")
		stats, err := parser.ParseFile(cfg.HistoryPath, idx)
		if err != nil {
			progress.Fprintln(status)
			return nil, err
		}
		done.Fprintln(status, "done.")
		logger.WithFields(logrus.Fields{
			"lines":     stats.Lines,
			"sightings": stats.Recorded,
			"skipped":   stats.Skipped,
		}).Infof("Loaded switch history from %s", cfg.HistoryPath)
	}

	if cfg.PcapPath != "" {
		progress.Fprint(status, "Loading packet capture...")
		stats, err := parser.LoadPcapFile(cfg.PcapPath, idx)
		if err != nil {
			progress.Fprintln(status)
			return nil, err
		}
		done.Fprintln(status, "done.")
		logger.WithFields(logrus.Fields{
			"frames":    stats.Lines,
			"sightings": stats.Recorded,
		}).Infof("Loaded packet capture from %s", cfg.PcapPath)
	}

	logger.Infof("Indexed %d MAC addresses from %d sightings", idx.Len(), idx.Events())
	return idx, nil
}

// scan runs both passes: the sighting index is fully built before the host
// database is read
func scan(cfg config.Config, now time.Time, out, status io.Writer, logger *logrus.Logger) (correlate.Summary, error) {
	scanner, err := inventory.NewScanner(cfg.Exclude, logger)
	if err != nil {
		return correlate.Summary{}, err
	}

	w, err := report.New(cfg.Format, out)
	if err != nil {
		return correlate.Summary{}, err
	}

	if cfg.OUIPath != "" {
		db := oui.NewDB(logger)
		if err := db.LoadFile(cfg.OUIPath); err != nil {
			return correlate.Summary{}, err
		}
		w = db.Annotate(w)
	}

	idx, err := loadSightings(cfg, logger, status)
	if err != nil {
		return correlate.Summary{}, err
	}

	progress.Fprint(status, "Scanning database...")
	summary, err := correlate.New(idx, cfg.Threshold, now, logger).RunFile(scanner, cfg.InventoryPath, w)
	if err != nil {
		progress.Fprintln(status)
		return summary, err
	}
	if err := w.Close(); err != nil {
		return summary, err
	}
	done.Fprintln(status, "done.")

	logger.WithFields(logrus.Fields{
		"checked":     summary.Checked,
		"stale":       summary.Stale,
		"unknown":     summary.Unknown,
		"malformed":   summary.Inventory.Malformed,
		"excluded":    summary.Inventory.Excluded,
		"date_errors": summary.DateErrors,
	}).Info("Scan complete")

	return summary, nil
}
