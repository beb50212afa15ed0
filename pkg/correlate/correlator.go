// Package correlate joins host database entries against the switch sighting
// index and decides which hosts are stale.
//
// Two behaviors matter when reading a report:
//
//   - A MAC with no sightings at all is never reported.
//   - A MAC with two sightings in its window is measured between those two
//     sightings, not from the most recent sighting to now.
package correlate

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/stalemac/pkg/inventory"
	"github.com/ExclusiveAccount/stalemac/pkg/models"
	"github.com/ExclusiveAccount/stalemac/pkg/report"
	"github.com/ExclusiveAccount/stalemac/pkg/sighting"
	"github.com/ExclusiveAccount/stalemac/pkg/timestamp"
)

// DefaultThreshold is the staleness threshold in months
const DefaultThreshold = 6

// Summary describes one correlation pass
type Summary struct {
	Inventory  inventory.Stats
	Checked    int // Host records evaluated
	Unknown    int // Hosts whose MAC has no sightings
	Stale      int // Hosts reported
	DateErrors int // Hosts skipped because a sighting stamp did not parse
}

// Correlator evaluates host records against a sighting index
type Correlator struct {
	index     sighting.Reader
	threshold int
	now       time.Time
	logger    *logrus.Logger
}

// New creates a correlator. now is used for MACs with a single sighting.
func New(index sighting.Reader, threshold int, now time.Time, logger *logrus.Logger) *Correlator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Correlator{
		index:     index,
		threshold: threshold,
		now:       now,
		logger:    logger,
	}
}

// Months returns the elapsed months for a sighting record
func (c *Correlator) Months(rec sighting.Record) (int, error) {
	switch len(rec.Dates) {
	case 0:
		// Index.Record always appends a date; only other Reader
		// implementations can hand back an empty window.
		return 0, errors.New("sighting record has no dates")
	case 1:
		return timestamp.ElapsedMonths(rec.Dates[0], "", c.now)
	default:
		return timestamp.ElapsedMonths(rec.Dates[0], rec.Dates[1], c.now)
	}
}

// Evaluate reports whether host is stale. found is false when the MAC has
// never been sighted.
func (c *Correlator) Evaluate(host inventory.Record) (stale models.StaleHost, isStale, found bool, err error) {
	rec, found := c.index.Lookup(host.MAC)
	if !found {
		return models.StaleHost{}, false, false, nil
	}

	months, err := c.Months(rec)
	if err != nil {
		return models.StaleHost{}, false, true, err
	}

	stale = models.StaleHost{
		IP:        host.IP,
		Hostname:  host.Hostname,
		MAC:       host.MAC,
		Months:    months,
		Sightings: rec.Count,
		Dates:     rec.Dates,
	}
	return stale, months >= c.threshold, true, nil
}

// Run scans the host database in r and writes every stale host to w.
// Hosts whose sighting stamps do not parse are logged and skipped.
func (c *Correlator) Run(scanner *inventory.Scanner, r io.Reader, w report.Writer) (Summary, error) {
	var summary Summary
	stats, err := scanner.Scan(r, c.visit(&summary, w))
	summary.Inventory = stats
	return summary, err
}

// RunFile is Run over the host database at path
func (c *Correlator) RunFile(scanner *inventory.Scanner, path string, w report.Writer) (Summary, error) {
	var summary Summary
	stats, err := scanner.ScanFile(path, c.visit(&summary, w))
	summary.Inventory = stats
	return summary, err
}

func (c *Correlator) visit(summary *Summary, w report.Writer) func(inventory.Record) error {
	return func(host inventory.Record) error {
		summary.Checked++

		stale, isStale, found, err := c.Evaluate(host)
		if err != nil {
			summary.DateErrors++
			c.logger.WithFields(logrus.Fields{
				"line": host.Line,
				"host": host.Hostname,
				"mac":  host.MAC,
			}).Warnf("Skipping host: %v", err)
			return nil
		}
		if !found {
			summary.Unknown++
			return nil
		}
		if !isStale {
			return nil
		}

		summary.Stale++
		return w.Write(stale)
	}
}
