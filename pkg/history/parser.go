package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/stalemac/pkg/models"
	"github.com/ExclusiveAccount/stalemac/pkg/sighting"
)

// linePattern matches "<stamp> <f1> <f2> <f3> <mac[,mac...]>"
var linePattern = regexp.MustCompile(`^(\d+_\d+)\s+\S+\s+\S+\s+\S+\s+(([0-9A-F]+,?)+)`)

// Stats summarizes one pass over a history source
type Stats struct {
	Lines    int // Lines read
	Recorded int // Sightings recorded
	Skipped  int // Lines not matching the history format
}

// Parser loads switch sighting history into a sighting index
type Parser struct {
	logger *logrus.Logger
}

// NewParser creates a new history parser
func NewParser(logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
	}
	return &Parser{logger: logger}
}

// ParseLine extracts the stamp and MAC token from one history line
func ParseLine(line string) (date, mac string, ok bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// trimEOL drops a trailing "\n" or "\r\n"
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Parse records one sighting per matching line of r
func (p *Parser) Parse(r io.Reader, idx sighting.Recorder) (Stats, error) {
	var stats Stats

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			stats.Lines++
			date, mac, ok := ParseLine(trimEOL(line))
			if ok {
				idx.Record(mac, date)
				stats.Recorded++
			} else {
				stats.Skipped++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read switch history at line %d: %w", stats.Lines+1, err)
		}
	}

	p.logger.Debugf("History: %d lines, %d sightings, %d skipped", stats.Lines, stats.Recorded, stats.Skipped)
	return stats, nil
}

// ParseFile opens path and parses it as switch history
func (p *Parser) ParseFile(path string, idx sighting.Recorder) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, &models.OpenError{Kind: "switchwalk history", Path: path, Err: err}
	}
	defer file.Close()

	return p.Parse(file, idx)
}
