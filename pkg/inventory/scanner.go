package inventory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/stalemac/pkg/models"
)

const (
	// Delimiter separates fields of a host database line
	Delimiter = "%"

	fieldIP       = 0
	fieldHostname = 1
	fieldMAC      = 8
	minFields     = fieldMAC + 1
)

// ErrMalformedLine is wrapped by LineError for lines with too few fields
var ErrMalformedLine = errors.New("malformed host database line")

// LineError reports a rejected host database line
type LineError struct {
	Line   int
	Fields int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %d fields, need at least %d", e.Line, e.Err, e.Fields, minFields)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Record is one host entry from the database
type Record struct {
	Line     int    // 1-based line number in the source
	IP       string // Field 0
	Hostname string // Field 1
	RawMAC   string // Field 8 as written
	MAC      string // Normalized MAC used as the sighting key
}

// Stats summarizes one pass over the host database
type Stats struct {
	Lines     int
	Records   int
	Comments  int
	Blank     int
	Excluded  int
	Malformed int
}

// Scanner reads the %-delimited host database
type Scanner struct {
	exclude []*regexp.Regexp
	logger  *logrus.Logger
}

// NewScanner creates a scanner that skips lines matching any exclude pattern
func NewScanner(exclude []string, logger *logrus.Logger) (*Scanner, error) {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Scanner{logger: logger}
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		s.exclude = append(s.exclude, re)
	}

	return s, nil
}

// NormalizeMAC strips separators and upper-cases a MAC address
func NormalizeMAC(mac string) string {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	mac = strings.ReplaceAll(mac, ":", "")
	mac = strings.ReplaceAll(mac, "-", "")
	mac = strings.ReplaceAll(mac, ".", "")
	return mac
}

func (s *Scanner) excluded(line string) bool {
	for _, re := range s.exclude {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// ParseLine splits one database line into a Record
func ParseLine(lineNo int, line string) (Record, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) < minFields {
		return Record{}, &LineError{Line: lineNo, Fields: len(fields), Err: ErrMalformedLine}
	}

	return Record{
		Line:     lineNo,
		IP:       fields[fieldIP],
		Hostname: fields[fieldHostname],
		RawMAC:   fields[fieldMAC],
		MAC:      NormalizeMAC(fields[fieldMAC]),
	}, nil
}

// Scan calls fn for every host record in r. Malformed lines are logged,
// counted and skipped. A non-nil error from fn stops the scan.
func (s *Scanner) Scan(r io.Reader, fn func(Record) error) (Stats, error) {
	var stats Stats

	reader := bufio.NewReader(r)
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" {
			stats.Lines++
			if err := s.scanLine(&stats, trimEOL(line), fn); err != nil {
				return stats, err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("failed to read host database at line %d: %w", stats.Lines+1, readErr)
		}
	}

	return stats, nil
}

func (s *Scanner) scanLine(stats *Stats, line string, fn func(Record) error) error {
	s.logger.Debugf("Line: %d", stats.Lines)

	switch {
	case strings.HasPrefix(line, "#"):
		stats.Comments++
		return nil
	case strings.TrimSpace(line) == "":
		stats.Blank++
		return nil
	case s.excluded(line):
		stats.Excluded++
		return nil
	}

	rec, err := ParseLine(stats.Lines, line)
	if err != nil {
		stats.Malformed++
		s.logger.Warnf("Skipping host database %v", err)
		return nil
	}

	stats.Records++
	return fn(rec)
}

// trimEOL drops a trailing "\n" or "\r\n"
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// ScanFile opens path and scans it as a host database
func (s *Scanner) ScanFile(path string, fn func(Record) error) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, &models.OpenError{Kind: "host database", Path: path, Err: err}
	}
	defer file.Close()

	return s.Scan(file, fn)
}
