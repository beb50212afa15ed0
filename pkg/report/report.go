package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ExclusiveAccount/stalemac/pkg/models"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the accepted values for New
var Formats = []string{FormatText, FormatJSON, FormatCSV}

// Writer emits stale hosts in some output format
type Writer interface {
	Write(host models.StaleHost) error
	Close() error
}

// New returns a writer for format on w
func New(format string, w io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return &textWriter{w: w}, nil
	case FormatJSON:
		return &jsonWriter{w: w}, nil
	case FormatCSV:
		cw := csv.NewWriter(w)
		return &csvWriter{w: cw}, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// FormatLine renders the classic one-line report entry
func FormatLine(host models.StaleHost) string {
	return fmt.Sprintf("DING! %s %s %s Months: %d", host.IP, host.Hostname, host.MAC, host.Months)
}

type textWriter struct {
	w io.Writer
}

func (t *textWriter) Write(host models.StaleHost) error {
	_, err := fmt.Fprintln(t.w, FormatLine(host))
	return err
}

func (t *textWriter) Close() error {
	return nil
}

// jsonWriter buffers entries and writes a single indented array on Close
type jsonWriter struct {
	w     io.Writer
	hosts []models.StaleHost
}

func (j *jsonWriter) Write(host models.StaleHost) error {
	j.hosts = append(j.hosts, host)
	return nil
}

func (j *jsonWriter) Close() error {
	hosts := j.hosts
	if hosts == nil {
		hosts = []models.StaleHost{}
	}

	data, err := json.MarshalIndent(hosts, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(j.w, string(data))
	return err
}

type csvWriter struct {
	w       *csv.Writer
	started bool
}

func (c *csvWriter) header() error {
	if c.started {
		return nil
	}
	c.started = true
	return c.w.Write([]string{"ip", "hostname", "mac", "months", "sightings", "dates", "vendor"})
}

func (c *csvWriter) Write(host models.StaleHost) error {
	if err := c.header(); err != nil {
		return err
	}
	return c.w.Write([]string{
		host.IP,
		host.Hostname,
		host.MAC,
		strconv.Itoa(host.Months),
		strconv.FormatUint(host.Sightings, 10),
		strings.Join(host.Dates, " "),
		host.Vendor,
	})
}

func (c *csvWriter) Close() error {
	if err := c.header(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
