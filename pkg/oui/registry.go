package oui

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/stalemac/pkg/inventory"
	"github.com/ExclusiveAccount/stalemac/pkg/models"
	"github.com/ExclusiveAccount/stalemac/pkg/report"
)

// minPrefix is the length of an MA-L (OUI) assignment in hex digits
const minPrefix = 6

// DB maps MAC address prefixes to the registered organization
type DB struct {
	vendors map[string]string // MAC prefix -> vendor name
	logger  *logrus.Logger
}

// NewDB creates an empty vendor database
func NewDB(logger *logrus.Logger) *DB {
	if logger == nil {
		logger = logrus.New()
	}
	return &DB{
		vendors: make(map[string]string),
		logger:  logger,
	}
}

// Load reads an IEEE registry CSV (oui.csv, mam.csv or oui36.csv layout):
// Registry,Assignment,Organization Name,Organization Address
func (db *DB) Load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	loaded := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			db.logger.Warnf("Error reading CSV line: %v", err)
			continue
		}
		if len(record) < 3 {
			continue
		}

		prefix := inventory.NormalizeMAC(record[1])
		name := strings.TrimSpace(record[2])
		if len(prefix) < minPrefix || name == "" {
			continue
		}

		db.vendors[prefix] = name
		loaded++
	}

	db.logger.Infof("Loaded %d MAC vendor entries", loaded)
	return nil
}

// LoadFile opens path and loads it as an IEEE registry CSV
func (db *DB) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &models.OpenError{Kind: "vendor registry", Path: path, Err: err}
	}
	defer file.Close()

	return db.Load(file)
}

// Lookup returns the vendor for a normalized MAC address, preferring the
// longest registered prefix
func (db *DB) Lookup(mac string) string {
	if len(mac) < minPrefix {
		return ""
	}

	for i := len(mac); i >= minPrefix; i-- {
		if name, exists := db.vendors[mac[:i]]; exists {
			return name
		}
	}

	return ""
}

// Count returns the number of entries in the vendor database
func (db *DB) Count() int {
	return len(db.vendors)
}

type annotatingWriter struct {
	report.Writer
	db *DB
}

func (a *annotatingWriter) Write(host models.StaleHost) error {
	if host.Vendor == "" {
		host.Vendor = a.db.Lookup(host.MAC)
	}
	return a.Writer.Write(host)
}

// Annotate wraps w so every stale host carries its vendor name
func (db *DB) Annotate(w report.Writer) report.Writer {
	return &annotatingWriter{Writer: w, db: db}
}
