package oui

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExclusiveAccount/stalemac/pkg/models"
)

const registry = `Registry,Assignment,Organization Name,Organization Address
MA-L,AABBCC,"Example Networks, Inc.",1 Main St
MA-L,001122,Cisco Systems,170 West Tasman
MA-M,0011223,Narrow Block Ltd,Somewhere
MA-L,12,Too Short,Nowhere
MA-L,334455,,No Name
`

func newDB(t *testing.T) *DB {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db := NewDB(logger)
	require.NoError(t, db.Load(strings.NewReader(registry)))
	return db
}

func TestLoad(t *testing.T) {
	db := newDB(t)
	assert.Equal(t, 3, db.Count())
}

func TestLookupLongestPrefix(t *testing.T) {
	db := newDB(t)

	assert.Equal(t, "Example Networks, Inc.", db.Lookup("AABBCCDDEEFF"))
	assert.Equal(t, "Narrow Block Ltd", db.Lookup("001122334455"))
	assert.Equal(t, "Cisco Systems", db.Lookup("001122FFFFFF"))
	assert.Equal(t, "", db.Lookup("334455667788"))
	assert.Equal(t, "", db.Lookup("AABB"))
}

func TestLoadEmpty(t *testing.T) {
	db := NewDB(nil)
	assert.Error(t, db.Load(strings.NewReader("")))
}

func TestLoadFileMissing(t *testing.T) {
	err := NewDB(nil).LoadFile(filepath.Join(t.TempDir(), "oui.csv"))

	var openErr *models.OpenError
	require.True(t, errors.As(err, &openErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type captureWriter struct {
	hosts []models.StaleHost
}

func (c *captureWriter) Write(host models.StaleHost) error {
	c.hosts = append(c.hosts, host)
	return nil
}

func (c *captureWriter) Close() error {
	return nil
}

func TestAnnotate(t *testing.T) {
	db := newDB(t)
	capture := &captureWriter{}
	w := db.Annotate(capture)

	require.NoError(t, w.Write(models.StaleHost{MAC: "AABBCC000001"}))
	require.NoError(t, w.Write(models.StaleHost{MAC: "FEFEFE000001"}))
	require.NoError(t, w.Close())

	require.Len(t, capture.hosts, 2)
	assert.Equal(t, "Example Networks, Inc.", capture.hosts[0].Vendor)
	assert.Equal(t, "", capture.hosts[1].Vendor)
}
