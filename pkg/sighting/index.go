package sighting

// WindowSize is the number of sighting dates kept per MAC address
const WindowSize = 2

// Record holds the sighting window and occurrence count for one MAC address
type Record struct {
	MAC   string   // Normalized MAC address (index key)
	Dates []string // Up to WindowSize stamps, in file order
	Count uint64   // Total sightings recorded for this MAC
}

// Recorder accepts sightings while the history is loaded
type Recorder interface {
	Record(mac, date string)
}

// Reader is the read-only view handed to the inventory pass
type Reader interface {
	Lookup(mac string) (Record, bool)
}

// Index maps MAC addresses to their sighting records.
//
// The date window is a FIFO in the order sightings arrive, not in
// chronological order: once full, the entry at position 0 is evicted no
// matter how its date compares to the new one.
type Index struct {
	records map[string]*Record
	events  uint64
}

// NewIndex creates an empty sighting index
func NewIndex() *Index {
	return &Index{
		records: make(map[string]*Record),
	}
}

// Record adds a sighting of mac at date
func (idx *Index) Record(mac, date string) {
	rec, exists := idx.records[mac]
	if !exists {
		rec = &Record{
			MAC:   mac,
			Dates: make([]string, 0, WindowSize),
		}
		idx.records[mac] = rec
	}

	if len(rec.Dates) == WindowSize {
		copy(rec.Dates, rec.Dates[1:])
		rec.Dates = rec.Dates[:WindowSize-1]
	}
	rec.Dates = append(rec.Dates, date)
	rec.Count++
	idx.events++
}

// Lookup returns a copy of the record for mac
func (idx *Index) Lookup(mac string) (Record, bool) {
	rec, exists := idx.records[mac]
	if !exists {
		return Record{}, false
	}

	dates := make([]string, len(rec.Dates))
	copy(dates, rec.Dates)
	return Record{MAC: rec.MAC, Dates: dates, Count: rec.Count}, true
}

// Len returns the number of distinct MAC addresses
func (idx *Index) Len() int {
	return len(idx.records)
}

// Events returns the total number of sightings recorded
func (idx *Index) Events() uint64 {
	return idx.events
}
