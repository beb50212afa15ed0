package history

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/ExclusiveAccount/stalemac/pkg/models"
	"github.com/ExclusiveAccount/stalemac/pkg/sighting"
	"github.com/ExclusiveAccount/stalemac/pkg/timestamp"
)

// LoadPcap records the Ethernet source address of every frame in an offline
// capture as a sighting at the frame's capture time (UTC). Repeated frames
// from the same MAC within the same second count once.
func (p *Parser) LoadPcap(r io.Reader, idx sighting.Recorder) (Stats, error) {
	var stats Stats

	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("failed to read pcap header: %w", err)
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

	last := make(map[string]string)
	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read packet %d: %w", stats.Lines+1, err)
		}
		stats.Lines++

		ethLayer := packet.Layer(layers.LayerTypeEthernet)
		if ethLayer == nil {
			stats.Skipped++
			continue
		}
		eth := ethLayer.(*layers.Ethernet)

		mac := strings.ToUpper(strings.ReplaceAll(eth.SrcMAC.String(), ":", ""))
		date := timestamp.Format(packet.Metadata().Timestamp.UTC())
		if last[mac] == date {
			stats.Skipped++
			continue
		}
		last[mac] = date

		idx.Record(mac, date)
		stats.Recorded++
	}

	p.logger.Debugf("Capture: %d frames, %d sightings, %d skipped", stats.Lines, stats.Recorded, stats.Skipped)
	return stats, nil
}

// LoadPcapFile opens path and loads it as an offline capture
func (p *Parser) LoadPcapFile(path string, idx sighting.Recorder) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, &models.OpenError{Kind: "packet capture", Path: path, Err: err}
	}
	defer file.Close()

	return p.LoadPcap(file, idx)
}
