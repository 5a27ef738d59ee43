package transcoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rendition is one fixed rung of the adaptive bitrate ladder.
type Rendition struct {
	Name      string
	Width     int
	Height    int
	Bitrate   string
	MaxRate   string
	BufSize   string
	Bandwidth int
}

// Ladder is the fixed rendition ladder, ascending by quality. The master
// manifest lists renditions in this order.
var Ladder = []Rendition{
	{Name: "360p", Width: 640, Height: 360, Bitrate: "900k", MaxRate: "963k", BufSize: "1350k", Bandwidth: 1100000},
	{Name: "720p", Width: 1280, Height: 720, Bitrate: "2800k", MaxRate: "2996k", BufSize: "4200k", Bandwidth: 3200000},
	{Name: "1080p", Width: 1920, Height: 1080, Bitrate: "5000k", MaxRate: "5350k", BufSize: "7500k", Bandwidth: 5800000},
}

// SelectRenditions returns the ladder rungs to encode for a source of the
// given height: every rung no taller than the source, the two lowest rungs
// for sources of at least 720 lines that matched nothing, and otherwise
// the smallest rung alone. The result is never empty and stays in
// ascending ladder order.
func SelectRenditions(sourceHeight int) []Rendition {
	var available []Rendition
	for _, r := range Ladder {
		if sourceHeight >= r.Height {
			available = append(available, r)
		}
	}
	if len(available) > 0 {
		return available
	}
	if sourceHeight >= 720 {
		return append([]Rendition{}, Ladder[:2]...)
	}
	return []Rendition{Ladder[0]}
}

// MasterManifestName is the filename of the top-level adaptive manifest.
const MasterManifestName = "index.m3u8"

// writeMasterManifest writes the top-level manifest listing every encoded
// rendition with its bandwidth and resolution.
func writeMasterManifest(outputDir string, renditions []Rendition) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, r := range renditions {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n", r.Bandwidth, r.Width, r.Height)
		fmt.Fprintf(&b, "%s/index.m3u8\n", r.Name)
	}
	return os.WriteFile(filepath.Join(outputDir, MasterManifestName), []byte(b.String()), 0o644)
}
