// Package export writes stored runs as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/parallelphysics/internal/sim"
	"github.com/san-kum/parallelphysics/internal/storage"
)

type ExportData struct {
	Run    *storage.RunMetadata `json:"run"`
	Frames []sim.FrameRecord    `json:"frames"`
}

func JSON(w io.Writer, meta *storage.RunMetadata, frames []sim.FrameRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Frames: frames})
}

// CSV writes one row per object per frame.
func CSV(w io.Writer, frames []sim.FrameRecord) error {
	cw := csv.NewWriter(w)

	dim := 0
	if len(frames) > 0 && len(frames[0].Objects) > 0 {
		dim = len(frames[0].Objects[0].State)
	}

	header := []string{"frame", "time", "object", "mass", "energy", "x", "y", "z"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("s%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range frames {
		for i, o := range rec.Objects {
			row := []string{
				strconv.Itoa(rec.Frame),
				formatFloat(rec.Time),
				strconv.Itoa(i),
				formatFloat(o.Mass),
				formatFloat(o.Energy),
				formatFloat(o.Position[0]),
				formatFloat(o.Position[1]),
				formatFloat(o.Position[2]),
			}
			for j := 0; j < dim; j++ {
				if j < len(o.State) {
					row = append(row, formatFloat(o.State[j]))
				} else {
					row = append(row, "0")
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
