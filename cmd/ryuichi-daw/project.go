package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ryuichi-daw/engine/internal/engine"
)

// projectFile is the on-disk shape of a project: one entry per track,
// each listing its clips, loaded in file order. src_sr is the clip
// file's sample rate in Hz; tl_start/tl_len are in timeline frames (the
// engine's output sample rate).
type projectFile struct {
	Tracks []projectTrack `json:"tracks"`
}

type projectTrack struct {
	Volume *float32      `json:"volume"`
	Pan    *float32      `json:"pan"`
	Muted  bool          `json:"muted"`
	Clips  []projectClip `json:"clips"`
}

type projectClip struct {
	Path             string `json:"path"`
	SourceSampleRate uint32 `json:"src_sr"`
	TimelineStart    uint64 `json:"tl_start"`
	TimelineLength   uint64 `json:"tl_len"`
}

func loadProject(path string) (*projectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file %s: %w", path, err)
	}
	var pf projectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	return &pf, nil
}

// applyProject wires a parsed project into eng, track by track, clip by
// clip. Tracks beyond eng.NumTracks() are ignored; log the skip so a
// misconfigured -tracks count is visible.
func applyProject(eng *engine.Engine, pf *projectFile) {
	for i, tr := range pf.Tracks {
		if i >= eng.NumTracks() {
			log.Printf("ryuichi-daw: project has %d tracks, engine only has %d; ignoring the rest", len(pf.Tracks), eng.NumTracks())
			break
		}
		if tr.Volume != nil {
			eng.SetVolume(i, *tr.Volume)
		}
		if tr.Pan != nil {
			eng.SetPan(i, *tr.Pan)
		}
		eng.SetMute(i, tr.Muted)
		for _, c := range tr.Clips {
			eng.AddClip(i, c.Path, c.SourceSampleRate, c.TimelineStart, c.TimelineLength)
		}
	}
}
