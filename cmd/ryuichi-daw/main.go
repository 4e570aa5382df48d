// Command ryuichi-daw is a CLI demo host: it loads a JSON project file of
// tracks/clips into internal/engine and plays it through internal/hostio,
// exercising add_clip/seek/start/stop/pad-note-on end to end. It never
// calls set_bpm, so playback runs at the engine's default tempo.
package main

import (
	"log"
	"time"

	"github.com/ryuichi-daw/engine/internal/engine"
	"github.com/ryuichi-daw/engine/internal/hostio"
)

func main() {
	cfg := parseConfig()

	eng := engine.New(engine.Config{
		NumTracks:        *cfg.NumTracks,
		OutputSampleRate: uint32(*cfg.OutputSampleRate),
		NumWorkers:       *cfg.NumWorkers,
		FfmpegPath:       *cfg.FFMPEGPath,
	})
	defer eng.Close()

	if *cfg.ProjectFile != "" {
		pf, err := loadProject(*cfg.ProjectFile)
		if err != nil {
			log.Fatalf("ryuichi-daw: %v", err)
		}
		applyProject(eng, pf)
		log.Printf("ryuichi-daw: loaded project %s (%d tracks)", *cfg.ProjectFile, len(pf.Tracks))
	}

	if *cfg.PadFile != "" {
		if err := eng.LoadPad(*cfg.PadFile); err != nil {
			log.Fatalf("ryuichi-daw: %v", err)
		}
	}

	host, err := hostio.NewOutputHost(eng)
	if err != nil {
		log.Fatalf("ryuichi-daw: %v", err)
	}
	defer host.Close()

	if err := host.Start(float64(*cfg.OutputSampleRate), 0); err != nil {
		log.Fatalf("ryuichi-daw: %v", err)
	}

	if *cfg.SeekSeconds >= 0 {
		frames := uint64(*cfg.SeekSeconds * float64(*cfg.OutputSampleRate))
		eng.Seek(frames)
		log.Printf("ryuichi-daw: seeked to %.2fs", *cfg.SeekSeconds)
	}

	eng.Start()
	if *cfg.PadFile != "" {
		eng.PadNoteOn()
	}
	log.Printf("ryuichi-daw: playing for %.1fs", *cfg.PlaySeconds)

	time.Sleep(time.Duration(*cfg.PlaySeconds * float64(time.Second)))

	eng.Stop()
	log.Printf("ryuichi-daw: stopped (underruns: %d callbacks, %d samples)",
		eng.UnderrunCallbacks(), eng.UnderrunSamples())
}
