package main

import "flag"

// Config mirrors the teacher's options.ShaderOptions: a flat struct of
// flag-populated pointer fields, parsed once in main.
type Config struct {
	ProjectFile      *string
	OutputSampleRate *int
	NumWorkers       *int
	NumTracks        *int
	FFMPEGPath       *string
	PadFile          *string
	PlaySeconds      *float64
	SeekSeconds      *float64
}

func parseConfig() *Config {
	cfg := &Config{}
	cfg.ProjectFile = flag.String("project", "", "JSON project file of tracks/clips to load")
	cfg.OutputSampleRate = flag.Int("samplerate", 48000, "output sample rate")
	cfg.NumWorkers = flag.Int("workers", 4, "number of decode workers")
	cfg.NumTracks = flag.Int("tracks", 4, "number of tracks")
	cfg.FFMPEGPath = flag.String("ffmpeg", "", "path to ffmpeg executable (default: PATH lookup)")
	cfg.PadFile = flag.String("pad", "", "optional one-shot pad sample to load and trigger once at start")
	cfg.PlaySeconds = flag.Float64("duration", 10.0, "seconds to play before exiting")
	cfg.SeekSeconds = flag.Float64("seek", -1.0, "if >= 0, seek to this many seconds before playing")
	flag.Parse()
	return cfg
}
