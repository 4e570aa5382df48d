// Package hostio is a reference output-device host for internal/engine,
// grounded on the teacher's audio/microphone.go portaudio.OpenStream
// pattern. It exists so the engine is demonstrably drivable end to end;
// spec.md explicitly places the raw output-device streaming layer out of
// scope for the engine itself, so internal/render and internal/engine
// never import portaudio directly, and this package is the only place
// in the module that does.
package hostio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Renderer is the subset of *engine.Engine the output host needs.
type Renderer interface {
	RenderInterleaved(out []float32, frames, channels int) int
}

// OutputHost drives a Renderer from a portaudio output stream callback.
type OutputHost struct {
	stream      *portaudio.Stream
	renderer    Renderer
	channels    int
	isStreaming bool
}

// NewOutputHost initializes portaudio. Callers must call Close when done,
// even if Start is never called, to balance portaudio.Initialize.
func NewOutputHost(renderer Renderer) (*OutputHost, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("hostio: initialize portaudio: %w", err)
	}
	return &OutputHost{renderer: renderer, channels: 2}, nil
}

// Start opens and starts a stereo output stream at sampleRate, whose
// callback calls Renderer.RenderInterleaved once per buffer.
func (h *OutputHost) Start(sampleRate float64, framesPerBuffer int) error {
	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return fmt.Errorf("hostio: default host api: %w", err)
	}

	params := portaudio.HighLatencyParameters(nil, host.DefaultOutputDevice)
	params.Output.Channels = h.channels
	params.SampleRate = sampleRate
	params.FramesPerBuffer = framesPerBuffer

	stream, err := portaudio.OpenStream(params, h.audioCallback)
	if err != nil {
		return fmt.Errorf("hostio: open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return fmt.Errorf("hostio: start output stream: %w", err)
	}
	h.stream = stream
	h.isStreaming = true
	return nil
}

// audioCallback is called on the portaudio audio thread; it must not
// allocate or block, matching the contract internal/render already
// upholds.
func (h *OutputHost) audioCallback(out []float32) {
	frames := len(out) / h.channels
	h.renderer.RenderInterleaved(out, frames, h.channels)
}

// Stop closes the output stream if running. Safe to call when not
// started.
func (h *OutputHost) Stop() error {
	if !h.isStreaming {
		return nil
	}
	h.isStreaming = false
	if err := h.stream.Close(); err != nil {
		return fmt.Errorf("hostio: close output stream: %w", err)
	}
	return nil
}

// Close terminates portaudio, balancing NewOutputHost's Initialize.
func (h *OutputHost) Close() error {
	if err := h.Stop(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
