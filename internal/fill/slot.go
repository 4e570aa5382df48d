package fill

import "github.com/ryuichi-daw/engine/internal/decode"

// Slot is a track's decoder cache: a decoder is retained across
// successive fill calls while the active clip remains unchanged, which
// avoids repeated file-open costs. It also carries the linear-
// interpolation resample state (the two straddling source frames and the
// fractional position between them), which must be reset whenever the
// decoder is opened or seeked.
type Slot struct {
	decoder *decode.Decoder

	s0, s1         [2]float32
	haveS0, haveS1 bool
	frac           float64
}

// Clear discards the current decoder, if any, and resets resample state.
func (s *Slot) Clear() {
	if s.decoder != nil {
		_ = s.decoder.Close()
		s.decoder = nil
	}
	s.resetResample()
}

func (s *Slot) resetResample() {
	s.haveS0, s.haveS1 = false, false
	s.frac = 0
}

// Decoder exposes the currently open decoder, or nil.
func (s *Slot) Decoder() *decode.Decoder { return s.decoder }
