package flash

// Setting is a bounded, stepped device parameter such as the flash timeout
// in microseconds or the flash current in microamperes.
type Setting struct {
	Min  uint32 `yaml:"min"`
	Max  uint32 `yaml:"max"`
	Step uint32 `yaml:"step"`
	Val  uint32 `yaml:"default"`
}

// Valid reports whether the bounds are usable.
func (s Setting) Valid() bool {
	return s.Step > 0 && s.Min <= s.Max
}

// ClampAlign rounds v to the nearest step above Min and clamps it to
// [Min, Max]. Steps are counted from Min.
func (s Setting) ClampAlign(v uint32) uint32 {
	if s.Step == 0 {
		return min(max(v, s.Min), s.Max)
	}

	half := s.Step / 2
	if v > ^uint32(0)-half {
		v = ^uint32(0)
	} else {
		v += half
	}
	v = min(max(v, s.Min), s.Max)

	offset := v - s.Min
	offset = s.Step * (offset / s.Step)
	return s.Min + offset
}
