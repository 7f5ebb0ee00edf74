// Package audio decodes clip sources into PCM, bounds decode
// concurrency, and plays decoded assets through the system mixer.
package audio

import "math"

// Asset is a fully decoded clip source: interleaved 16-bit PCM.
type Asset struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames returns the per-channel sample count.
func (a *Asset) Frames() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

// Seconds returns the clip length in seconds.
func (a *Asset) Seconds() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(a.Frames()) / float64(a.SampleRate)
}

// Energy is the RMS loudness of the whole asset, normalized to [0,1].
// The clip list shows it as a rough "how hot is this file" hint.
func (a *Asset) Energy() float64 {
	if len(a.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.Samples {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum/float64(len(a.Samples))) / 32768
	if rms > 1 {
		rms = 1
	}
	return rms
}

// frameAt returns one frame as stereo floats, duplicating mono.
func (a *Asset) frameAt(i int) (float64, float64) {
	if a.Channels == 1 {
		v := float64(a.Samples[i]) / 32768
		return v, v
	}
	l := float64(a.Samples[i*2]) / 32768
	r := float64(a.Samples[i*2+1]) / 32768
	return l, r
}
