package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// wavBytes builds a minimal PCM16 RIFF file with every sample set to
// the same value.
func wavBytes(sampleRate, channels, frames int, sample int16) []byte {
	var buf bytes.Buffer
	dataLen := frames * channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < frames*channels; i++ {
		binary.Write(&buf, binary.LittleEndian, sample)
	}
	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	data := wavBytes(44100, 2, 4410, 1000)

	asset, err := Decode("kick.wav", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if asset.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", asset.SampleRate)
	}
	if asset.Channels != 2 {
		t.Errorf("Channels = %d, want 2", asset.Channels)
	}
	if got := asset.Frames(); got != 4410 {
		t.Errorf("Frames() = %d, want 4410", got)
	}
	if got := asset.Seconds(); math.Abs(got-0.1) > 0.001 {
		t.Errorf("Seconds() = %v, want ~0.1", got)
	}
}

func TestDecodeMonoWAVComesOutStereo(t *testing.T) {
	data := wavBytes(22050, 1, 2205, 500)

	asset, err := Decode("mono.wav", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if asset.Channels != 2 {
		t.Errorf("Channels = %d, want 2 (mono upmixed)", asset.Channels)
	}
	if got := asset.Frames(); got != 2205 {
		t.Errorf("Frames() = %d, want 2205", got)
	}
	if got := asset.Seconds(); math.Abs(got-0.1) > 0.001 {
		t.Errorf("Seconds() = %v, want ~0.1", got)
	}
}

func TestDecodeSniffsRIFFWithoutExtension(t *testing.T) {
	data := wavBytes(44100, 2, 100, 0)

	asset, err := Decode("imported-blob", data)
	if err != nil {
		t.Fatalf("Decode without extension: %v", err)
	}
	if got := asset.Frames(); got != 100 {
		t.Errorf("Frames() = %d, want 100", got)
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode("notes.txt", []byte("just some text, not audio"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeCorruptMP3(t *testing.T) {
	if _, err := Decode("broken.mp3", []byte{0x00, 0x01, 0x02, 0x03}); err == nil {
		t.Error("corrupt mp3 decoded without error")
	}
}

func TestAssetEnergy(t *testing.T) {
	quiet := &Asset{SampleRate: 44100, Channels: 2, Samples: make([]int16, 200)}
	if got := quiet.Energy(); got != 0 {
		t.Errorf("silent asset Energy() = %v, want 0", got)
	}

	hot := &Asset{SampleRate: 44100, Channels: 2, Samples: make([]int16, 200)}
	for i := range hot.Samples {
		hot.Samples[i] = 32767
	}
	if got := hot.Energy(); got < 0.99 || got > 1 {
		t.Errorf("full-scale asset Energy() = %v, want ~1", got)
	}

	empty := &Asset{SampleRate: 44100, Channels: 2}
	if got := empty.Energy(); got != 0 {
		t.Errorf("empty asset Energy() = %v, want 0", got)
	}
}

func TestAssetStreamerOffset(t *testing.T) {
	asset := &Asset{SampleRate: 100, Channels: 2, Samples: make([]int16, 200)} // 100 frames
	st := newAssetStreamer(asset, 0.5, false)                                 // 50 frames in

	out := make([][2]float64, 200)
	n, ok := st.Stream(out)
	if n != 50 || !ok {
		t.Errorf("Stream = (%d, %v), want (50, true)", n, ok)
	}
	n, ok = st.Stream(out)
	if n != 0 || ok {
		t.Errorf("drained Stream = (%d, %v), want (0, false)", n, ok)
	}
}

func TestAssetStreamerLoopsToOffset(t *testing.T) {
	// Ramp samples so the loop point is observable.
	asset := &Asset{SampleRate: 10, Channels: 2, Samples: make([]int16, 20)} // 10 frames
	for i := 0; i < 10; i++ {
		asset.Samples[i*2] = int16(i * 1000)
		asset.Samples[i*2+1] = int16(i * 1000)
	}
	st := newAssetStreamer(asset, 0.4, true) // loop start at frame 4

	out := make([][2]float64, 9)
	n, ok := st.Stream(out)
	if n != 9 || !ok {
		t.Fatalf("Stream = (%d, %v), want (9, true)", n, ok)
	}
	// frames 4..9 then wrap to 4,5,6
	wantFrames := []int{4, 5, 6, 7, 8, 9, 4, 5, 6}
	for i, wf := range wantFrames {
		want := float64(int16(wf*1000)) / 32768
		if out[i][0] != want {
			t.Errorf("sample %d = %v, want frame %d (%v)", i, out[i][0], wf, want)
		}
	}
}

func TestAssetStreamerEmptyAssetNeverSpins(t *testing.T) {
	asset := &Asset{SampleRate: 44100, Channels: 2}
	st := newAssetStreamer(asset, 0, true)

	out := make([][2]float64, 8)
	if n, ok := st.Stream(out); n != 0 || ok {
		t.Errorf("Stream on empty looping asset = (%d, %v), want (0, false)", n, ok)
	}
}
