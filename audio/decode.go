package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/faiface/beep/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for sources that are neither MP3
// nor WAV.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode turns raw clip bytes into an Asset. The name's extension
// picks the decoder; without a useful one the header is sniffed.
func Decode(name string, data []byte) (*Asset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return decodeMP3(data)
	case ".wav":
		return decodeWAV(data)
	}
	if len(data) >= 4 && string(data[:4]) == "RIFF" {
		return decodeWAV(data)
	}
	if looksLikeMP3(data) {
		return decodeMP3(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func looksLikeMP3(data []byte) bool {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	// bare frame sync
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeMP3 drains the whole stream. go-mp3 always emits 16-bit
// little-endian stereo at the source rate.
func decodeMP3(data []byte) (*Asset, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	asset := &Asset{SampleRate: dec.SampleRate(), Channels: 2}
	buf := make([]byte, 8192)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			asset.Samples = append(asset.Samples, int16(binary.LittleEndian.Uint16(buf[i:i+2])))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode mp3: %w", err)
		}
	}
	return asset, nil
}

func decodeWAV(data []byte) (*Asset, error) {
	stream, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer stream.Close()

	// beep streamers are stereo regardless of the file's channel count
	asset := &Asset{SampleRate: int(format.SampleRate), Channels: 2}
	buf := make([][2]float64, 1024)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			asset.Samples = append(asset.Samples, toPCM16(buf[i][0]), toPCM16(buf[i][1]))
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	return asset, nil
}

func toPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
