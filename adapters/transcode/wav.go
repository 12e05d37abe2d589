package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var errNotWAV = errors.New("not a RIFF/WAVE file")

// pcm holds interleaved signed 16-bit samples
type pcm struct {
	samples    []int16
	sampleRate int
	channels   int
}

// decodeWAV parses a 16-bit PCM WAV file
func decodeWAV(data []byte) (*pcm, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var (
		format, channels, bits uint16
		sampleRate             uint32
		haveFmt                bool
		body                   []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		end := pos + size
		if end > len(data) || end < pos {
			// Streams written before their length was known carry a bogus
			// data size; take what is there.
			end = len(data)
		}
		chunk := data[pos:end]

		switch id {
		case "fmt ":
			if len(chunk) < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", len(chunk))
			}
			format = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			sampleRate = binary.LittleEndian.Uint32(chunk[4:8])
			bits = binary.LittleEndian.Uint16(chunk[14:16])
			haveFmt = true
		case "data":
			body = chunk
		}

		pos = end
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if body == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	if format != wavFormatPCM && format != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported WAV format tag %d", format)
	}
	if bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}
	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("invalid WAV header: %d channels at %d Hz", channels, sampleRate)
	}

	return &pcm{
		samples:    bytesToSamples(body),
		sampleRate: int(sampleRate),
		channels:   int(channels),
	}, nil
}

// encodeWAV writes mono 16-bit samples as a PCM WAV file
func encodeWAV(w io.Writer, samples []int16, sampleRate int) error {
	const (
		channels       = 1
		bytesPerSample = 2
	)
	dataLen := len(samples) * bytesPerSample

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	_ = binary.Write(buf, binary.LittleEndian, samples)

	_, err := w.Write(buf.Bytes())
	return err
}

func bytesToSamples(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

// downmix averages interleaved channels into one
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[f*channels+c])
		}
		out[f] = int16(sum / channels)
	}
	return out
}

// resample converts mono samples between rates with linear interpolation
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int16, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		x := float64(i) * step
		j := int(x)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := x - float64(j)
		a, b := float64(samples[j]), float64(samples[j+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}
