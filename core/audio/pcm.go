package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// EncodePCM16 converts native float32 samples into the signed 16-bit
// little-endian wire representation. Samples outside [-1, 1] are clamped.
func EncodePCM16(frame []float32) []byte {
	data := make([]byte, len(frame)*2)
	for i, sample := range frame {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample*math.MaxInt16)))
	}
	return data
}

// DecodePCM16 converts signed 16-bit little-endian wire bytes back into
// native float32 samples. A trailing odd byte is ignored; rejecting malformed
// payloads is the transport's job, not the codec's.
func DecodePCM16(data []byte) []float32 {
	frame := make([]float32, len(data)/2)
	for i := range frame {
		frame[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / math.MaxInt16
	}
	return frame
}

// FrameDuration reports how long a frame of the given sample count plays at
// the encoding's sample rate.
func FrameDuration(samples int, encodingInfo EncodingInfo) time.Duration {
	if encodingInfo.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(encodingInfo.SampleRate) * float64(time.Second))
}

// DurationSamples reports how many samples cover the given duration at the
// encoding's sample rate.
func DurationSamples(duration time.Duration, encodingInfo EncodingInfo) int {
	return int(float64(duration) / float64(time.Second) * float64(encodingInfo.SampleRate))
}
