package audio

import "errors"

// ErrOddPCMLength reports a PCM-16 payload whose byte length is not a
// multiple of the 2-byte sample size.
var ErrOddPCMLength = errors.New("pcm16 data length must be even")

const pcmScale = 32768.0

// DecodePCM16 decodes little-endian signed 16-bit PCM mono bytes into
// normalized float32 samples in [-1.0, 1.0]. An empty payload decodes
// to an empty slice.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddPCMLength
	}
	samples := make([]float32, len(data)/2)
	for i := range samples {
		s := int16(data[2*i]) | int16(data[2*i+1])<<8
		samples[i] = float32(s) / pcmScale
	}
	return samples, nil
}

// EncodePCM16 converts normalized float32 samples back to little-endian
// signed 16-bit PCM bytes, clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, f := range samples {
		v := f * pcmScale
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		s := int16(v)
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}
