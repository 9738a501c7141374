package audio

import (
	"errors"
	"testing"
)

func TestDecodePCM16(t *testing.T) {
	// 0, 16384 (0.5), -32768 (-1.0) little-endian
	data := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80}

	samples, err := DecodePCM16(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("expected 0, got %v", samples[0])
	}
	if samples[1] != 0.5 {
		t.Errorf("expected 0.5, got %v", samples[1])
	}
	if samples[2] != -1.0 {
		t.Errorf("expected -1.0, got %v", samples[2])
	}
}

func TestDecodePCM16_OddLength(t *testing.T) {
	_, err := DecodePCM16([]byte{0x01, 0x02, 0x03})
	if !errors.Is(err, ErrOddPCMLength) {
		t.Errorf("expected ErrOddPCMLength, got %v", err)
	}
}

func TestDecodePCM16_Empty(t *testing.T) {
	samples, err := DecodePCM16(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected empty result, got %d samples", len(samples))
	}
}

func TestEncodePCM16_Clamps(t *testing.T) {
	data := EncodePCM16([]float32{2.0, -2.0})
	if len(data) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(data))
	}
	hi := int16(data[0]) | int16(data[1])<<8
	lo := int16(data[2]) | int16(data[3])<<8
	if hi != 32767 {
		t.Errorf("expected clamp to 32767, got %d", hi)
	}
	if lo != -32768 {
		t.Errorf("expected clamp to -32768, got %d", lo)
	}
}

func TestPCM16_RoundTrip(t *testing.T) {
	in := []byte{0x34, 0x12, 0xCD, 0xAB, 0xFF, 0x7F}
	samples, err := DecodePCM16(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := EncodePCM16(samples)
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, in[i], out[i])
		}
	}
}
