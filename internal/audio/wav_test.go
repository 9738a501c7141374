package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	samples := make([]float32, 160)
	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", wavHeaderSize+len(samples)*2, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("expected 16 bits per sample, got %d", bits)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != uint32(len(samples)*2) {
		t.Errorf("expected data size %d, got %d", len(samples)*2, size)
	}
}

func TestEncodeWAV_Invalid(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("expected error for empty samples")
	}
	if _, err := EncodeWAV([]float32{0}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
