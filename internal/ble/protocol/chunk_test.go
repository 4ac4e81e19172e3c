package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestChunkFrameFitsInOne(t *testing.T) {
	chunks := ChunkFrame([]byte("status\r"), DefaultMTU)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if string(chunks[0]) != "status\r" {
		t.Errorf("chunk[0] = %q, want %q", chunks[0], "status\r")
	}
}

func TestChunkFrameEmpty(t *testing.T) {
	if chunks := ChunkFrame(nil, DefaultMTU); chunks != nil {
		t.Errorf("got %d chunks for empty frame, want nil", len(chunks))
	}
}

func TestChunkFrameSplitsLongProgram(t *testing.T) {
	frame := []byte("set program 60.0 30 65.0 45 70.0 60\r")
	chunks := ChunkFrame(frame, DefaultMTU)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > DefaultMTU {
			t.Errorf("chunk[%d] len=%d exceeds mtu=%d", i, len(c), DefaultMTU)
		}
	}
	if got := bytes.Join(chunks, nil); !bytes.Equal(got, frame) {
		t.Errorf("reassembled = %q, want %q", got, frame)
	}
}

func TestChunkFrameExactFit(t *testing.T) {
	frame := []byte(strings.Repeat("a", DefaultMTU))
	chunks := ChunkFrame(frame, DefaultMTU)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestChunkFrameOneByteOver(t *testing.T) {
	frame := []byte(strings.Repeat("a", DefaultMTU+1))
	chunks := ChunkFrame(frame, DefaultMTU)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[1]) != 1 {
		t.Errorf("last chunk len = %d, want 1", len(chunks[1]))
	}
}

func TestChunkFrameZeroMTU(t *testing.T) {
	if chunks := ChunkFrame([]byte("status\r"), 0); chunks != nil {
		t.Errorf("ChunkFrame with mtu=0 should return nil, got %v", chunks)
	}
}

func TestChunkFrameDoesNotAlias(t *testing.T) {
	frame := []byte("read temp\r")
	chunks := ChunkFrame(frame, DefaultMTU)
	frame[0] = 'X'
	if chunks[0][0] != 'r' {
		t.Error("chunk shares memory with the input frame")
	}
}
