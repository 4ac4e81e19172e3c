package protocol

// DefaultMTU is the usable ATT payload per write on a BLE 4.0 link
// (23-byte ATT MTU minus 3 bytes of header). The cooker firmware never
// negotiates a larger MTU.
const DefaultMTU = 20

// ChunkFrame splits a framed command into writes of at most mtu bytes.
// The device buffers input until the terminator, so chunk boundaries may fall
// anywhere. Returns nil for an empty frame or a non-positive mtu.
func ChunkFrame(frame []byte, mtu int) [][]byte {
	if len(frame) == 0 || mtu <= 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(frame)+mtu-1)/mtu)
	for len(frame) > 0 {
		n := min(mtu, len(frame))
		chunk := make([]byte, n)
		copy(chunk, frame[:n])
		chunks = append(chunks, chunk)
		frame = frame[n:]
	}
	return chunks
}
