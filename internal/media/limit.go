package media

// LimitPackets wraps r so that NextPacket reports ErrEndOfStream after n
// packets. n <= 0 returns r unchanged.
func LimitPackets(r FormatReader, n int) FormatReader {
	if n <= 0 || r == nil {
		return r
	}
	return &limitedReader{FormatReader: r, remaining: n}
}

type limitedReader struct {
	FormatReader
	remaining int
}

func (l *limitedReader) NextPacket() (*Packet, error) {
	if l.remaining <= 0 {
		return nil, ErrEndOfStream
	}
	pkt, err := l.FormatReader.NextPacket()
	if err != nil {
		return nil, err
	}
	l.remaining--
	return pkt, nil
}
