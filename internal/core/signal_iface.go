package core

// Frame is one encoded control-channel message.
type Frame []byte

// SignalConnection abstracts the control-channel transport.
// Owned by the adapter; Close flushes queued frames and then drops the peer.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
