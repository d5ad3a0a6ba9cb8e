package transporttest

import (
	"sync"

	"peerlink/transport"
)

// DataChannel is a fake transport.DataChannel that records what is sent.
type DataChannel struct {
	mu        sync.Mutex
	label     string
	id        *uint16
	state     transport.DataChannelState
	texts     []string
	binaries  [][]byte
	onMessage func(transport.Message)
	onOpen    func()
	onClose   func()

	// SendErr makes every send fail.
	SendErr error
}

var _ transport.DataChannel = (*DataChannel)(nil)

// NewDataChannel creates a connecting channel.
func NewDataChannel(label string) *DataChannel {
	return &DataChannel{label: label}
}

// Label implements transport.DataChannel.
func (d *DataChannel) Label() string { return d.label }

// ID implements transport.DataChannel.
func (d *DataChannel) ID() *uint16 { return d.id }

// ReadyState implements transport.DataChannel.
func (d *DataChannel) ReadyState() transport.DataChannelState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Send implements transport.DataChannel.
func (d *DataChannel) Send(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SendErr != nil {
		return d.SendErr
	}
	d.binaries = append(d.binaries, append([]byte(nil), data...))
	return nil
}

// SendText implements transport.DataChannel.
func (d *DataChannel) SendText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SendErr != nil {
		return d.SendErr
	}
	d.texts = append(d.texts, text)
	return nil
}

// OnMessage implements transport.DataChannel.
func (d *DataChannel) OnMessage(f func(transport.Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onMessage = f
}

// OnOpen implements transport.DataChannel.
func (d *DataChannel) OnOpen(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOpen = f
}

// OnClose implements transport.DataChannel.
func (d *DataChannel) OnClose(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClose = f
}

// Close implements transport.DataChannel.
func (d *DataChannel) Close() error {
	d.mu.Lock()
	if d.state == transport.DataChannelStateClosed {
		d.mu.Unlock()
		return nil
	}
	d.state = transport.DataChannelStateClosed
	f := d.onClose
	d.mu.Unlock()
	if f != nil {
		f()
	}
	return nil
}

// Open moves the channel to open and fires the open handler.
func (d *DataChannel) Open() {
	d.mu.Lock()
	d.state = transport.DataChannelStateOpen
	f := d.onOpen
	d.mu.Unlock()
	if f != nil {
		f()
	}
}

// SetState forces the ready state without firing handlers.
func (d *DataChannel) SetState(state transport.DataChannelState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

// Deliver hands an inbound frame to the message handler.
func (d *DataChannel) Deliver(msg transport.Message) {
	d.mu.Lock()
	f := d.onMessage
	d.mu.Unlock()
	if f != nil {
		f(msg)
	}
}

// DeliverText hands an inbound text frame to the message handler.
func (d *DataChannel) DeliverText(text string) {
	d.Deliver(transport.Message{IsString: true, Data: []byte(text)})
}

// SentTexts returns the text frames sent so far.
func (d *DataChannel) SentTexts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

// SentBinaries returns the binary frames sent so far.
func (d *DataChannel) SentBinaries() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.binaries...)
}
