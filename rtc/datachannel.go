package rtc

import (
	"github.com/pion/webrtc/v4"
	"peerlink/transport"
)

type dataChannel struct {
	dc *webrtc.DataChannel
}

var _ transport.DataChannel = (*dataChannel)(nil)

func (d *dataChannel) Label() string {
	return d.dc.Label()
}

func (d *dataChannel) ID() *uint16 {
	return d.dc.ID()
}

func (d *dataChannel) ReadyState() transport.DataChannelState {
	switch d.dc.ReadyState() {
	case webrtc.DataChannelStateOpen:
		return transport.DataChannelStateOpen
	case webrtc.DataChannelStateClosing:
		return transport.DataChannelStateClosing
	case webrtc.DataChannelStateClosed:
		return transport.DataChannelStateClosed
	default:
		return transport.DataChannelStateConnecting
	}
}

func (d *dataChannel) Send(data []byte) error {
	return d.dc.Send(data)
}

func (d *dataChannel) SendText(text string) error {
	return d.dc.SendText(text)
}

func (d *dataChannel) OnMessage(f func(transport.Message)) {
	d.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		f(transport.Message{IsString: msg.IsString, Data: msg.Data})
	})
}

func (d *dataChannel) OnOpen(f func()) {
	d.dc.OnOpen(f)
}

func (d *dataChannel) OnClose(f func()) {
	d.dc.OnClose(f)
}

func (d *dataChannel) Close() error {
	return d.dc.Close()
}
