package media

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Control-channel message kinds.
const (
	ControlHello = "hello"
	ControlBye   = "bye"
)

// ControlMessage is the tiny in-call protocol spoken over the control data
// channel: a hello when the channel opens and a bye on deliberate hang-up,
// so the peer can tell a hang-up from a transport loss.
type ControlMessage struct {
	Kind string `msgpack:"kind"`
	From string `msgpack:"from"`
}

func EncodeControl(msg *ControlMessage) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func DecodeControl(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
