package net

import (
	"bufio"
	"fmt"

	"github.com/ugorji/go/codec"
)

// Frames are written as one byte holding the MessageKind, followed by the
// msgpack-encoded sender address and the msgpack-encoded message body.

func newMsgpackHandle() *codec.MsgpackHandle {
	mh := new(codec.MsgpackHandle)
	mh.RawToString = true
	return mh
}

var msgpackHandle = newMsgpackHandle()

func writeEnvelope(w *bufio.Writer, enc *codec.Encoder, env Envelope) error {
	if env.Message == nil {
		return fmt.Errorf("envelope from %s has no message", env.From)
	}

	if err := w.WriteByte(byte(env.Message.Kind())); err != nil {
		return err
	}

	if err := enc.Encode(env.From); err != nil {
		return err
	}

	if err := enc.Encode(env.Message); err != nil {
		return err
	}

	return w.Flush()
}

func readEnvelope(r *bufio.Reader, dec *codec.Decoder) (Envelope, error) {
	var env Envelope

	kind, err := r.ReadByte()
	if err != nil {
		return env, err
	}

	if err := dec.Decode(&env.From); err != nil {
		return env, err
	}

	switch MessageKind(kind) {
	case KindIdentify:
		var m Identify
		err = dec.Decode(&m)
		env.Message = m
	case KindPayload:
		var m Payload
		err = dec.Decode(&m)
		env.Message = m
	case KindAddEdge:
		var m AddEdge
		err = dec.Decode(&m)
		env.Message = m
	case KindRemoveEdge:
		var m RemoveEdge
		err = dec.Decode(&m)
		env.Message = m
	case KindTerminate:
		var m Terminate
		err = dec.Decode(&m)
		env.Message = m
	default:
		return env, fmt.Errorf("unknown message kind %d", kind)
	}

	return env, err
}
