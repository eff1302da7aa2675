// Package protocol implements the binary wire format used to mirror a
// fiber engine's host mutations onto a remote surface.
//
// The server side runs the engine against a remote.Host, which turns each
// host primitive into a Mutation. Mutations from one commit travel
// together as a sequenced Batch; the client replays them in order and
// sends user interactions back as Event frames.
//
// # Wire Format
//
// All messages are framed with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// Inside payloads, integers are varints (ZigZag for signed values),
// strings are length-prefixed, and attribute values carry a one-byte
// kind tag.
//
// # Mutations
//
//	[Op: 1 byte][Node: uvarint][op-specific fields]
//
//	CreateNode     Node, Kind
//	CreateText     Node, Value
//	SetAttr        Node, Name, Value
//	RemoveAttr     Node, Name
//	AddListener    Node, Event
//	RemoveListener Node, Event
//	AppendChild    Node (parent), Child
//	RemoveChild    Node (parent), Child
//
// Node 0 is the client's mount container; the server allocates every
// other node ID.
//
// # Frames
//
//   - FrameHello (0x00): server → client, protocol version and session ID
//   - FrameEvent (0x01): client → server, a listener fired
//   - FrameMutations (0x02): server → client, one committed batch
//   - FrameControl (0x03): ping, pong, close
//   - FrameAck (0x04): client → server, last applied batch
//   - FrameError (0x05): either direction, coded error
package protocol
