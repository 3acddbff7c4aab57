// Package recording stores simulation frames as length-delimited protobuf
// wire messages.
//
//	message Frame {
//	  uint64 tick = 1;
//	  repeated AgentState agents = 2;
//	}
//	message AgentState {
//	  string id = 1;
//	  repeated double position = 2 [packed = true];
//	  repeated double velocity = 3 [packed = true];
//	  repeated double heading = 4 [packed = true];
//	}
package recording

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformedFrame = errors.New("malformed frame")

const (
	frameTickField   protowire.Number = 1
	frameAgentsField protowire.Number = 2

	agentIDField       protowire.Number = 1
	agentPositionField protowire.Number = 2
	agentVelocityField protowire.Number = 3
	agentHeadingField  protowire.Number = 4
)

// AgentState is one agent at the end of a tick.
type AgentState struct {
	ID       string
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Heading  mgl64.Vec3
}

// Frame is the whole flock at the end of a tick.
type Frame struct {
	Tick   uint64
	Agents []AgentState
}

// MarshalFrame appends the wire encoding of f to b.
func MarshalFrame(b []byte, f Frame) []byte {
	if f.Tick != 0 {
		b = protowire.AppendTag(b, frameTickField, protowire.VarintType)
		b = protowire.AppendVarint(b, f.Tick)
	}
	var agent []byte
	for _, a := range f.Agents {
		agent = marshalAgent(agent[:0], a)
		b = protowire.AppendTag(b, frameAgentsField, protowire.BytesType)
		b = protowire.AppendBytes(b, agent)
	}
	return b
}

func marshalAgent(b []byte, a AgentState) []byte {
	if a.ID != "" {
		b = protowire.AppendTag(b, agentIDField, protowire.BytesType)
		b = protowire.AppendString(b, a.ID)
	}
	b = appendVec(b, agentPositionField, a.Position)
	b = appendVec(b, agentVelocityField, a.Velocity)
	b = appendVec(b, agentHeadingField, a.Heading)
	return b
}

func appendVec(b []byte, num protowire.Number, v mgl64.Vec3) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, 3*8)
	for _, c := range v {
		b = protowire.AppendFixed64(b, math.Float64bits(c))
	}
	return b
}

// UnmarshalFrame decodes one frame. Unknown fields are skipped.
func UnmarshalFrame(b []byte) (Frame, error) {
	var f Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Frame{}, malformed("frame tag", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == frameTickField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Frame{}, malformed("tick", protowire.ParseError(n))
			}
			f.Tick = v
			b = b[n:]
		case num == frameAgentsField && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Frame{}, malformed("agent", protowire.ParseError(n))
			}
			a, err := unmarshalAgent(raw)
			if err != nil {
				return Frame{}, err
			}
			f.Agents = append(f.Agents, a)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Frame{}, malformed(fmt.Sprintf("field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func unmarshalAgent(b []byte) (AgentState, error) {
	var a AgentState
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return AgentState{}, malformed("agent tag", protowire.ParseError(n))
		}
		b = b[n:]
		var target *mgl64.Vec3
		switch num {
		case agentIDField:
			if typ != protowire.BytesType {
				return AgentState{}, malformed("agent id", fmt.Errorf("wire type %d", typ))
			}
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return AgentState{}, malformed("agent id", protowire.ParseError(n))
			}
			a.ID = s
			b = b[n:]
			continue
		case agentPositionField:
			target = &a.Position
		case agentVelocityField:
			target = &a.Velocity
		case agentHeadingField:
			target = &a.Heading
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return AgentState{}, malformed(fmt.Sprintf("agent field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if typ != protowire.BytesType {
			return AgentState{}, malformed(fmt.Sprintf("agent field %d", num), fmt.Errorf("wire type %d", typ))
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return AgentState{}, malformed(fmt.Sprintf("agent field %d", num), protowire.ParseError(n))
		}
		v, err := decodeVec(raw)
		if err != nil {
			return AgentState{}, malformed(fmt.Sprintf("agent field %d", num), err)
		}
		*target = v
		b = b[n:]
	}
	return a, nil
}

func decodeVec(b []byte) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	if len(b) != 3*8 {
		return v, fmt.Errorf("want 3 packed doubles, got %d bytes", len(b))
	}
	for i := range v {
		bits, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return v, protowire.ParseError(n)
		}
		v[i] = math.Float64frombits(bits)
		b = b[n:]
	}
	return v, nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, what, err)
}
