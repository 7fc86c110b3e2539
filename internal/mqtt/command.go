package mqtt

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/sweeney/taskcore/internal/logic"
)

// Command errors, reported back in CommandResult.Error.
var (
	ErrMissingRGB   = errors.New("missing RGB parameters")
	ErrRGBRange     = errors.New("RGB values must be 0..255")
	ErrMissingValue = errors.New("no value sent")
	ErrQueueFull    = errors.New("queue full")
	ErrUnknownTopic = errors.New("unknown command topic")
)

// Submitter accepts a command without blocking.
type Submitter[T any] interface {
	TrySubmit(msg T) bool
}

// RGBCommand is the payload on the RGB command topic.
type RGBCommand struct {
	ID string `json:"id,omitempty" cbor:"id,omitempty"`
	R  *int   `json:"r" cbor:"r"`
	G  *int   `json:"g" cbor:"g"`
	B  *int   `json:"b" cbor:"b"`
}

// ServoCommand is the payload on the servo command topic.
type ServoCommand struct {
	ID    string `json:"id,omitempty" cbor:"id,omitempty"`
	Value *int   `json:"value" cbor:"value"`
}

// CommandResult reports the outcome of one command.
type CommandResult struct {
	ID      string `json:"id" cbor:"id"`
	Command string `json:"command" cbor:"command"`
	OK      bool   `json:"ok" cbor:"ok"`
	Error   string `json:"error,omitempty" cbor:"error,omitempty"`
	Angle   *int   `json:"angle,omitempty" cbor:"angle,omitempty"`
}

// CommandHandler decodes command messages and submits them to the
// actuator queues. It never blocks: a full queue is reported as a failed
// command.
type CommandHandler struct {
	topics Topics
	codec  Codec
	rgb    Submitter[logic.RGB]
	servo  Submitter[logic.Angle]
}

// NewCommandHandler creates a handler submitting to the given queues.
func NewCommandHandler(topics Topics, codec Codec, rgb Submitter[logic.RGB], servo Submitter[logic.Angle]) *CommandHandler {
	if codec == nil {
		codec = JSON
	}
	return &CommandHandler{topics: topics, codec: codec, rgb: rgb, servo: servo}
}

// Topics returns the topics the handler accepts.
func (h *CommandHandler) Topics() []string {
	return []string{h.topics.CmdRGB(), h.topics.CmdServo()}
}

// Handle processes one message and returns its result.
func (h *CommandHandler) Handle(topic string, payload []byte) CommandResult {
	var res CommandResult
	switch topic {
	case h.topics.CmdRGB():
		res = h.handleRGB(payload)
	case h.topics.CmdServo():
		res = h.handleServo(payload)
	default:
		res = CommandResult{Command: topic, Error: ErrUnknownTopic.Error()}
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if !res.OK {
		glog.Warningf("mqtt: command %s on %s rejected: %s", res.ID, topic, res.Error)
	}
	return res
}

func (h *CommandHandler) handleRGB(payload []byte) CommandResult {
	res := CommandResult{Command: "rgb"}
	var cmd RGBCommand
	if err := h.codec.Unmarshal(payload, &cmd); err != nil {
		res.Error = fmt.Sprintf("decode: %v", err)
		return res
	}
	res.ID = cmd.ID
	if cmd.R == nil || cmd.G == nil || cmd.B == nil {
		res.Error = ErrMissingRGB.Error()
		return res
	}
	c, err := RGBFromInts(*cmd.R, *cmd.G, *cmd.B)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !h.rgb.TrySubmit(c) {
		res.Error = ErrQueueFull.Error()
		return res
	}
	res.OK = true
	return res
}

func (h *CommandHandler) handleServo(payload []byte) CommandResult {
	res := CommandResult{Command: "servo"}
	var cmd ServoCommand
	if err := h.codec.Unmarshal(payload, &cmd); err != nil {
		res.Error = fmt.Sprintf("decode: %v", err)
		return res
	}
	res.ID = cmd.ID
	if cmd.Value == nil {
		res.Error = ErrMissingValue.Error()
		return res
	}
	a := logic.ClampAngle(*cmd.Value)
	angle := int(a)
	res.Angle = &angle
	if !h.servo.TrySubmit(a) {
		res.Error = ErrQueueFull.Error()
		return res
	}
	res.OK = true
	return res
}

// RGBFromInts validates three channel values.
func RGBFromInts(r, g, b int) (logic.RGB, error) {
	for _, v := range [3]int{r, g, b} {
		if v < 0 || v > 255 {
			return logic.RGB{}, ErrRGBRange
		}
	}
	return logic.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
