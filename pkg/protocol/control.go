package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrMissingAction = errors.New("control frame has no action field")

// Control actions a client may send while a stream is open.
const (
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionRestart  = "restart"
	ActionSetSpeed = "set_speed"
)

// Control is one outbound control frame. BatchSize and TickMS are only
// carried for set_speed.
type Control struct {
	Action    string `json:"action"`
	BatchSize int    `json:"batch_size,omitempty"`
	TickMS    int    `json:"tick_ms,omitempty"`
}

func Pause() Control   { return Control{Action: ActionPause} }
func Resume() Control  { return Control{Action: ActionResume} }
func Restart() Control { return Control{Action: ActionRestart} }

// SetSpeed builds a set_speed control for a speed level in [1,10].
// Levels outside that range are the caller's problem; the formula is
// applied as-is, not clamped.
func SetSpeed(level int) Control {
	batch, tick := SpeedParams(level)
	return Control{Action: ActionSetSpeed, BatchSize: batch, TickMS: tick}
}

// SpeedParams maps a speed level to the pacing parameters the server
// is asked to honor: batch_size = round(20 + level*20) and
// tick_ms = max(10, round(100 - level*8)).
func SpeedParams(level int) (batchSize, tickMS int) {
	batchSize = int(math.Round(20 + float64(level)*20))
	tickMS = int(math.Round(100 - float64(level)*8))
	if tickMS < 10 {
		tickMS = 10
	}
	return batchSize, tickMS
}

// EncodeControl marshals an outbound control frame.
func EncodeControl(c Control) ([]byte, error) {
	return json.Marshal(c)
}

// ParseControl decodes an inbound control frame on the server side.
func ParseControl(data []byte) (Control, error) {
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		return Control{}, fmt.Errorf("decode control: %w", err)
	}
	if c.Action == "" {
		return Control{}, ErrMissingAction
	}
	return c, nil
}
