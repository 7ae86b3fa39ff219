package canbus

import (
	"errors"
	"fmt"
	"math"

	"go.einride.tech/can"

	"github.com/san-kum/dbwsim/internal/dbw"
)

var ErrUnknownFrame = errors.New("canbus: unknown frame id")

// Actuator command frame IDs.
const (
	IDThrottleCmd uint32 = 0x060
	IDBrakeCmd    uint32 = 0x062
	IDSteeringCmd uint32 = 0x064
)

// Signal layout shared by the three command frames: a 16 bit value at bit 0,
// the enable flag at bit 16 and a rolling counter in the last byte.
const (
	frameLength = 4

	valueStart   = 0
	valueLength  = 16
	enableBit    = 16
	counterStart = 24
	counterLen   = 8
)

// Scaling.
const (
	ThrottleFactor = 1.0 / 65535
	BrakeFactor    = 0.1
	SteeringFactor = 0.001

	MaxBrakeTorque   = 65535 * BrakeFactor
	MaxSteeringAngle = 32767 * SteeringFactor
)

// Command is one cycle of actuator commands as carried on the bus.
type Command struct {
	Throttle float64
	Brake    float64
	Steering float64
	Enabled  bool
	Counter  uint8
}

func CommandFrom(out dbw.Outputs, enabled bool, counter uint8) Command {
	return Command{
		Throttle: out.Throttle,
		Brake:    out.Brake,
		Steering: out.Steering,
		Enabled:  enabled,
		Counter:  counter,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func newFrame(id uint32, enabled bool, counter uint8) can.Frame {
	f := can.Frame{ID: id, Length: frameLength}
	f.Data.SetBit(enableBit, enabled)
	f.Data.SetUnsignedBitsLittleEndian(counterStart, counterLen, uint64(counter))
	return f
}

// Encode produces the throttle, brake and steering frames for cmd. Values
// outside the representable range are clamped.
func Encode(cmd Command) []can.Frame {
	throttle := newFrame(IDThrottleCmd, cmd.Enabled, cmd.Counter)
	raw := math.Round(clamp(cmd.Throttle, 0, 1) / ThrottleFactor)
	throttle.Data.SetUnsignedBitsLittleEndian(valueStart, valueLength, uint64(raw))

	brake := newFrame(IDBrakeCmd, cmd.Enabled, cmd.Counter)
	raw = math.Round(clamp(cmd.Brake, 0, MaxBrakeTorque) / BrakeFactor)
	brake.Data.SetUnsignedBitsLittleEndian(valueStart, valueLength, uint64(raw))

	steering := newFrame(IDSteeringCmd, cmd.Enabled, cmd.Counter)
	raw = math.Round(clamp(cmd.Steering, -MaxSteeringAngle, MaxSteeringAngle) / SteeringFactor)
	steering.Data.SetSignedBitsLittleEndian(valueStart, valueLength, int64(raw))

	return []can.Frame{throttle, brake, steering}
}

// DecodeFrame applies one frame to cmd.
func DecodeFrame(f can.Frame, cmd *Command) error {
	if f.Length < frameLength {
		return fmt.Errorf("canbus: frame 0x%03X has length %d, want %d", f.ID, f.Length, frameLength)
	}

	switch f.ID {
	case IDThrottleCmd:
		cmd.Throttle = float64(f.Data.UnsignedBitsLittleEndian(valueStart, valueLength)) * ThrottleFactor
	case IDBrakeCmd:
		cmd.Brake = float64(f.Data.UnsignedBitsLittleEndian(valueStart, valueLength)) * BrakeFactor
	case IDSteeringCmd:
		cmd.Steering = float64(f.Data.SignedBitsLittleEndian(valueStart, valueLength)) * SteeringFactor
	default:
		return fmt.Errorf("%w: 0x%03X", ErrUnknownFrame, f.ID)
	}

	cmd.Enabled = f.Data.Bit(enableBit)
	cmd.Counter = uint8(f.Data.UnsignedBitsLittleEndian(counterStart, counterLen))
	return nil
}

// Decode rebuilds a command from a set of frames. Later frames win for the
// shared enable flag and counter.
func Decode(frames []can.Frame) (Command, error) {
	var cmd Command
	for _, f := range frames {
		if err := DecodeFrame(f, &cmd); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}
