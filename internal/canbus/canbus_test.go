package canbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"github.com/san-kum/dbwsim/internal/dbw"
)

func TestEncodeLayout(t *testing.T) {
	frames := Encode(Command{Throttle: 1, Brake: 700, Steering: -0.5, Enabled: true, Counter: 0xA5})
	require.Len(t, frames, 3)

	th, br, st := frames[0], frames[1], frames[2]
	assert.Equal(t, IDThrottleCmd, th.ID)
	assert.Equal(t, IDBrakeCmd, br.ID)
	assert.Equal(t, IDSteeringCmd, st.ID)

	for _, f := range frames {
		assert.Equal(t, uint8(4), f.Length)
		assert.Equal(t, byte(0x01), f.Data[2], "enable byte of 0x%03X", f.ID)
		assert.Equal(t, byte(0xA5), f.Data[3], "counter byte of 0x%03X", f.ID)
		assert.NoError(t, f.Validate())
	}

	assert.Equal(t, byte(0xFF), th.Data[0])
	assert.Equal(t, byte(0xFF), th.Data[1])

	// 700 N*m / 0.1 = 7000 = 0x1B58
	assert.Equal(t, byte(0x58), br.Data[0])
	assert.Equal(t, byte(0x1B), br.Data[1])

	// -500 as int16 = 0xFE0C
	assert.Equal(t, byte(0x0C), st.Data[0])
	assert.Equal(t, byte(0xFE), st.Data[1])
}

func TestDecodeRecoversCommand(t *testing.T) {
	in := Command{Throttle: 0.18, Brake: 2094.6, Steering: 1.234, Enabled: true, Counter: 7}
	out, err := Decode(Encode(in))
	require.NoError(t, err)

	assert.InDelta(t, in.Throttle, out.Throttle, ThrottleFactor/2)
	assert.InDelta(t, in.Brake, out.Brake, BrakeFactor/2)
	assert.InDelta(t, in.Steering, out.Steering, SteeringFactor/2)
	assert.True(t, out.Enabled)
	assert.Equal(t, uint8(7), out.Counter)
}

func TestEncodeClamps(t *testing.T) {
	out, err := Decode(Encode(Command{Throttle: 1.5, Brake: -3, Steering: 100}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Throttle, 1e-12)
	assert.Zero(t, out.Brake)
	assert.InDelta(t, MaxSteeringAngle, out.Steering, 1e-9)
	assert.False(t, out.Enabled)

	out, err = Decode(Encode(Command{Brake: 1e6, Steering: -100}))
	require.NoError(t, err)
	assert.InDelta(t, MaxBrakeTorque, out.Brake, 1e-9)
	assert.InDelta(t, -MaxSteeringAngle, out.Steering, 1e-9)
}

func TestDecodeErrors(t *testing.T) {
	var cmd Command
	err := DecodeFrame(can.Frame{ID: 0x123, Length: 4}, &cmd)
	assert.True(t, errors.Is(err, ErrUnknownFrame))

	err = DecodeFrame(can.Frame{ID: IDBrakeCmd, Length: 2}, &cmd)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownFrame))
}

func TestPublisherCounter(t *testing.T) {
	rec := NewRecorder()
	pub := NewPublisher(rec)
	ctx := context.Background()

	for i := 0; i < 258; i++ {
		require.NoError(t, pub.Publish(ctx, dbw.Outputs{Throttle: 0.1}, true))
	}
	assert.Equal(t, uint8(2), pub.Counter())
	assert.Len(t, rec.Frames(), 3*258)

	last, ok := rec.Last(IDThrottleCmd)
	require.True(t, ok)
	cmd, err := Decode([]can.Frame{last})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), cmd.Counter)

	_, ok = rec.Last(0x7FF)
	assert.False(t, ok)
}

func TestPublisherPropagatesWriteErrors(t *testing.T) {
	rec := NewRecorder()
	pub := NewPublisher(rec)
	require.NoError(t, pub.Close())

	err := pub.Publish(context.Background(), dbw.Outputs{}, false)
	assert.Error(t, err)
	assert.Equal(t, uint8(0), pub.Counter())
}

func TestRecorderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRecorder().WriteFrame(ctx, can.Frame{ID: IDThrottleCmd})
	assert.ErrorIs(t, err, context.Canceled)
}
