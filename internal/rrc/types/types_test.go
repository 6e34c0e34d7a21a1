// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

func TestDataTypePriorityClassTable(t *testing.T) {
	t.Parallel()
	cases := map[types.DataType]types.PriorityClass{
		types.AnalogVoicePttData: types.ClassAnalogVoicePtt,
		types.DigitalVoice:       types.ClassP0,
		types.Video:              types.ClassP1,
		types.File:               types.ClassP2,
		types.Sms:                types.ClassP3,
		types.Relay:              types.ClassRxRelay,
		types.ToL3:               types.ClassP3,
		types.Unknown:            types.ClassP3,
	}
	for dt, want := range cases {
		assert.Equal(t, want, dt.PriorityClass(), "datatype %s", dt)
	}
}

func TestPriorityClassOrdering(t *testing.T) {
	t.Parallel()
	ordered := []types.PriorityClass{
		types.ClassAnalogVoicePtt,
		types.ClassP0,
		types.ClassP1,
		types.ClassP2,
		types.ClassP3,
		types.ClassRxRelay,
	}
	for i := 0; i < len(ordered)-1; i++ {
		assert.True(t, ordered[i].Higher(ordered[i+1]),
			"%s should be higher priority than %s", ordered[i], ordered[i+1])
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	t.Parallel()
	payload := []byte("Hello")
	sum := types.Checksum16(payload, len(payload))
	assert.True(t, types.VerifyChecksum16(payload, len(payload), sum))

	payload[0] ^= 0xFF
	assert.False(t, types.VerifyChecksum16(payload, len(payload), sum))
}

func TestChecksumOddLength(t *testing.T) {
	t.Parallel()
	payload := []byte{0x01, 0x02, 0x03}
	sum := types.Checksum16(payload, len(payload))
	assert.True(t, types.VerifyChecksum16(payload, len(payload), sum))
}

func TestFrameChecksumVerifiesOnDequeue(t *testing.T) {
	t.Parallel()
	f := types.NewFrame(254, 1, types.Sms, []byte("Hello"), types.DefaultInitialTTL)
	assert.True(t, f.VerifyChecksum())
	assert.Equal(t, uint8(1), f.NextHop)
	assert.Equal(t, types.ClassP3, f.Priority)

	f.Payload[0] ^= 0xFF
	assert.False(t, f.VerifyChecksum())
}

func TestFrameTTLMonotonicity(t *testing.T) {
	t.Parallel()
	f := types.NewFrame(1, 2, types.File, []byte("x"), 3)
	assert.Equal(t, uint8(3), f.TTL)

	alive := f.DecrementTTL()
	assert.True(t, alive)
	assert.Equal(t, uint8(2), f.TTL)
	assert.LessOrEqual(t, f.TTL, f.InitialTTL)

	alive = f.DecrementTTL()
	assert.True(t, alive)
	alive = f.DecrementTTL()
	assert.False(t, alive, "TTL hit zero, frame should be expired")
	assert.Equal(t, uint8(0), f.TTL)
}

func TestFrameDirectNeighborInvariant(t *testing.T) {
	t.Parallel()
	f := types.NewFrame(1, 5, types.Sms, []byte("hi"), 10)
	// NextHop defaults to Dst, which matches "destination is a direct neighbor".
	assert.True(t, f.DirectNeighbor(true))
	assert.False(t, f.DirectNeighbor(false))

	f.NextHop = 9 // relayed via a different next hop
	assert.False(t, f.DirectNeighbor(true))
	assert.True(t, f.DirectNeighbor(false))
}
