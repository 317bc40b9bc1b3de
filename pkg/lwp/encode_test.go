package lwp

import (
	"encoding/binary"
	"testing"

	"go.viam.com/test"
)

func TestBuildPowerCommand(t *testing.T) {
	tests := []struct {
		name  string
		port  byte
		power int8
		want  []byte
	}{
		{"stop", 3, 0, []byte{0x81, 0x03, 0x10, 0x51, 0x00, 0x00}},
		{"forward", 3, 40, []byte{0x81, 0x03, 0x10, 0x51, 0x00, 0x28}},
		{"reverse", 3, -40, []byte{0x81, 0x03, 0x10, 0x51, 0x00, 0xd8}},
		{"full", 0, 100, []byte{0x81, 0x00, 0x10, 0x51, 0x00, 0x64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPowerCommand(tt.port, tt.power)
			test.That(t, got, test.ShouldResemble, tt.want)
			test.That(t, got, test.ShouldHaveLength, PowerCommandSize)
			test.That(t, got[2:4], test.ShouldResemble, []byte{0x10, 0x51})
		})
	}
}

func TestPowerCommandIsInjective(t *testing.T) {
	test.That(t, BuildPowerCommand(3, 10), test.ShouldNotResemble, BuildPowerCommand(3, 11))

	seen := make(map[string]int8)
	for p := -128; p <= 127; p++ {
		frame := string(BuildPowerCommand(3, int8(p)))
		if prev, ok := seen[frame]; ok {
			t.Fatalf("power %d and %d encode to the same frame % X", prev, p, frame)
		}
		seen[frame] = int8(p)
	}
}

func TestBuildPositionCommand(t *testing.T) {
	got := BuildPositionCommand(1, 150)
	want := []byte{0x81, 0x01, 0x10, 0x0d, 0x96, 0x00, 0x00, 0x00, 100, 50, 127, 1, 0x01}
	test.That(t, got, test.ShouldResemble, want)

	for _, position := range []int32{-150, -149, -1, 0, 1, 75, 150, 1 << 20, -1 << 20} {
		frame := BuildPositionCommand(1, position)
		test.That(t, frame, test.ShouldHaveLength, PositionCommandSize)
		test.That(t, int32(binary.LittleEndian.Uint32(frame[4:8])), test.ShouldEqual, position)
	}

	test.That(t, BuildPositionCommand(1, -1), test.ShouldNotResemble, BuildPositionCommand(1, 1))
}

func TestBuildSmoothAccelerationCommand(t *testing.T) {
	got := BuildSmoothAccelerationCommand(1)
	test.That(t, got, test.ShouldResemble, []byte{0x81, 0x01, 0x10, 0x05, 0xf4, 0x01, 0x01})
	test.That(t, got[2:], test.ShouldResemble, []byte{0x10, 0x05, 0xf4, 0x01, 0x01})
}

func TestFrame(t *testing.T) {
	body := BuildPowerCommand(3, 25)
	framed := Frame(body)

	test.That(t, framed, test.ShouldHaveLength, len(body)+LengthSize)
	test.That(t, framed[:2], test.ShouldResemble, []byte{0x08, 0x00})
	test.That(t, framed[2:], test.ShouldResemble, body)

	// the body is not aliased
	framed[2] = 0
	test.That(t, body[0], test.ShouldEqual, MessageTypePortOutputCommand)
}
