package haptic

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// fakePigpiod accepts pigpiod socket commands and records them.
type fakePigpiod struct {
	ln net.Listener

	mu       sync.Mutex
	commands [][3]uint32 // cmd, p1, p2
}

func newFakePigpiod(t *testing.T) *fakePigpiod {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakePigpiod{ln: ln}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakePigpiod) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakePigpiod) handle(conn net.Conn) {
	defer conn.Close()
	var req [16]byte
	for {
		if _, err := io.ReadFull(conn, req[:]); err != nil {
			return
		}
		f.mu.Lock()
		f.commands = append(f.commands, [3]uint32{
			binary.LittleEndian.Uint32(req[0:]),
			binary.LittleEndian.Uint32(req[4:]),
			binary.LittleEndian.Uint32(req[8:]),
		})
		f.mu.Unlock()

		// Echo the command back with a zero result word.
		var resp [16]byte
		copy(resp[:12], req[:12])
		conn.Write(resp[:])
	}
}

func (f *fakePigpiod) recorded() [][3]uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][3]uint32, len(f.commands))
	copy(out, f.commands)
	return out
}

func (f *fakePigpiod) addr() string {
	return f.ln.Addr().String()
}

func waitForCommands(t *testing.T, f *fakePigpiod, n int) [][3]uint32 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cmds := f.recorded(); len(cmds) >= n {
			return cmds
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("only %d commands recorded, want %d", len(f.recorded()), n)
	return nil
}

func TestDutyCycle(t *testing.T) {
	tests := []struct {
		intensity int
		want      uint32
	}{
		{0, 150},
		{50, 202},
		{100, 255},
		{-10, 150}, // clamped
		{150, 255}, // clamped
	}
	for _, tt := range tests {
		if got := dutyCycle(tt.intensity); got != tt.want {
			t.Errorf("dutyCycle(%d) = %d, want %d", tt.intensity, got, tt.want)
		}
	}
}

func TestPigpioActuator_PulsePattern(t *testing.T) {
	f := newFakePigpiod(t)

	a, err := NewPigpioActuator(f.addr(), 18)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	a.SetPulseTiming(3, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Trigger(100)

	// 3 cycles of on/off.
	cmds := waitForCommands(t, f, 6)[:6]
	wantDuty := []uint32{255, 0, 255, 0, 255, 0}
	for i, cmd := range cmds {
		if cmd[0] != cmdPWM {
			t.Errorf("command %d: cmd = %d, want %d", i, cmd[0], cmdPWM)
		}
		if cmd[1] != 18 {
			t.Errorf("command %d: pin = %d, want 18", i, cmd[1])
		}
		if cmd[2] != wantDuty[i] {
			t.Errorf("command %d: duty = %d, want %d", i, cmd[2], wantDuty[i])
		}
	}
}

func TestPigpioActuator_DropsOverlappingTrigger(t *testing.T) {
	f := newFakePigpiod(t)

	a, err := NewPigpioActuator(f.addr(), 18)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	a.SetPulseTiming(1, 50*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.Trigger(100) // starts a pulse
	time.Sleep(20 * time.Millisecond)
	a.Trigger(80) // queued (buffer of one)
	a.Trigger(60) // dropped

	// Two pulses of one cycle each: on/off + on/off.
	cmds := waitForCommands(t, f, 4)
	time.Sleep(20 * time.Millisecond)
	if got := len(f.recorded()); got > 4 {
		t.Errorf("dropped trigger still pulsed: %d commands", got)
	}

	if cmds[0][2] != 255 || cmds[2][2] != 234 {
		t.Errorf("pulse duties = %d, %d; want 255, 234", cmds[0][2], cmds[2][2])
	}
}

func TestPigpioActuator_RunForcesOffOnCancel(t *testing.T) {
	f := newFakePigpiod(t)

	a, err := NewPigpioActuator(f.addr(), 18)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	a.SetPulseTiming(1, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	a.Trigger(100)
	waitForCommands(t, f, 1) // motor on, now sleeping for an hour

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	cmds := f.recorded()
	last := cmds[len(cmds)-1]
	if last[2] != 0 {
		t.Errorf("final command duty = %d, want 0 (motor forced off)", last[2])
	}
}

func TestNewPigpioActuator_ConnectFailure(t *testing.T) {
	if _, err := NewPigpioActuator("127.0.0.1:1", 18); err == nil {
		t.Error("expected connection error")
	}
}
