package haptic

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sitsense/go-sitsense/internal/log"
)

// pigpiod command numbers (see the pigpio socket interface docs).
const cmdPWM = 5

// Pulse pattern: three on/off cycles per alert.
const (
	defaultPulseCount = 3
	defaultPulseOn    = 1 * time.Second
	defaultPulseOff   = 1 * time.Second
)

// Duty cycle mapping. The motor does not spin below ~150/255, so
// intensity 0-100 maps onto the usable 150-255 band.
const (
	dutyFloor = 150
	dutySpan  = 105
)

// PigpioActuator pulses a vibration motor through the pigpiod daemon's
// TCP socket interface. Trigger is non-blocking; the pulse pattern runs
// on a worker goroutine and at most one pulse is in flight.
type PigpioActuator struct {
	pin uint32

	connMutex sync.Mutex
	conn      net.Conn

	pulses chan int

	pulseCount int
	pulseOn    time.Duration
	pulseOff   time.Duration
}

// NewPigpioActuator connects to pigpiod at addr (host:port, typically
// localhost:8888) and drives the motor on the given BCM pin.
func NewPigpioActuator(addr string, pin int) (*PigpioActuator, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to pigpiod at %s: %w", addr, err)
	}
	return &PigpioActuator{
		pin:        uint32(pin),
		conn:       conn,
		pulses:     make(chan int, 1),
		pulseCount: defaultPulseCount,
		pulseOn:    defaultPulseOn,
		pulseOff:   defaultPulseOff,
	}, nil
}

// SetPulseTiming overrides the pulse pattern.
func (a *PigpioActuator) SetPulseTiming(count int, on, off time.Duration) {
	a.pulseCount = count
	a.pulseOn = on
	a.pulseOff = off
}

// Trigger queues one pulse pattern at the given intensity (0-100).
// If a pulse is already running the request is dropped.
func (a *PigpioActuator) Trigger(intensity int) {
	select {
	case a.pulses <- intensity:
	default:
		log.Debug("Haptic pulse already in flight, dropping trigger")
	}
}

// Run executes queued pulses until the context is cancelled, then
// forces the motor off.
func (a *PigpioActuator) Run(ctx context.Context) {
	defer a.off()

	for {
		select {
		case <-ctx.Done():
			return
		case intensity := <-a.pulses:
			a.pulse(ctx, intensity)
		}
	}
}

// Close turns the motor off and closes the pigpiod connection.
func (a *PigpioActuator) Close() error {
	a.off()
	a.connMutex.Lock()
	defer a.connMutex.Unlock()
	return a.conn.Close()
}

func (a *PigpioActuator) pulse(ctx context.Context, intensity int) {
	duty := dutyCycle(intensity)
	log.Info("Haptic pulse", "intensity", intensity, "duty", duty)

	for i := 0; i < a.pulseCount; i++ {
		if err := a.setDuty(duty); err != nil {
			log.Warn("Haptic on failed", "error", err)
			return
		}
		if !sleepCtx(ctx, a.pulseOn) {
			return
		}
		if err := a.setDuty(0); err != nil {
			log.Warn("Haptic off failed", "error", err)
			return
		}
		if i < a.pulseCount-1 && !sleepCtx(ctx, a.pulseOff) {
			return
		}
	}
}

func (a *PigpioActuator) off() {
	if err := a.setDuty(0); err != nil {
		log.Debug("Haptic shutdown off failed", "error", err)
	}
}

// dutyCycle maps intensity 0-100 onto the motor's usable PWM band.
func dutyCycle(intensity int) uint32 {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}
	return uint32(dutyFloor + intensity*dutySpan/100)
}

// setDuty issues a PWM command over the pigpiod socket. Requests and
// responses are four little-endian uint32 words; the last response
// word is the result code.
func (a *PigpioActuator) setDuty(duty uint32) error {
	a.connMutex.Lock()
	defer a.connMutex.Unlock()

	var req [16]byte
	binary.LittleEndian.PutUint32(req[0:], cmdPWM)
	binary.LittleEndian.PutUint32(req[4:], a.pin)
	binary.LittleEndian.PutUint32(req[8:], duty)

	if _, err := a.conn.Write(req[:]); err != nil {
		return fmt.Errorf("write PWM command: %w", err)
	}

	var resp [16]byte
	a.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(a.conn, resp[:]); err != nil {
		return fmt.Errorf("read PWM response: %w", err)
	}
	if res := int32(binary.LittleEndian.Uint32(resp[12:])); res < 0 {
		return fmt.Errorf("pigpiod PWM error %d", res)
	}
	return nil
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
