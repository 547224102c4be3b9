//go:build rp2040

// Command pulse-firmware is the RP2040 build of the pulse frequency meter.
// It counts debounced falling edges on the pulse pin, writes one
// "Frequency: <n>.<d> Hz" line per second to UART0 and blinks the on-board LED.
package main

import (
	"machine"
	"time"

	"github.com/sweeney/pulse-sensor/internal/gpio"
	"github.com/sweeney/pulse-sensor/internal/irq"
	"github.com/sweeney/pulse-sensor/internal/pipeline"
	"github.com/sweeney/pulse-sensor/internal/reset"
	"github.com/sweeney/pulse-sensor/internal/serial"
	"github.com/sweeney/pulse-sensor/internal/timer"
)

const pulsePin = machine.GPIO2

func main() {
	led := gpio.NewPinOutput(machine.LED)
	serial.UART0.Configure(machine.UART_TX_PIN)

	meter, err := pipeline.New(pipeline.Hardware{
		Core:      irq.NewCore(),
		Input:     gpio.NewPinInput(pulsePin),
		Port:      serial.UART0,
		Scheduler: timer.Alarm{},
	})
	if err != nil {
		halt("pipeline: " + err.Error())
	}
	meter.Start(reset.Read())

	blinker := gpio.NewBlinker(led)
	next := time.Now().Add(pipeline.BlinkInterval)
	for {
		meter.Poll()

		if now := time.Now(); !now.Before(next) {
			blinker.Toggle()
			next = next.Add(pipeline.BlinkInterval)
		}
	}
}

func halt(msg string) {
	for {
		println(msg)
		time.Sleep(time.Second)
	}
}
