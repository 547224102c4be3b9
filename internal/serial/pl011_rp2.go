//go:build rp2040 || rp2350

package serial

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// PL011 drives the transmit side of an RP2040/RP2350 UART. The FIFOs are
// disabled so the transmit interrupt asserts once per byte, when the holding
// register empties.
type PL011 struct {
	Bus       *rp.UART0_Type
	Interrupt interrupt.Interrupt

	handler func()
}

var (
	UART0  = &_UART0
	_UART0 = PL011{Bus: rp.UART0}

	UART1  = &_UART1
	_UART1 = PL011{Bus: rp.UART1}
)

func init() {
	UART0.Interrupt = interrupt.New(rp.IRQ_UART0_IRQ, _UART0.handleInterrupt)
	UART1.Interrupt = interrupt.New(rp.IRQ_UART1_IRQ, _UART1.handleInterrupt)
}

// Configure resets the peripheral and sets it up for transmit-only 8N1 at
// BaudRate on tx. The transmit interrupt starts masked.
func (p *PL011) Configure(tx machine.Pin) {
	p.reset()

	p.Bus.UARTCR.ClearBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)
	tx.Configure(machine.PinConfig{Mode: machine.PinUART})

	p.setBaudRate(BaudRate)
	// 8 data bits, 1 stop bit, no parity, FIFOs off.
	p.Bus.UARTLCR_H.Set(3 << rp.UART0_UARTLCR_H_WLEN_Pos)

	p.Bus.UARTIMSC.Set(0)
	p.Bus.UARTICR.Set(0x7FF)
	p.Bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_TXE)

	p.Interrupt.SetPriority(0x80)
	p.Interrupt.Enable()
}

// Load writes b to the data register.
func (p *PL011) Load(b byte) {
	p.Bus.UARTDR.Set(uint32(b))
}

// EnableTx unmasks TXIM. The raw transmit interrupt is edge-like: once
// cleared it does not reassert while the holding register stays empty, so
// when nothing is pending the first firing is delivered here.
func (p *PL011) EnableTx(handler func()) {
	state := interrupt.Disable()
	p.handler = handler
	p.Bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_TXIM)
	if !p.Bus.UARTMIS.HasBits(rp.UART0_UARTMIS_TXMIS) && p.Bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFE) {
		handler()
	}
	interrupt.Restore(state)
}

// DisableTx masks TXIM.
func (p *PL011) DisableTx() {
	p.Bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_TXIM)
}

func (p *PL011) handleInterrupt(interrupt.Interrupt) {
	if !p.Bus.UARTMIS.HasBits(rp.UART0_UARTMIS_TXMIS) {
		return
	}
	if p.handler != nil {
		p.handler()
	}
}

func (p *PL011) setBaudRate(br uint32) {
	div := 8 * machine.CPUFrequency() / br

	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd = 1
		fbrd = 0
	case ibrd >= 65535:
		ibrd = 65535
		fbrd = 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}

	p.Bus.UARTIBRD.Set(ibrd)
	p.Bus.UARTFBRD.Set(fbrd)
	// divisors latch on an LCR_H write
	p.Bus.UARTLCR_H.Set(p.Bus.UARTLCR_H.Get())
}

func (p *PL011) reset() {
	var bit uint32
	switch p.Bus {
	case rp.UART0:
		bit = rp.RESETS_RESET_UART0
	case rp.UART1:
		bit = rp.RESETS_RESET_UART1
	}

	rp.RESETS.RESET.SetBits(bit)
	rp.RESETS.RESET.ClearBits(bit)
	for !rp.RESETS.RESET_DONE.HasBits(bit) {
	}
}
