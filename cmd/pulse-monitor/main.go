// Command pulse-monitor reads the pulse meter's serial output and prints each
// line with a timestamp, highlighting readings that fall outside a band.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/sweeney/pulse-sensor/internal/logic"
	"github.com/sweeney/pulse-sensor/internal/reset"
	"github.com/sweeney/pulse-sensor/internal/serial"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

func main() {
	port := flag.String("port", "/dev/ttyACM0", "Serial device the meter writes to")
	low := flag.Float64("low", 0, "Lowest expected frequency in Hz (0 disables)")
	high := flag.Float64("high", 0, "Highest expected frequency in Hz (0 disables)")
	lockPath := flag.String("lock", "", "Lock file (default: derived from --port)")

	flag.Parse()

	if *lockPath == "" {
		*lockPath = defaultLockPath(*port)
	}
	if err := run(*port, *lockPath, band{low: toDeci(*low), high: toDeci(*high)}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(port, lockPath string, b band) error {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !ok {
		return fmt.Errorf("%s is already being monitored (%s)", port, lockPath)
	}
	defer lock.Unlock()

	tty, err := serial.Open(port)
	if err != nil {
		return err
	}
	defer tty.Close()

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	log.Printf("monitoring %s at %d baud", port, serial.BaudRate)
	return monitor(tty, colorable.NewColorableStdout(), b, color, time.Now)
}

func defaultLockPath(port string) string {
	return filepath.Join(os.TempDir(), "pulse-monitor-"+filepath.Base(port)+".lock")
}

// band is the accepted frequency range in tenths of a hertz. A zero bound
// is open.
type band struct {
	low  uint64
	high uint64
}

func (b band) contains(deci uint64) bool {
	if b.low != 0 && deci < b.low {
		return false
	}
	if b.high != 0 && deci > b.high {
		return false
	}
	return true
}

func toDeci(hz float64) uint64 {
	if hz <= 0 {
		return 0
	}
	return uint64(hz*10 + 0.5)
}

type kind int

const (
	kindOther kind = iota
	kindFrequency
	kindOutOfBand
	kindReset
)

func classify(line string, b band) kind {
	if deci, ok := logic.ParseFrequency(line); ok {
		if b.contains(deci) {
			return kindFrequency
		}
		return kindOutOfBand
	}
	if _, ok := reset.Parse(line); ok {
		return kindReset
	}
	return kindOther
}

func render(line string, k kind, color bool) string {
	if !color {
		if k == kindOutOfBand {
			return line + " !"
		}
		return line
	}
	switch k {
	case kindFrequency:
		return ansiGreen + line + ansiReset
	case kindOutOfBand:
		return ansiRed + line + ansiReset
	case kindReset:
		return ansiYellow + line + ansiReset
	}
	return ansiDim + line + ansiReset
}

// monitor copies lines from r to w until r ends. Line endings are CRLF on
// the wire; ScanLines strips both.
func monitor(r io.Reader, w io.Writer, b band, color bool, now func() time.Time) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		stamp := now().Format("15:04:05.000")
		if _, err := fmt.Fprintf(w, "%s %s\n", stamp, render(line, classify(line, b), color)); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read serial: %w", err)
	}
	return nil
}
