// main.go - an interactive step/breakpoint/register console for drppc: a
// small REPL over the Engine API for loading a raw PowerPC binary, running
// it in bursts, and inspecting registers between runs.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	drppc "github.com/retrosys/drppc"
)

func main() {
	romPath := flag.String("rom", "", "raw PowerPC binary to load at 0x0")
	ramSize := flag.Int("ram", 1<<20, "flat RAM size in bytes")
	interp := flag.Bool("interp", false, "disable the JIT, interpret only")
	flag.Parse()

	ram := make([]byte, *ramSize)
	if *romPath != "" {
		data, err := os.ReadFile(*romPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "drppcdemo: %v\n", err)
			os.Exit(1)
		}
		copy(ram, data)
	}

	eng, err := newDemoEngine(ram, *interp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drppcdemo: %v\n", err)
		os.Exit(1)
	}
	defer eng.Shutdown()

	runConsole(eng)
}

func newDemoEngine(ram []byte, interpretOnly bool) (*drppc.Engine, error) {
	region := flatRAMRegion(ram)
	cfg := drppc.Config{
		Print:                      func(format string, args ...any) { fmt.Printf(format+"\n", args...) },
		NativeCacheSize:            4 << 20,
		NativeCacheGuardSize:       4096,
		IntermediateCacheSize:      1 << 20,
		IntermediateCacheGuardSize: 4096,
		HotThreshold:               8,
		AddressBits:                32,
		Page1Bits:                  12,
		Page2Bits:                  12,
		OffsBits:                   6,
		IgnoreBits:                 2,
		InterpretOnly:              interpretOnly,
		MMap:                       mmapConfigFromRegion(region),
	}
	return drppc.SetupContext(cfg, 0, func() int { return 0 })
}

// termReadWriter pairs stdin and stdout into the single io.ReadWriter
// term.NewTerminal wants.
type termReadWriter struct {
	io.Reader
	io.Writer
}

// runConsole drives a readline-style command loop over raw stdin via
// term.Terminal, switching the fd to raw mode for the duration and
// restoring it on exit.
func runConsole(eng *drppc.Engine) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runBatchConsole(eng)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drppcdemo: failed to set raw mode: %v\n", err)
		runBatchConsole(eng)
		return
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(termReadWriter{os.Stdin, os.Stdout}, "drppc> ")

	fmt.Fprint(os.Stdout, "drppc interactive console. Type 'help' for commands.\r\n")
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		if !dispatch(eng, line, t) {
			return
		}
	}
}

// runBatchConsole is the non-tty fallback (piped stdin, CI) since
// term.MakeRaw fails on a non-terminal fd.
func runBatchConsole(eng *drppc.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if !dispatch(eng, scanner.Text(), os.Stdout) {
			return
		}
	}
}

func dispatch(eng *drppc.Engine, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "help":
		fmt.Fprint(out, "commands: step [n]  run <cycles>  break <addr>  clear  regs  pc <addr>  quit\r\n")
	case "step":
		n := 1
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}
		for i := 0; i < n; i++ {
			if _, err := eng.Run(1); err != nil {
				fmt.Fprintf(out, "error: %v\r\n", err)
				break
			}
		}
	case "run":
		if len(fields) < 2 {
			fmt.Fprint(out, "usage: run <cycles>\r\n")
			break
		}
		n, _ := strconv.ParseUint(fields[1], 0, 32)
		overrun, err := eng.Run(uint32(n))
		if err != nil {
			fmt.Fprintf(out, "error: %v\r\n", err)
			break
		}
		fmt.Fprintf(out, "overrun=%d\r\n", overrun)
	case "break":
		if len(fields) < 2 {
			fmt.Fprint(out, "usage: break <addr>\r\n")
			break
		}
		addr, _ := strconv.ParseUint(fields[1], 0, 32)
		eng.SetBreakpoint(uint32(addr))
	case "clear":
		eng.ClearBreakpoint()
	case "regs":
		printRegs(eng, out)
	case "pc":
		if len(fields) < 2 {
			fmt.Fprint(out, "usage: pc <addr>\r\n")
			break
		}
		addr, _ := strconv.ParseUint(fields[1], 0, 32)
		ctx := eng.GetContext()
		ctx.PC = uint32(addr)
		if err := eng.SetContext(ctx); err != nil {
			fmt.Fprintf(out, "error: %v\r\n", err)
		}
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(out, "unknown command %q\r\n", fields[0])
	}
	return true
}

func printRegs(eng *drppc.Engine, out io.Writer) {
	ctx := eng.GetContext()
	fmt.Fprintf(out, "PC=%#08x LR=%#08x CTR=%#08x MSR=%#08x\r\n", ctx.PC, ctx.LR, ctx.CTR, ctx.MSR)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(out, "r%-2d=%#08x r%-2d=%#08x r%-2d=%#08x r%-2d=%#08x\r\n",
			i, ctx.GPR[i], i+1, ctx.GPR[i+1], i+2, ctx.GPR[i+2], i+3, ctx.GPR[i+3])
	}
}
