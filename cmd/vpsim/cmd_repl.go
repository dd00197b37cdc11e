package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vplatform/vpsim/pkg/control"
	"github.com/vplatform/vpsim/pkg/kernel"
)

var replCmd = &cobra.Command{
	Use:   "repl <topology.json>",
	Short: "Interactive debug console over a built simulation",
	Long: `repl builds the component tree (through reset) and then drops into
an interactive console for single-stepping the time engine and inspecting
state, modeled on the teacher's cmd/newtron/shell.go command loop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := kernel.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		d, err := kernel.New(root, "root", control.NewLocalInbox(64))
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		return newRepl(d).run()
	},
}

// repl is an interactive debug console with a persistent Driver; its
// command loop mirrors the teacher's Shell type (a reader, a command map, a
// quit path) without the device-connection state that doesn't apply here.
type repl struct {
	d        *kernel.Driver
	reader   *bufio.Reader
	commands map[string]func(args []string)
	quitting bool
}

func newRepl(d *kernel.Driver) *repl {
	r := &repl{d: d, reader: bufio.NewReader(os.Stdin)}
	r.commands = map[string]func(args []string){
		"step":   r.cmdStep,
		"status": func([]string) { r.cmdStatus() },
		"stop":   func([]string) { r.d.Time.RequestStop() },
		"help":   func([]string) { r.cmdHelp() },
		"?":      func([]string) { r.cmdHelp() },
	}
	return r
}

func (r *repl) run() error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Println("vpsim repl — type 'help' for commands, 'quit' to exit")
	}
	for !r.quitting {
		if interactive {
			fmt.Print("vpsim> ")
		}
		line, err := r.reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		name, rest := fields[0], fields[1:]
		switch name {
		case "quit", "exit", "q":
			r.quitting = true
		default:
			if fn, ok := r.commands[name]; ok {
				fn(rest)
			} else {
				fmt.Printf("unknown command: %s (type 'help')\n", name)
			}
		}
	}
	if err := r.d.Inbox.Close(); err != nil {
		return err
	}
	return nil
}

func (r *repl) cmdStep(args []string) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	for i := 0; i < n; i++ {
		if r.d.Time.StopRequested() || !r.d.Time.Step() {
			fmt.Println("(no more events)")
			return
		}
	}
}

func (r *repl) cmdStatus() {
	fmt.Printf("global time: %d ps\n", r.d.Time.GlobalPs())
	fmt.Printf("stop requested: %v\n", r.d.Time.StopRequested())
}

func (r *repl) cmdHelp() {
	fmt.Println(`commands:
  step [n]   advance the time engine n steps (default 1)
  status     print global time and stop state
  stop       request the engine stop
  quit       leave the console`)
}
