// Package repl is an interactive shell over one document at a time,
// kept in a store.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/store"
)

// REPL per se.
type REPL struct {
	Store   *store.Store
	Options octo.Options
	Out     io.Writer

	doc   *octo.Doc
	docID string
	rl    *readline.Instance
}

var ErrExit = errors.New("exit")
var ErrNoDoc = errors.New("no document open, try: open <name>")

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("open"),
	readline.PcItem("close"),
	readline.PcItem("docs"),

	readline.PcItem("insert"),
	readline.PcItem("delete"),
	readline.PcItem("push"),
	readline.PcItem("set"),
	readline.PcItem("unset"),
	readline.PcItem("show"),

	readline.PcItem("dump"),
	readline.PcItem("sv"),
	readline.PcItem("diff"),
	readline.PcItem("apply"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func (repl *REPL) Open(history string) (err error) {
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     history,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	if repl.Out == nil {
		repl.Out = os.Stdout
	}
	return
}

func (repl *REPL) Close() error {
	if repl.doc != nil {
		_ = repl.CommandClose(nil)
	}
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

// Run reads and executes lines until exit or EOF.
func (repl *REPL) Run() error {
	for {
		line, err := repl.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		err = repl.Exec(line)
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintln(repl.Out, err.Error())
		}
	}
}

// Exec runs one command line.
func (repl *REPL) Exec(line string) (err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	// ----- documents -----
	case "open":
		err = repl.CommandOpen(args)
	case "close":
		err = repl.CommandClose(args)
	case "docs":
		err = repl.CommandDocs(args)
	// ----- editing -----
	case "insert":
		err = repl.CommandInsert(args)
	case "delete":
		err = repl.CommandDelete(args)
	case "push":
		err = repl.CommandPush(args)
	case "set":
		err = repl.CommandSet(args)
	case "unset":
		err = repl.CommandUnset(args)
	case "show":
		err = repl.CommandShow(args)
	// ----- debug -----
	case "dump":
		err = repl.CommandDump(args)
	case "sv":
		err = repl.CommandStateVector(args)
	case "diff":
		err = repl.CommandDiff(args)
	case "apply":
		err = repl.CommandApply(args)
	case "help":
		_, _ = fmt.Fprintln(repl.Out, help)
	case "exit", "quit":
		err = ErrExit
	default:
		err = fmt.Errorf("command unknown: %s", cmd)
	}
	return
}

const help = `open <doc>                 load a document from the store
close                      close it
docs                       list stored documents
insert <text> <i> <str>    insert into a text
delete <root> <i> <n>      delete from a text or an array
push <array> <json>...     append values to an array
set <map> <key> <json>     set a map key
unset <map> <key>          delete a map key
show [root]                print roots as JSON
dump                       print roots, items and state
sv                         print the state vector
diff [sv]                  print the update a peer at sv misses, hex
apply <hex>                apply an update`
