package repl

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/value"
)

var HelpOpen = errors.New("open <doc>")

func (repl *REPL) CommandOpen(args []string) (err error) {
	if len(args) != 1 {
		return HelpOpen
	}
	if repl.doc != nil {
		if err = repl.CommandClose(nil); err != nil {
			return
		}
	}
	opts := repl.Options
	opts.GUID = args[0]
	doc, err := repl.Store.LoadDoc(args[0], opts)
	if err != nil {
		return err
	}
	repl.Store.Persist(doc)
	repl.doc, repl.docID = doc, args[0]
	_, _ = fmt.Fprintf(repl.Out, "%s opened as %x, state %s\n", args[0], doc.ClientID(), doc.StateVector())
	return nil
}

func (repl *REPL) CommandClose(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	repl.doc.Destroy()
	_, _ = fmt.Fprintf(repl.Out, "%s closed\n", repl.docID)
	repl.doc, repl.docID = nil, ""
	return nil
}

func (repl *REPL) CommandDocs(args []string) error {
	docs, err := repl.Store.Docs()
	if err != nil {
		return err
	}
	for _, doc := range docs {
		_, _ = fmt.Fprintln(repl.Out, doc)
	}
	return nil
}

func (repl *REPL) edit(fn func(txn *octo.Txn) error) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	_, err := repl.doc.Transact(fn)
	return err
}

var HelpInsert = errors.New("insert <text> <index> <string>")

func (repl *REPL) CommandInsert(args []string) error {
	if len(args) < 3 {
		return HelpInsert
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return HelpInsert
	}
	str := strings.Join(args[2:], " ")
	return repl.edit(func(txn *octo.Txn) error {
		text, err := repl.doc.GetText(args[0])
		if err != nil {
			return err
		}
		return text.Insert(txn, index, str)
	})
}

var HelpDelete = errors.New("delete <root> <index> <length>")

func (repl *REPL) CommandDelete(args []string) error {
	if len(args) != 3 {
		return HelpDelete
	}
	index, err1 := strconv.Atoi(args[1])
	length, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return HelpDelete
	}
	return repl.edit(func(txn *octo.Txn) error {
		root, err := repl.doc.Root(args[0])
		if err != nil {
			return err
		}
		switch root := root.(type) {
		case *octo.Array:
			return root.Delete(txn, index, length)
		case *octo.Text:
			return root.Delete(txn, index, length)
		}
		return fmt.Errorf("%s is a map, try: unset", args[0])
	})
}

func parseValue(arg string) (value.Any, error) {
	var native interface{}
	if err := json.Unmarshal([]byte(arg), &native); err != nil {
		// bare words are strings
		return value.MakeString(arg), nil
	}
	return value.FromNative(native)
}

var HelpPush = errors.New("push <array> <json>...")

func (repl *REPL) CommandPush(args []string) error {
	if len(args) < 2 {
		return HelpPush
	}
	vals := make([]value.Any, 0, len(args)-1)
	for _, arg := range args[1:] {
		v, err := parseValue(arg)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	return repl.edit(func(txn *octo.Txn) error {
		arr, err := repl.doc.GetArray(args[0])
		if err != nil {
			return err
		}
		return arr.Push(txn, vals...)
	})
}

var HelpSet = errors.New("set <map> <key> <json>")

func (repl *REPL) CommandSet(args []string) error {
	if len(args) < 3 {
		return HelpSet
	}
	v, err := parseValue(strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return repl.edit(func(txn *octo.Txn) error {
		m, err := repl.doc.GetMap(args[0])
		if err != nil {
			return err
		}
		return m.Set(txn, args[1], v)
	})
}

var HelpUnset = errors.New("unset <map> <key>")

func (repl *REPL) CommandUnset(args []string) error {
	if len(args) != 2 {
		return HelpUnset
	}
	return repl.edit(func(txn *octo.Txn) error {
		m, err := repl.doc.GetMap(args[0])
		if err != nil {
			return err
		}
		return m.Delete(txn, args[1])
	})
}

func (repl *REPL) native(name string) (interface{}, error) {
	root, err := repl.doc.Root(name)
	if err != nil {
		return nil, err
	}
	return octo.Value{Nested: root}.Native()
}

func (repl *REPL) CommandShow(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	roots := args
	if len(roots) == 0 {
		roots = repl.doc.Roots()
	}
	for _, root := range roots {
		v, err := repl.native(root)
		if err != nil {
			return err
		}
		js, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(repl.Out, "%s\t%s\n", root, js)
	}
	return nil
}

func (repl *REPL) CommandDump(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	repl.doc.DumpAll(repl.Out)
	return nil
}

func (repl *REPL) CommandStateVector(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	_, _ = fmt.Fprintln(repl.Out, repl.doc.StateVector().String())
	return nil
}

var HelpDiff = errors.New("diff [client-clock,...]")

func (repl *REPL) CommandDiff(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	var sv octo.StateVector
	if len(args) > 0 {
		var err error
		if sv, err = octo.StateVectorFromString(strings.Join(args, "")); err != nil {
			return HelpDiff
		}
	}
	_, _ = fmt.Fprintln(repl.Out, hex.EncodeToString(repl.doc.EncodeStateAsUpdate(sv)))
	return nil
}

var HelpApply = errors.New("apply <hex update>")

func (repl *REPL) CommandApply(args []string) error {
	if repl.doc == nil {
		return ErrNoDoc
	}
	if len(args) != 1 {
		return HelpApply
	}
	update, err := hex.DecodeString(args[0])
	if err != nil {
		return HelpApply
	}
	return repl.doc.ApplyUpdateFrom(update, "repl")
}
