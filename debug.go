package octo

import (
	"fmt"
	"io"
)

func (d *Doc) DumpAll(writer io.Writer) {
	d.DumpRoots(writer)
	fmt.Fprintln(writer, "")
	d.DumpStore(writer)
	fmt.Fprintln(writer, "")
	d.DumpStateVector(writer)
}

// DumpRoots prints every root with its visible content.
func (d *Doc) DumpRoots(writer io.Writer) {
	for _, name := range d.Roots() {
		root, err := d.Root(name)
		var content interface{}
		if err == nil {
			content, err = Value{Nested: root}.Native()
		}
		if err != nil {
			fmt.Fprintf(writer, "%s:\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(writer, "%s %s:\t%v\n", root.Kind(), name, content)
	}
}

// DumpStore prints the item records per client in clock order.
func (d *Doc) DumpStore(writer io.Writer) {
	for _, client := range d.store.Clients() {
		for _, it := range d.store.clients[client] {
			line := it.String()
			if it.parent != nil {
				line += "\tin " + it.parent.ref.String()
			}
			fmt.Fprintln(writer, line)
		}
	}
	for _, client := range sortedClients(d.pending) {
		for _, it := range d.pending[client] {
			fmt.Fprintln(writer, it.String(), "\tpending")
		}
	}
	if d.pendingDeletes.Len() > 0 {
		fmt.Fprintln(writer, "pending deletes", d.pendingDeletes.String())
	}
}

func (d *Doc) DumpStateVector(writer io.Writer) {
	fmt.Fprintln(writer, "state", d.StateVector().String())
	if missing := d.Missing(); len(missing) > 0 {
		fmt.Fprintln(writer, "missing", missing)
	}
}

// DumpUpdate decodes an update and prints its records.
func DumpUpdate(writer io.Writer, update []byte) error {
	u, err := DecodeUpdate(update)
	if err != nil {
		return err
	}
	for _, run := range u.Runs {
		fmt.Fprintf(writer, "run %s, %d items\n", ID{run.Client, run.Clock}, len(run.Items))
		for _, it := range run.Items {
			fmt.Fprintf(writer, "\t%s%s\n", it.String(), itemDetails(it))
		}
	}
	if len(u.Deletes) > 0 {
		fmt.Fprintln(writer, "deleted", u.Deletes.String())
	}
	return nil
}

func itemDetails(it *Item) (s string) {
	if it.Origin != nil {
		s += " after " + it.Origin.String()
	}
	if it.RightOrigin != nil {
		s += " before " + it.RightOrigin.String()
	}
	if it.Origin == nil && it.RightOrigin == nil && it.Content.Tag != ContentGC {
		s += " in " + it.Parent.String()
	}
	if it.ParentSub != nil {
		s += fmt.Sprintf(" key %q", *it.ParentSub)
	}
	switch it.Content.Tag {
	case ContentString:
		s += fmt.Sprintf(" %q", it.Content.Str)
	case ContentType:
		s += " " + it.Content.Kind.String()
	case ContentAny:
		s += fmt.Sprintf(" %v", it.Content.Anys)
	}
	return
}
