// Package programs is the static table of bundled user programs. There is
// no ELF loading: programs are linked in at build time, so the registry is
// populated once at package init and only ever read after that.
package programs

// Program is a bundled user program descriptor: a name and the entry point
// the trap frame's PC/RA are set to on exec.
type Program struct {
	Name       string
	EntryPoint uint64
}

var registry = map[string]*Program{}

func register(name string, entry uint64) {
	registry[name] = &Program{Name: name, EntryPoint: entry}
}

func init() {
	// Entry points are arbitrary but stable symbolic addresses; there is no
	// real linker in this simulation, so each program gets a distinct base.
	register("idle", 0x1000)
	register("init", 0x2000)
	register("hello", 0x3000)
	register("spinner", 0x4000)
}

// Find looks up a bundled program by name. Returns false if the program is
// not registered.
func Find(name string) (*Program, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns the bundled program names in registration order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, name := range []string{"idle", "init", "hello", "spinner"} {
		if _, ok := registry[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
