/*
Package validator performs static analysis over a populated registry before
any execution occurs.

Findings come in three severities: errors block graph compilation, warnings
are surfaced for optional promotion to fatal (strict mode), info entries
flag ambiguities worth knowing about.
*/
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Result aggregates validation findings.
type Result struct {
	Errors   []string
	Warnings []string
	Info     []string
}

// HasErrors is true iff any ERROR finding exists. Callers must refuse to
// build or execute when true.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings is true iff any WARNING finding exists.
func (r Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// IsValid is the inverse of HasErrors.
func (r Result) IsValid() bool { return !r.HasErrors() }

func (r Result) String() string {
	var b strings.Builder
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for _, l := range lines {
			b.WriteString("  - " + l + "\n")
		}
	}
	section("ERRORS", r.Errors)
	section("WARNINGS", r.Warnings)
	section("INFO", r.Info)
	if b.Len() == 0 {
		return "OK"
	}
	return b.String()
}

// Validator analyzes a registry.
type Validator struct {
	reg           *registry.Registry
	knownServices map[string]struct{}
}

// Option configures the Validator.
type Option func(*Validator)

// WithKnownServices enables service-name checking against the given set.
// Without it, service validation is skipped entirely.
func WithKnownServices(services ...string) Option {
	return func(v *Validator) {
		v.knownServices = make(map[string]struct{}, len(services))
		for _, s := range services {
			v.knownServices[s] = struct{}{}
		}
	}
}

// New creates a validator over the registry.
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{reg: reg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every check and returns the aggregated result.
func (v *Validator) Validate() Result {
	var res Result

	for _, name := range v.reg.Names() {
		entry, _ := v.reg.Get(name)
		c := entry.Contract

		// ERROR: undeclared slices. These would make I/O enforcement
		// meaningless at runtime, so they block compilation.
		for _, sl := range c.Reads {
			if !v.reg.IsValidSlice(sl) {
				res.Errors = append(res.Errors,
					fmt.Sprintf("node %q reads unknown slice %q", name, sl))
			}
		}
		for _, sl := range c.Writes {
			if !v.reg.IsValidSlice(sl) {
				res.Errors = append(res.Errors,
					fmt.Sprintf("node %q writes unknown slice %q", name, sl))
			}
		}

		// WARNING: unknown services (only when a known set was provided).
		if v.knownServices != nil {
			for _, svc := range c.Services {
				if _, ok := v.knownServices[svc]; !ok {
					res.Warnings = append(res.Warnings,
						fmt.Sprintf("node %q requires unknown service %q", name, svc))
				}
			}
		}

		// WARNING: orphan node (no owning supervisor).
		if c.Supervisor == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("node %q is an orphan: no supervisor assigned", name))
		}

		// WARNING: dead node. Without trigger conditions a node can only be
		// reached by explicit routing, which requires the interactive
		// capability (question ownership).
		if len(c.TriggerConditions) == 0 {
			if _, interactive := entry.Impl.(ports.Interactive); !interactive {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("node %q is unreachable: no trigger conditions and no interactive capability", name))
			}
		}
	}

	// INFO: shared writers (potential overwrite ambiguity; last write wins
	// per turn, so this is flagged, not blocked).
	writers := v.SharedWriters()
	slices := make([]string, 0, len(writers))
	for sl := range writers {
		slices = append(slices, sl)
	}
	sort.Strings(slices)
	for _, sl := range slices {
		res.Info = append(res.Info,
			fmt.Sprintf("slice %q is written by multiple nodes: %s", sl, strings.Join(writers[sl], ", ")))
	}

	return res
}

// SharedWriters maps each slice written by more than one node to its
// writers, in registration order.
func (v *Validator) SharedWriters() map[string][]string {
	byslice := make(map[string][]string)
	for _, name := range v.reg.Names() {
		c, _ := v.reg.Contract(name)
		for _, sl := range c.Writes {
			byslice[sl] = append(byslice[sl], name)
		}
	}
	for sl, nodes := range byslice {
		if len(nodes) < 2 {
			delete(byslice, sl)
		}
	}
	return byslice
}

// SliceReaders maps each slice to the nodes reading it, in registration
// order.
func (v *Validator) SliceReaders() map[string][]string {
	readers := make(map[string][]string)
	for _, name := range v.reg.Names() {
		c, _ := v.reg.Contract(name)
		for _, sl := range c.Reads {
			readers[sl] = append(readers[sl], name)
		}
	}
	return readers
}

// DataFlow maps each node to the nodes it depends on: another node is a
// dependency when it writes a slice this node reads.
func (v *Validator) DataFlow() map[string][]string {
	deps := make(map[string][]string)
	names := v.reg.Names()
	for _, name := range names {
		c, _ := v.reg.Contract(name)
		var list []string
		for _, other := range names {
			if other == name {
				continue
			}
			oc, _ := v.reg.Contract(other)
			if intersects(c.Reads, oc.Writes) {
				list = append(list, other)
			}
		}
		deps[name] = list
	}
	return deps
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
