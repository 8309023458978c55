// Command aro-run is the example process entrypoint for the execution core:
// it wires the action registry, the stateful subsystem ports, the
// Feature-Set Executor, and the Shutdown Coordinator together the way a
// real front-end (the out-of-scope analyzer + its host process) would, the
// same role the teacher's cmd/demo/main.go plays for the agent runtime — a
// small, runnable wiring example rather than a generated artifact.
package main

import (
	"context"
	"sort"
	"strings"

	"github.com/arolang/aro/executor"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/shutdown"
)

// Program groups the AnalyzedFeatureSets routed by the special-name
// prefixes of spec.md §6 so main can start the right one, wire handlers to
// the event bus, and fall back to the right Application-End path on
// shutdown.
type Program struct {
	start      *program.AnalyzedFeatureSet
	endSuccess *program.AnalyzedFeatureSet
	endError   *program.AnalyzedFeatureSet
	handlers   []*program.AnalyzedFeatureSet
	httpRoutes []*program.AnalyzedFeatureSet
}

// NewProgram classifies fs by the case-insensitive prefixes spec §6 names.
func NewProgram(fs []*program.AnalyzedFeatureSet) *Program {
	p := &Program{}
	for _, f := range fs {
		name := strings.ToLower(f.Name)
		switch {
		case strings.HasPrefix(name, "application-start"):
			p.start = f
		case strings.HasPrefix(name, "application-end: success"), strings.HasPrefix(name, "application-end success"):
			p.endSuccess = f
		case strings.HasPrefix(name, "application-end: error"), strings.HasPrefix(name, "application-end error"):
			p.endError = f
		case strings.HasPrefix(name, "http "):
			p.httpRoutes = append(p.httpRoutes, f)
		case f.Handler != nil:
			p.handlers = append(p.handlers, f)
		}
	}
	sort.Slice(p.handlers, func(i, j int) bool { return p.handlers[i].Name < p.handlers[j].Name })
	return p
}

// ApplicationEndRunner adapts Program into the shutdown.ApplicationEndRunner
// signature: "Success" runs endSuccess, "Error" runs endError, and either
// returns (false, nil) when the program defines no matching feature set.
func (p *Program) ApplicationEndRunner(eng *executor.Engine, rootActivity string) shutdown.ApplicationEndRunner {
	return func(ctx context.Context, outcome string) (bool, error) {
		fs := p.endSuccess
		if outcome == "Error" {
			fs = p.endError
		}
		if fs == nil {
			return false, nil
		}
		rc := rtcontext.New(rtcontext.Options{FeatureSetName: fs.Name, BusinessActivity: rootActivity})
		_, err := eng.Run(ctx, fs, rc)
		return true, err
	}
}

// Handlers returns every declarative event-handler feature set so main can
// subscribe each to the event bus via the executor's HandlerSubscription
// (spec §4.4).
func (p *Program) Handlers() []*program.AnalyzedFeatureSet { return p.handlers }

// Start returns the Application-Start feature set, or nil if the program
// defines none.
func (p *Program) Start() *program.AnalyzedFeatureSet { return p.start }
