package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arolang/aro/actions"
	"github.com/arolang/aro/cliparams"
	"github.com/arolang/aro/eventbus"
	"github.com/arolang/aro/executor"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/repository"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/shutdown"
	"github.com/arolang/aro/symbols"
	"github.com/arolang/aro/sysobj"
	"github.com/arolang/aro/telemetry"
	"github.com/arolang/aro/value"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	params := cliparams.New()
	params.Parse(argv)

	reg := registry.New()
	if err := actions.RegisterDefaults(reg); err != nil {
		fmt.Fprintln(os.Stderr, "aro-run: registering actions:", err)
		return shutdown.ExitRuntimeErr
	}

	sysobjs := sysobj.New()
	sysobjs.Register("console", sysobj.NewConsoleFactory(os.Stdout, os.Stderr))
	sysobjs.Register("stderr", sysobj.NewStderrFactory(os.Stderr))
	sysobjs.Register("stdin", sysobj.NewStdinFactory(os.Stdin))
	sysobjs.Register("env", sysobj.NewEnvFactory())
	sysobjs.Register("file", sysobj.NewFileFactory())
	sysobjs.Register("parameter", sysobj.NewParameterFactory(params))

	deps := registry.Deps{
		Repositories: repository.New(),
		Globals:      symbols.New(),
		Events:       eventbus.New(),
		SystemObjs:   sysobjs,
		Telemetry:    telemetry.Noop(),
	}

	eng := executor.New(reg, deps)

	prog := NewProgram(demoFeatureSets())

	coord := shutdown.New(shutdown.WithGracePeriod(10 * time.Second))
	stopListening := coord.Listen(context.Background())
	defer stopListening()

	for _, handler := range prog.Handlers() {
		eng.HandlerSubscription(deps.Events, handler, func() *rtcontext.Context {
			return rtcontext.New(rtcontext.Options{FeatureSetName: handler.Name, BusinessActivity: handler.BusinessActivity})
		})
	}

	var fatal error
	if start := prog.Start(); start != nil {
		rc := rtcontext.New(rtcontext.Options{FeatureSetName: start.Name, BusinessActivity: start.BusinessActivity})
		if err := rc.Bind("_greeting", value.String("Hello from aro-run!")); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return shutdown.ExitRuntimeErr
		}
		done := coord.Track()
		_, err := eng.Run(context.Background(), start, rc)
		done()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			fatal = err
		}
	}
	coord.SignalShutdown("run complete", fatal)

	activity := ""
	if start := prog.Start(); start != nil {
		activity = start.BusinessActivity
	}
	return coord.Run(context.Background(), prog.ApplicationEndRunner(eng, activity))
}

// demoFeatureSets stands in for the (out-of-scope) analyzer's output: a
// minimal Application-Start that writes a greeting to the console, the
// wiring this command exists to demonstrate.
func demoFeatureSets() []*program.AnalyzedFeatureSet {
	return []*program.AnalyzedFeatureSet{
		{
			Name:             "Application-Start",
			BusinessActivity: "Bootstrap",
			Statements: []program.StatementDescriptor{
				{
					Verb:   "write",
					Result: program.ResultDescriptor{Base: "_greeting"},
					Object: program.ObjectDescriptor{Preposition: program.PrepTo, Base: "console"},
					Span:   program.Span{Text: "Write the console to the greeting."},
				},
			},
		},
	}
}
