// Command btrctl compiles a small demonstration tree and drives it to
// completion, printing colored status transitions. It is a Coordinator-
// role program external to the runtime itself (§1/§6: no CLI surface is
// part of the runtime), playing the same role littlealbert's own example
// usage and run.go tick-rate loop play for that library.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	openzipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	zipkinot "github.com/openzipkin-contrib/zipkin-go-opentracing"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	btr "github.com/upstarter/automata-sub005"
	"github.com/upstarter/automata-sub005/eventsink"
)

func main() {
	zipkinEndpoint := flag.String("zipkin", "", "zipkin HTTP reporter endpoint; tracing disabled if empty")
	tickEvery := flag.Duration("tick", 20*time.Millisecond, "root tick period")
	flag.Parse()

	logger := logrus.StandardLogger()
	if *zipkinEndpoint != "" {
		stop, err := installTracer(*zipkinEndpoint)
		if err != nil {
			logger.WithError(err).Fatal("btrctl: failed to install zipkin tracer")
		}
		defer stop()
	}

	spec, err := btr.Compile(demoConfig(), demoRegistry())
	if err != nil {
		logger.WithError(errors.WithStack(err)).Fatal("btrctl: compile failed")
	}

	handle := btr.Spawn(spec, nil, btr.Sinks{
		EventSink: eventsink.NewLogSink(logger),
		ErrorSink: eventsink.NewLogErrorSink(logger),
		Logger:    logger,
	})

	stop := handle.Run(*tickEvery)
	defer func() {
		if err := stop(); err != nil {
			logger.WithError(err).Warn("btrctl: tree teardown missed its shutdown deadline")
		}
	}()

	last := btr.Fresh
	for {
		status := handle.Status()
		if status != last {
			printStatus(status)
			last = status
		}
		if status.Terminal() {
			break
		}
		time.Sleep(*tickEvery)
	}

	fmt.Println(btr.TreePrintLive(handle))
	if last != btr.Success {
		os.Exit(1)
	}
}

func printStatus(s btr.Status) {
	switch s {
	case btr.Success:
		color.New(color.FgGreen).Printf("status -> %s\n", s)
	case btr.Failure, btr.Aborted:
		color.New(color.FgRed).Printf("status -> %s\n", s)
	default:
		color.New(color.FgYellow).Printf("status -> %s\n", s)
	}
}

func installTracer(endpoint string) (stop func(), err error) {
	reporter := zipkinhttp.NewReporter(endpoint)
	localEndpoint, err := openzipkin.NewEndpoint("btrctl", "")
	if err != nil {
		reporter.Close()
		return nil, errors.WithStack(err)
	}
	nativeTracer, err := openzipkin.NewTracer(reporter, openzipkin.WithLocalEndpoint(localEndpoint))
	if err != nil {
		reporter.Close()
		return nil, errors.WithStack(err)
	}
	opentracing.SetGlobalTracer(zipkinot.Wrap(nativeTracer))
	return func() { reporter.Close() }, nil
}

// demoConfig builds a tiny Sequence(wait, done) tree to exercise the
// compile/spawn/tick path end to end.
func demoConfig() btr.Config {
	return btr.Config{
		ID:   "root",
		Kind: btr.Sequence,
		Children: []btr.Config{
			{ID: "wait", Kind: btr.Action, ActionRef: "wait3", TickPeriodMS: 20},
			{ID: "done", Kind: btr.Action, ActionRef: "succeed", TickPeriodMS: 20},
		},
	}
}

func demoRegistry() btr.MapRegistry {
	return btr.MapRegistry{
		"succeed": btr.AlwaysSucceed,
		"wait3":   newCountdownAction(3),
	}
}

// newCountdownAction returns Running for n-1 updates, then Success.
func newCountdownAction(n int) btr.Action {
	remaining := n
	return btr.ActionFunc{
		Init: func(btr.Context) error {
			remaining = n
			return nil
		},
		UpdateFn: func(btr.Context) (btr.Status, error) {
			remaining--
			if remaining <= 0 {
				return btr.Success, nil
			}
			return btr.Running, nil
		},
	}
}
