// Command btrview renders a spawned tree's live status in a terminal UI,
// redrawing on every tick. Grounded in joeycumines-go-pabt's
// examples/tcell-pick-and-place demo, which uses the same
// tcell/go-colorful/go-runewidth stack to visualize a live tree of
// behaviors; this command is the Coordinator-role visualization layer
// §1 scopes outside the runtime itself.
package main

import (
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	runewidth "github.com/mattn/go-runewidth"

	btr "github.com/upstarter/automata-sub005"
)

func main() {
	screen, err := tcell.NewScreen()
	if err != nil {
		panic(err)
	}
	if err := screen.Init(); err != nil {
		panic(err)
	}
	defer screen.Fini()

	spec, err := btr.Compile(demoConfig(), demoRegistry())
	if err != nil {
		panic(err)
	}
	handle := btr.Spawn(spec, nil, btr.Sinks{})
	stop := handle.Run(50 * time.Millisecond)
	defer stop()

	events := make(chan struct{}, 1)
	quit := make(chan struct{})
	go pollKeys(screen, quit)

	ticker := time.NewTicker(60 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			draw(screen, handle)
			if handle.Status().Terminal() {
				select {
				case <-time.After(2 * time.Second):
					return
				case <-quit:
					return
				}
			}
		case <-events:
		}
	}
}

func pollKeys(screen tcell.Screen, quit chan struct{}) {
	for {
		ev := screen.PollEvent()
		switch e := ev.(type) {
		case *tcell.EventKey:
			if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC || e.Rune() == 'q' {
				close(quit)
				return
			}
		case nil:
			return
		}
	}
}

func draw(screen tcell.Screen, handle *btr.TreeHandle) {
	screen.Clear()
	lines := strings.Split(btr.TreePrintLive(handle), "\n")
	for row, line := range lines {
		drawLine(screen, 0, row, line, statusStyle(line))
	}
	screen.Show()
}

func drawLine(screen tcell.Screen, x, y int, line string, style tcell.Style) {
	col := x
	for _, r := range line {
		screen.SetContent(col, y, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
}

// statusStyle picks a foreground color per the status bracket TreePrintLive
// embeds in each line ("[running]", "[success]", ...), interpolating hues
// via go-colorful the way go-pabt's demo colors its planner graph.
func statusStyle(line string) tcell.Style {
	hue := 0.0
	switch {
	case strings.Contains(line, "[success]"):
		hue = 120
	case strings.Contains(line, "[failure]"), strings.Contains(line, "[aborted]"):
		hue = 0
	case strings.Contains(line, "[running]"):
		hue = 45
	default:
		return tcell.StyleDefault
	}
	c := colorful.Hsv(hue, 0.65, 0.95)
	r, g, b := c.RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func demoConfig() btr.Config {
	return btr.Config{
		ID:   "root",
		Kind: btr.Selector,
		Children: []btr.Config{
			{ID: "try", Kind: btr.Action, ActionRef: "flaky", TickPeriodMS: 50},
			{ID: "fallback", Kind: btr.Action, ActionRef: "succeed", TickPeriodMS: 50},
		},
	}
}

func demoRegistry() btr.MapRegistry {
	return btr.MapRegistry{
		"succeed": btr.AlwaysSucceed,
		"flaky":   btr.AlwaysFail,
	}
}
