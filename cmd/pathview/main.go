// Command pathview is a terminal map viewer for trying out searches: move
// the cursor, place start and goal, edit terrain and watch routes and
// agents react.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gravitas-games/freepath/internal/config"
	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/internal/routing"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/hex"
)

var kinds = []routing.Kind{routing.KindHuman, routing.KindShip, routing.KindRoad, routing.KindBoatRoad}

type viewer struct {
	screen tcell.Screen
	world  *simulation.World

	cursor      hex.Axial
	start, goal *hex.Axial
	kind        int

	route   []hex.Direction
	found   bool
	checked *pathfinding.RouteStatus
	status  string
	running bool
}

func loadConfig() (*config.Config, error) {
	if len(os.Args) > 1 {
		return config.Load(os.Args[1])
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 32, 20
	return cfg, nil
}

func newViewer(cfg *config.Config) (*viewer, error) {
	var (
		gm  *gamemap.GameMap
		err error
	)
	if len(cfg.World.Layout) > 0 {
		gm, err = gamemap.ParseLayout(cfg.World.Layout, cfg.World.Wrap)
	} else {
		gm, err = gamemap.New(cfg.World.Width, cfg.World.Height, cfg.World.Wrap)
	}
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	return &viewer{
		screen: screen,
		world: simulation.NewWorld(gm, simulation.Options{
			Pathfinding: cfg.Pathfinding,
			MaxAgents:   cfg.Session.MaxAgents,
			Seed:        cfg.World.Seed,
		}),
		status: "arrows move, s/g start/goal, t tree, w water, b barrier, k kind, a agent, space run, c check, esc quit",
	}, nil
}

func (v *viewer) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	ctx := context.Background()
	v.draw()
	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}
			v.draw()
		case <-ticker.C:
			if v.running {
				v.world.Step(ctx)
				v.draw()
			}
		}
	}
}

func (v *viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			v.moveCursor(hex.West)
		case tcell.KeyRight:
			v.moveCursor(hex.East)
		case tcell.KeyUp:
			v.moveCursor(hex.NorthWest)
		case tcell.KeyDown:
			v.moveCursor(hex.SouthEast)
		case tcell.KeyRune:
			v.handleRune(ev.Rune())
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) moveCursor(d hex.Direction) {
	gm := v.world.Map()
	if next := gm.Neighbor(v.cursor, d); gm.Contains(next) {
		v.cursor = next
	}
}

func (v *viewer) handleRune(r rune) {
	gm := v.world.Map()
	switch r {
	case 's':
		c := v.cursor
		v.start = &c
		v.search()
	case 'g':
		c := v.cursor
		v.goal = &c
		v.search()
	case 'k':
		v.kind = (v.kind + 1) % len(kinds)
		v.search()
	case 't':
		obj := gamemap.Tree
		if gm.Object(v.cursor) == gamemap.Tree {
			obj = gamemap.NoObject
		}
		v.edit(gm.SetObject(v.cursor, obj))
	case 'w':
		terrain := gamemap.Water
		if gm.Terrain(v.cursor) == gamemap.Water {
			terrain = gamemap.Plains
		}
		v.edit(gm.SetTerrain(v.cursor, terrain))
	case 'b':
		v.edit(gm.SetBarrier(v.cursor, hex.East, !gm.Barrier(v.cursor, hex.East)))
	case 'c':
		v.check()
	case 'a':
		v.spawnAgent()
	case ' ':
		v.running = !v.running
	}
}

// edit re-validates the shown route after a map change, the way a moving
// figure would before its next step.
func (v *viewer) edit(err error) {
	if err != nil {
		v.status = err.Error()
		return
	}
	v.check()
}

func (v *viewer) search() {
	v.route, v.found, v.checked = nil, false, nil
	if v.start == nil || v.goal == nil || *v.start == *v.goal {
		return
	}
	kind := kinds[v.kind]
	r := v.world.Router()
	before := r.Stats()

	var res pathfinding.Result
	switch kind {
	case routing.KindShip:
		res, v.found = r.FindShipPath(*v.start, *v.goal)
	case routing.KindRoad, routing.KindBoatRoad:
		res, v.found = r.FindRoadPath(*v.start, *v.goal, kind == routing.KindBoatRoad)
	default:
		res, v.found = r.FindHumanRoute(*v.start, *v.goal, false)
	}
	v.route = res.Route
	d := r.Stats().Sub(before)
	if v.found {
		v.status = fmt.Sprintf("%s route of length %d (%d pops, %d pushes)", kind, res.Length, d.Pops, d.Pushes)
	} else {
		v.status = fmt.Sprintf("no %s route (%d pops)", kind, d.Pops)
	}
}

func (v *viewer) check() {
	if len(v.route) == 0 {
		return
	}
	st := v.world.Router().CheckRoute(kinds[v.kind], *v.start, v.route, 0)
	v.checked = &st
	if st.Valid {
		v.status = "route still valid"
	} else {
		v.status = fmt.Sprintf("route broken at step %d, press s or g to search again", st.BrokenAt)
	}
}

func (v *viewer) spawnAgent() {
	if v.start == nil || v.goal == nil {
		v.status = "place start and goal first"
		return
	}
	kind := simulation.KindWorker
	if kinds[v.kind] == routing.KindShip {
		kind = simulation.KindShip
	}
	a, err := v.world.Spawn("viewer", kind, *v.start)
	if err != nil {
		v.status = err.Error()
		return
	}
	if err := v.world.SetGoal(a.ID, *v.goal); err != nil {
		v.status = err.Error()
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// the terminal belongs to the viewer
	if cfg.Pathfinding.DebugLevel == 0 {
		log.SetOutput(io.Discard)
	}

	v, err := newViewer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer v.screen.Fini()

	v.run()
}
