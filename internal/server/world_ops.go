package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/network"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/internal/routing"
	"github.com/gravitas-games/freepath/internal/simulation"
	"github.com/gravitas-games/freepath/pkg/hex"
	"github.com/gravitas-games/freepath/pkg/models"
)

var (
	errSessionFull  = errors.New("session is full")
	errBadRequest   = errors.New("bad request")
	errUnknownKind  = errors.New("unknown route kind")
	errNotPermitted = errors.New("not permitted")
)

var tracer = otel.Tracer("freepath/server")

func parseKind(s string) (routing.Kind, error) {
	switch k := routing.Kind(s); k {
	case routing.KindHuman, routing.KindShip, routing.KindRoad, routing.KindBoatRoad:
		return k, nil
	case "":
		return routing.KindHuman, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownKind, s)
	}
}

// checkEndpoints rejects off-map endpoints and endpoints naming the same
// point, which on a wrapping map need not be equal coordinates.
func checkEndpoints(gm *gamemap.GameMap, start, dest hex.Axial) error {
	startIdx, destIdx := gm.Index(start), gm.Index(dest)
	if startIdx < 0 || destIdx < 0 {
		return fmt.Errorf("%w: %v -> %v", gamemap.ErrOutOfBounds, start, dest)
	}
	if startIdx == destIdx {
		return fmt.Errorf("%w: start equals destination", errBadRequest)
	}
	return nil
}

// search runs a route search of the given kind on w.
func search(w *simulation.World, kind routing.Kind, start, dest hex.Axial, random, firstOnly bool) (pathfinding.Result, bool) {
	r := w.Router()
	switch kind {
	case routing.KindShip:
		return r.FindShipPath(start, dest)
	case routing.KindRoad:
		return r.FindRoadPath(start, dest, false)
	case routing.KindBoatRoad:
		return r.FindRoadPath(start, dest, true)
	}
	if firstOnly {
		dir, length, ok := r.FindHumanPath(start, dest, random)
		return pathfinding.Result{Length: length, FirstDir: dir}, ok
	}
	return r.FindHumanRoute(start, dest, random)
}

// FindPath answers a find_path request.
func (s *Session) FindPath(ctx context.Context, req network.FindPathPayload) (network.PathResultPayload, error) {
	_, span := tracer.Start(ctx, "session.FindPath",
		trace.WithAttributes(
			attribute.String("kind", req.Kind),
			attribute.Int("start.q", req.Start.Q),
			attribute.Int("start.r", req.Start.R),
			attribute.Int("dest.q", req.Dest.Q),
			attribute.Int("dest.r", req.Dest.R),
		),
	)
	defer span.End()

	kind, err := parseKind(req.Kind)
	if err != nil {
		return network.PathResultPayload{}, err
	}

	out := network.PathResultPayload{RequestID: req.RequestID}
	s.Do(func(w *simulation.World) {
		if err = checkEndpoints(w.Map(), req.Start, req.Dest); err != nil {
			return
		}
		res, ok := search(w, kind, req.Start, req.Dest, req.RandomRoute, req.FirstOnly)
		out.Found = ok
		if ok {
			out.Route = res.Route
			out.Length = res.Length
			first := res.FirstDir
			out.FirstDir = &first
		}
	})
	span.SetAttributes(attribute.Bool("found", out.Found), attribute.Int("length", out.Length))
	return out, err
}

// CheckRoute answers a check_route request.
func (s *Session) CheckRoute(ctx context.Context, req network.CheckRoutePayload) (network.RouteStatusPayload, error) {
	_, span := tracer.Start(ctx, "session.CheckRoute",
		trace.WithAttributes(
			attribute.String("kind", req.Kind),
			attribute.Int("route.length", len(req.Route)),
			attribute.Int("route.pos", req.Pos),
		),
	)
	defer span.End()

	kind, err := parseKind(req.Kind)
	if err != nil {
		return network.RouteStatusPayload{}, err
	}
	if req.Pos < 0 || req.Pos >= len(req.Route) {
		return network.RouteStatusPayload{}, fmt.Errorf("%w: offset %d of %d", errBadRequest, req.Pos, len(req.Route))
	}

	out := network.RouteStatusPayload{RequestID: req.RequestID}
	s.Do(func(w *simulation.World) {
		if !w.Map().Contains(req.Start) {
			err = fmt.Errorf("%w: %v", gamemap.ErrOutOfBounds, req.Start)
			return
		}
		st := w.Router().CheckRoute(kind, req.Start, req.Route, req.Pos)
		out.Valid, out.End, out.BrokenAt = st.Valid, st.End, st.BrokenAt
	})
	span.SetAttributes(attribute.Bool("valid", out.Valid))
	return out, err
}

// SpawnAgent places an agent owned by player.
func (s *Session) SpawnAgent(player *models.Player, req network.SpawnAgentPayload) (models.AgentView, error) {
	var (
		view models.AgentView
		err  error
	)
	s.Do(func(w *simulation.World) {
		var a *simulation.Agent
		a, err = w.Spawn(player.ID, simulation.AgentKind(req.Kind), req.Pos)
		if err != nil {
			return
		}
		if req.Goal != nil {
			if err = w.SetGoal(a.ID, *req.Goal); err != nil {
				_ = w.Remove(a.ID)
				return
			}
		}
		view = agentView(a)
	})
	return view, err
}

// SetGoal sends one of the player's agents somewhere.
func (s *Session) SetGoal(player *models.Player, req network.SetGoalPayload) error {
	id, err := uuid.Parse(req.AgentID)
	if err != nil {
		return fmt.Errorf("%w: agent id: %v", errBadRequest, err)
	}
	s.Do(func(w *simulation.World) {
		a, ok := w.Agent(id)
		if !ok {
			err = fmt.Errorf("%w: %s", simulation.ErrUnknownAgent, id)
			return
		}
		if a.Owner != player.ID {
			err = errNotPermitted
			return
		}
		err = w.SetGoal(id, req.Goal)
	})
	return err
}

// RemoveAgent deletes one of the player's agents.
func (s *Session) RemoveAgent(player *models.Player, req network.RemoveAgentPayload) error {
	id, err := uuid.Parse(req.AgentID)
	if err != nil {
		return fmt.Errorf("%w: agent id: %v", errBadRequest, err)
	}
	s.Do(func(w *simulation.World) {
		a, ok := w.Agent(id)
		if !ok {
			err = fmt.Errorf("%w: %s", simulation.ErrUnknownAgent, id)
			return
		}
		if a.Owner != player.ID {
			err = errNotPermitted
			return
		}
		err = w.Remove(id)
	})
	return err
}

// EditMap applies a map edit and returns the change to broadcast.
func (s *Session) EditMap(req network.EditMapPayload) (network.MapChangedPayload, error) {
	var (
		out network.MapChangedPayload
		err error
	)
	s.Do(func(w *simulation.World) {
		err = applyEdit(w.Map(), req)
		if err != nil {
			return
		}
		out = network.MapChangedPayload{
			Pos:      req.Pos,
			Symbol:   string(w.Map().Symbol(req.Pos)),
			Revision: w.Map().Revision(),
		}
	})
	return out, err
}

func applyEdit(gm *gamemap.GameMap, req network.EditMapPayload) error {
	if req.Terrain != "" {
		if err := gm.SetTerrain(req.Pos, gamemap.Terrain(req.Terrain)); err != nil {
			return err
		}
	}
	if req.Object != "" {
		o, ok := gamemap.ParseObject(req.Object)
		if !ok {
			return fmt.Errorf("%w: object %q", gamemap.ErrUnknownValue, req.Object)
		}
		if err := gm.SetObject(req.Pos, o); err != nil {
			return err
		}
	}
	if req.Road == "" && req.Barrier == nil {
		return nil
	}
	if req.Dir == nil {
		return fmt.Errorf("%w: edge edit without direction", errBadRequest)
	}
	if req.Road != "" {
		r, ok := gamemap.ParseRoad(req.Road)
		if !ok {
			return fmt.Errorf("%w: road %q", gamemap.ErrUnknownValue, req.Road)
		}
		if err := gm.SetRoad(req.Pos, *req.Dir, r); err != nil {
			return err
		}
	}
	if req.Barrier != nil {
		if err := gm.SetBarrier(req.Pos, *req.Dir, *req.Barrier); err != nil {
			return err
		}
	}
	return nil
}

// MapState returns the whole map.
func (s *Session) MapState() network.MapStatePayload {
	var out network.MapStatePayload
	s.Do(func(w *simulation.World) {
		gm := w.Map()
		out = network.MapStatePayload{
			Width:    gm.Width(),
			Height:   gm.Height(),
			Wrap:     gm.Wraps(),
			Revision: gm.Revision(),
			Layout:   gm.Layout(),
		}
	})
	return out
}

// DebugRoute searches a route and returns it together with the start
// point, for rendering.
func (s *Session) DebugRoute(ctx context.Context, kind routing.Kind, start, dest hex.Axial) (pathfinding.Result, bool, error) {
	_, span := tracer.Start(ctx, "session.DebugRoute", trace.WithAttributes(attribute.String("kind", string(kind))))
	defer span.End()

	var (
		res pathfinding.Result
		ok  bool
		err error
	)
	s.Do(func(w *simulation.World) {
		if err = checkEndpoints(w.Map(), start, dest); err != nil {
			return
		}
		res, ok = search(w, kind, start, dest, false, false)
	})
	return res, ok, err
}

func agentView(a *simulation.Agent) models.AgentView {
	v := models.AgentView{
		ID:        a.ID.String(),
		Owner:     a.Owner,
		Kind:      string(a.Kind),
		State:     string(a.State),
		Pos:       a.Pos,
		Remaining: a.Remaining(),
	}
	if a.HasGoal {
		goal := a.Goal
		v.Goal = &goal
	}
	return v
}

func agentEventPayload(w *simulation.World, e simulation.Event) network.AgentEventPayload {
	out := network.AgentEventPayload{Event: e.Type.String(), Frame: e.Frame, Data: e.Data}
	if a, ok := w.Agent(e.AgentID); ok {
		out.Agent = agentView(a)
	} else {
		out.Agent = models.AgentView{ID: e.AgentID.String(), Owner: e.Owner, Pos: e.Pos}
	}
	return out
}
