package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/gravitas-games/freepath/internal/gamemap"
	"github.com/gravitas-games/freepath/internal/pathfinding"
	"github.com/gravitas-games/freepath/pkg/hex"
)

var terrainStyles = map[gamemap.Terrain]tcell.Style{
	gamemap.Plains:   tcell.StyleDefault.Foreground(tcell.ColorGreen),
	gamemap.Forest:   tcell.StyleDefault.Foreground(tcell.ColorDarkGreen),
	gamemap.Mountain: tcell.StyleDefault.Foreground(tcell.ColorGray),
	gamemap.Desert:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
	gamemap.Snow:     tcell.StyleDefault.Foreground(tcell.ColorWhite),
	gamemap.Swamp:    tcell.StyleDefault.Foreground(tcell.ColorOlive),
	gamemap.Water:    tcell.StyleDefault.Foreground(tcell.ColorBlue),
	gamemap.Lava:     tcell.StyleDefault.Foreground(tcell.ColorRed),
}

// screenPos places hex rows shifted by half a hex each, so the axial
// parallelogram looks like a hex grid.
func screenPos(p hex.Axial) (int, int) {
	return 2*p.Q + p.R, p.R
}

func (v *viewer) put(p hex.Axial, ch rune, style tcell.Style) {
	x, y := screenPos(p)
	v.screen.SetContent(x, y, ch, nil, style)
}

func (v *viewer) draw() {
	v.screen.Clear()
	gm := v.world.Map()

	for idx := 0; idx < gm.Size(); idx++ {
		p := gm.Point(idx)
		style, ok := terrainStyles[gm.Terrain(p)]
		if !ok {
			style = tcell.StyleDefault
		}
		v.put(p, gm.Symbol(p), style)
		if gm.Barrier(p, hex.East) && gm.Contains(gm.Neighbor(p, hex.East)) {
			x, y := screenPos(p)
			v.screen.SetContent(x+1, y, '|', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
		}
	}

	if v.start != nil && len(v.route) > 0 {
		routeStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
		for _, p := range pathfinding.Walk(gm, *v.start, v.route) {
			v.put(p, '•', routeStyle)
		}
		if v.checked != nil && !v.checked.Valid {
			v.put(v.checked.End, 'X', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
		}
	}
	if v.start != nil {
		v.put(*v.start, 'S', tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true))
	}
	if v.goal != nil {
		v.put(*v.goal, 'G', tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true))
	}
	for _, a := range v.world.Agents() {
		v.put(a.Pos, '@', tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true))
	}

	x, y := screenPos(v.cursor)
	ch, _, style, _ := v.screen.GetContent(x, y)
	v.screen.SetContent(x, y, ch, nil, style.Reverse(true))

	v.drawText(0, gm.Height()+1, string(kinds[v.kind])+"  "+v.status)
	v.screen.Show()
}

func (v *viewer) drawText(x, y int, text string) {
	for i, ch := range []rune(text) {
		v.screen.SetContent(x+i, y, ch, nil, tcell.StyleDefault)
	}
}
