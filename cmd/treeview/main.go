// Command treeview shows the syntax tree of a source file in a window.
// Drag or use the arrow keys to pan, scroll or press +/- to zoom.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"milang/pkg/compiler"
	"milang/pkg/treeimg"
	"milang/pkg/utils"
)

const (
	screenW  = 1024
	screenH  = 768
	panStep  = 8
	minZoom  = 0.25
	maxZoom  = 4
	zoomStep = 1.1
)

type Game struct {
	treeImg *ebiten.Image
	nodes   int
	title   string

	view     viewport
	dragging bool
	lastX    int
	lastY    int
}

// viewport is the pan offset and zoom factor applied to the tree image.
type viewport struct {
	X, Y float64
	Zoom float64
}

func (v *viewport) zoomAt(factor, cx, cy float64) {
	z := v.Zoom * factor
	if z < minZoom {
		z = minZoom
	}
	if z > maxZoom {
		z = maxZoom
	}
	// Keep the point under the cursor fixed.
	v.X = cx - (cx-v.X)*z/v.Zoom
	v.Y = cy - (cy-v.Y)*z/v.Zoom
	v.Zoom = z
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.view.X += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.view.X -= panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.view.Y += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.view.Y -= panStep
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) {
		g.view = viewport{Zoom: 1}
	}

	cx, cy := ebiten.CursorPosition()
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.view.zoomAt(zoomStep, float64(cx), float64(cy))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.view.zoomAt(1/zoomStep, float64(cx), float64(cy))
	}
	if _, wy := ebiten.Wheel(); wy > 0 {
		g.view.zoomAt(zoomStep, float64(cx), float64(cy))
	} else if wy < 0 {
		g.view.zoomAt(1/zoomStep, float64(cx), float64(cy))
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.view.X += float64(cx - g.lastX)
			g.view.Y += float64(cy - g.lastY)
		}
		g.dragging = true
		g.lastX, g.lastY = cx, cy
	} else {
		g.dragging = false
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(g.view.Zoom, g.view.Zoom)
	op.GeoM.Translate(g.view.X, g.view.Y)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.treeImg, op)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %d nodes  zoom %.0f%%", g.title, g.nodes, g.view.Zoom*100), 4, screenH-16)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: treeview <source file>")
	}
	file, err := utils.ReadSource(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	prog, err := compiler.ParseSource(file.Text)
	if err != nil {
		log.Fatalf("Parsing failed: %v", err)
	}
	tree := treeimg.FromProgram(prog)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("milang syntax tree: " + file.Base)

	game := &Game{
		treeImg: ebiten.NewImageFromImage(treeimg.Render(tree, treeimg.Options{Scale: 1})),
		nodes:   tree.Count(),
		title:   file.Base,
		view:    viewport{Zoom: 1},
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
