package treeimg

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Layout metrics in unscaled pixels.
const (
	padX     = 6
	padY     = 4
	gapX     = 10
	levelGap = 28
	margin   = 12
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	boxFill    = color.RGBA{0xe8, 0xf0, 0xfe, 0xff}
	boxBorder  = color.RGBA{0x3c, 0x5a, 0x99, 0xff}
	edgeColor  = color.RGBA{0x70, 0x70, 0x70, 0xff}
	textColor  = color.RGBA{0x10, 0x10, 0x10, 0xff}
)

var face font.Face = basicfont.Face7x13

type Options struct {
	Scale int // integer pixel scale, values below 1 mean 1
}

// Box is the placement of one node.
type Box struct {
	Node   *Node
	Rect   image.Rectangle
	Depth  int
	Parent int // index into the layout, -1 for the root
}

// Center returns the horizontal middle of the box.
func (b Box) Center() int { return (b.Rect.Min.X + b.Rect.Max.X) / 2 }

func boxSize(label string) (int, int) {
	w := font.MeasureString(face, label).Ceil()
	return w + 2*padX, face.Metrics().Height.Ceil() + 2*padY
}

// Layout places every node of the tree. Each subtree gets a column as wide as
// the wider of its own box and its children side by side; leaves fill
// columns left to right and a parent sits centered over its first and last
// child. The returned size includes the margin.
func Layout(root *Node) ([]Box, image.Point) {
	_, boxH := boxSize("")
	widths := make(map[*Node]int)
	var measure func(*Node) int
	measure = func(n *Node) int {
		w, _ := boxSize(n.Label)
		sum := 0
		for i, ch := range n.Children {
			if i > 0 {
				sum += gapX
			}
			sum += measure(ch)
		}
		w = max(w, sum)
		widths[n] = w
		return w
	}
	total := measure(root)

	var boxes []Box
	var place func(n *Node, left, depth, parent int) int
	place = func(n *Node, left, depth, parent int) int {
		idx := len(boxes)
		boxes = append(boxes, Box{Node: n, Depth: depth, Parent: parent})

		center := left + widths[n]/2
		if len(n.Children) > 0 {
			sum := (len(n.Children) - 1) * gapX
			for _, ch := range n.Children {
				sum += widths[ch]
			}
			x := left + (widths[n]-sum)/2
			first, last := 0, 0
			for i, ch := range n.Children {
				c := place(ch, x, depth+1, idx)
				if i == 0 {
					first = c
				}
				last = c
				x += widths[ch] + gapX
			}
			center = (first + last) / 2
		}

		w, _ := boxSize(n.Label)
		// Keep the box inside its own column.
		center = min(max(center, left+w/2), left+widths[n]-w+w/2)
		y := margin + depth*(boxH+levelGap)
		boxes[idx].Rect = image.Rect(center-w/2, y, center-w/2+w, y+boxH)
		return center
	}
	place(root, margin, 0, -1)

	size := image.Pt(total+2*margin, root.Depth()*(boxH+levelGap)-levelGap+2*margin)
	return boxes, size
}

// Render draws the tree.
func Render(root *Node, opts Options) *image.RGBA {
	boxes, size := Layout(root)
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	edges := vector.NewRasterizer(size.X, size.Y)
	for _, b := range boxes {
		if b.Parent < 0 {
			continue
		}
		p := boxes[b.Parent]
		strokeLine(edges, float32(p.Center()), float32(p.Rect.Max.Y), float32(b.Center()), float32(b.Rect.Min.Y))
	}
	edges.Draw(img, img.Bounds(), image.NewUniform(edgeColor), image.Point{})

	for _, b := range boxes {
		draw.Draw(img, b.Rect, image.NewUniform(boxBorder), image.Point{}, draw.Src)
		draw.Draw(img, b.Rect.Inset(1), image.NewUniform(boxFill), image.Point{}, draw.Src)
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(textColor),
			Face: face,
			Dot:  fixed.P(b.Rect.Min.X+padX, b.Rect.Min.Y+padY+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(b.Node.Label)
	}

	if opts.Scale <= 1 {
		return img
	}
	scaled := image.NewRGBA(image.Rect(0, 0, size.X*opts.Scale, size.Y*opts.Scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	return scaled
}

// strokeLine adds a one pixel wide segment to z as a thin quad.
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1 float32) {
	const half = 0.5
	dx, dy := x1-x0, y1-y0
	// Offset along the axis the segment moves least on.
	var ox, oy float32
	if abs(dx) > abs(dy) {
		oy = half
	} else {
		ox = half
	}
	z.MoveTo(x0-ox, y0-oy)
	z.LineTo(x1-ox, y1-oy)
	z.LineTo(x1+ox, y1+oy)
	z.LineTo(x0+ox, y0+oy)
	z.ClosePath()
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// EncodePNG renders the tree and writes it as PNG.
func EncodePNG(w io.Writer, root *Node, opts Options) error {
	return png.Encode(w, Render(root, opts))
}

// WritePNG renders the tree to a PNG file at path.
func WritePNG(path string, root *Node, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, root, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
