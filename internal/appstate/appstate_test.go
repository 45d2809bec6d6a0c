package appstate

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/overlay"
	"github.com/example/annotator/internal/theme"
	"github.com/example/annotator/internal/tool"
)

func TestDrawCheckerboard(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	light := color.RGBA{255, 255, 255, 255}
	dark := color.RGBA{0, 0, 0, 255}
	drawCheckerboard(img, img.Bounds(), 8, light, dark)
	if img.RGBAAt(0, 0) != light || img.RGBAAt(8, 0) != dark || img.RGBAAt(8, 8) != light {
		t.Fatalf("unexpected pattern: %v %v %v", img.RGBAAt(0, 0), img.RGBAAt(8, 0), img.RGBAAt(8, 8))
	}
}

func TestBackdropRebuildsOnThemeChange(t *testing.T) {
	bd := &backdrop{}
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	bd.draw(dst, color.RGBA{1, 1, 1, 255}, color.RGBA{2, 2, 2, 255})
	first := bd.img
	bd.draw(dst, color.RGBA{1, 1, 1, 255}, color.RGBA{2, 2, 2, 255})
	if bd.img != first {
		t.Fatal("cache rebuilt for identical input")
	}
	bd.draw(dst, color.RGBA{9, 9, 9, 255}, color.RGBA{2, 2, 2, 255})
	if dst.RGBAAt(0, 0) != (color.RGBA{9, 9, 9, 255}) {
		t.Fatalf("light square = %v", dst.RGBAAt(0, 0))
	}
}

func TestToolbarLayout(t *testing.T) {
	var picked []tool.Mode
	bar := newToolbar(theme.Default(), func(m tool.Mode) { picked = append(picked, m) })
	if len(bar) != len(tool.Modes()) {
		t.Fatalf("got %d buttons", len(bar))
	}
	idx := buttonAt(bar, image.Pt(10, buttonHeight*2+5))
	if idx != 2 {
		t.Fatalf("buttonAt = %d, want 2", idx)
	}
	bar[idx].Activate()
	if len(picked) != 1 || picked[0] != tool.Modes()[2] {
		t.Fatalf("picked %v", picked)
	}
	if buttonAt(bar, image.Pt(toolbarWidth+1, 5)) != -1 {
		t.Fatal("hit outside the toolbar")
	}
	if got := toolLabel(tool.DrawRect); got != "X:rect" {
		t.Fatalf("label = %q", got)
	}
}

func TestStatusLine(t *testing.T) {
	if got := statusLine(tool.Select, 1.5, 1, "a1"); got != "select  150%  1 annotation  [a1]" {
		t.Fatalf("status = %q", got)
	}
	if got := statusLine(tool.Pan, 1, 0, ""); got != "pan  100%  0 annotations" {
		t.Fatalf("status = %q", got)
	}
}

func TestComposeFrame(t *testing.T) {
	th := theme.Default()
	th.StatusBackground = color.RGBA{10, 20, 30, 255}
	th.CheckerLight = color.RGBA{250, 250, 250, 255}
	width, height := toolbarWidth+100, 100+statusHeight
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	st := paintState{
		width:   width,
		height:  height,
		theme:   th,
		raster:  overlay.NewRaster(),
		toolbar: newToolbar(th, nil),
		hover:   -1,
		tool:    tool.Pan,
		scene: overlay.Scene{Annotations: []annotation.Annotation{{
			ID:    "a",
			Shape: annotation.Rect{X: 50, Y: 50, Width: 30, Height: 30},
			Style: annotation.Style{StrokeColor: "#0000ff", StrokeWidth: 2, FillColor: "none"},
		}}},
		status: "pan",
	}
	if !composeFrame(context.Background(), dst, &backdrop{}, st) {
		t.Fatal("frame reported cancelled")
	}
	if got := dst.RGBAAt(width-2, height-2); got != th.StatusBackground {
		t.Errorf("status bar pixel = %v", got)
	}
	if got := dst.RGBAAt(toolbarWidth, 0); got != th.CheckerLight {
		t.Errorf("canvas origin pixel = %v", got)
	}
	if got := dst.RGBAAt(toolbarWidth+50, 65); got.B < 200 || got.R > 50 {
		t.Errorf("rect edge pixel = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if composeFrame(ctx, dst, &backdrop{}, st) {
		t.Fatal("cancelled frame reported complete")
	}
}

func TestDefaultOutput(t *testing.T) {
	if got := DefaultOutput("shots/a.png", ""); got != "shots/a.annotations.json" {
		t.Errorf("DefaultOutput = %q", got)
	}
	if got := DefaultOutput("shots/a.png", "/tmp/out"); got != filepath.Join("/tmp/out", "a.annotations.json") {
		t.Errorf("DefaultOutput = %q", got)
	}
}

func TestWriteFileAndImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "doc.json")
	if err := WriteFile(path, []byte(`{"annotations": []}`)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteFile(path, []byte(`{}`)); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "{}" {
		t.Fatalf("read back %q, %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{1, 2, 3, 255})
	png := filepath.Join(dir, "img.png")
	if err := SavePNG(png, img); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	got, err := LoadImage(png)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if r, g, b, _ := got.At(1, 1).RGBA(); r>>8 != 1 || g>>8 != 2 || b>>8 != 3 {
		t.Fatalf("pixel = %v", got.At(1, 1))
	}
}
