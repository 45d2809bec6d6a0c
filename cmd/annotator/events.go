package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/editor"
)

// describeEvent renders an editor notification as one line of text.
func describeEvent(ev editor.Event) string {
	switch ev := ev.(type) {
	case annotation.Created:
		return fmt.Sprintf("%s %s", ev.Name(), describeAnnotation(ev.Annotation))
	case annotation.Selected:
		return fmt.Sprintf("%s %s", ev.Name(), ev.Annotation.ID)
	case annotation.Deleted:
		return fmt.Sprintf("%s %s", ev.Name(), ev.ID)
	case annotation.Imported:
		return fmt.Sprintf("%s %d", ev.Name(), len(ev.Annotations))
	case editor.Exported:
		return fmt.Sprintf("%s %d", ev.Name(), len(ev.Document.Annotations))
	case editor.ToolChanged:
		return fmt.Sprintf("%s %s -> %s", ev.Name(), ev.From, ev.To)
	case editor.ImageClick:
		where := "outside"
		if ev.Inside {
			where = "inside"
		}
		return fmt.Sprintf("%s %g,%g %s x%d", ev.Name(), ev.Content.X, ev.Content.Y, where, ev.Count)
	}
	return ev.Name()
}

// describeAnnotation summarises an annotation as "id kind bounds". Labels
// are given by their baseline anchor instead.
func describeAnnotation(a annotation.Annotation) string {
	if t, ok := a.Shape.(annotation.Text); ok {
		return fmt.Sprintf("%s %s %g,%g %q", a.ID, a.Kind(), t.X, t.Y, t.Text)
	}
	b := a.Shape.Bounds()
	return fmt.Sprintf("%s %s %g,%g %gx%g", a.ID, a.Kind(), b.Min.X, b.Min.Y, b.Dx(), b.Dy())
}

// eventPrinter returns an editor listener writing one line per event.
func eventPrinter(w io.Writer) func(editor.Event) {
	return func(ev editor.Event) {
		fmt.Fprintln(w, "event:", describeEvent(ev))
	}
}

// kindSummary counts annotations per kind, e.g. "rect 2, text 1".
func kindSummary(anns []annotation.Annotation) string {
	counts := make(map[annotation.Kind]int)
	for _, a := range anns {
		counts[a.Kind()]++
	}
	var parts []string
	for _, k := range []annotation.Kind{annotation.KindRect, annotation.KindEllipse, annotation.KindPolygon, annotation.KindText} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", k, n))
		}
	}
	return strings.Join(parts, ", ")
}
