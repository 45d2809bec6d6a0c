package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/annotator/internal/geom"
)

// ErrInvalidDocument marks an import payload that could not be applied.
var ErrInvalidDocument = errors.New("invalid annotation document")

// TimestampLayout is the millisecond ISO-8601 layout used for exports.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Document is the exchange form of the store.
type Document struct {
	Image       *string  `json:"image"`
	Annotations []Record `json:"annotations"`
	Timestamp   string   `json:"timestamp"`
}

// Record is one exported annotation. Data holds the kind specific geometry.
type Record struct {
	ID    string      `json:"id"`
	Type  Kind        `json:"type"`
	Style RecordStyle `json:"style"`
	Data  any         `json:"data"`
}

// RecordStyle is the exported form of Style.
type RecordStyle struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor"`
}

type pointData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type rectData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ellipseData struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
}

type polygonData struct {
	Points []pointData `json:"points"`
}

type textData struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// RecordOf converts an annotation to its exchange record.
func RecordOf(a Annotation) Record {
	r := Record{
		ID:   a.ID,
		Type: a.Kind(),
		Style: RecordStyle{
			StrokeColor: a.Style.StrokeColor,
			StrokeWidth: a.Style.StrokeWidth,
			FillColor:   a.Style.FillColor,
		},
	}
	switch sh := a.Shape.(type) {
	case Rect:
		r.Data = rectData{X: sh.X, Y: sh.Y, Width: sh.Width, Height: sh.Height}
	case Ellipse:
		r.Data = ellipseData{CX: sh.CX, CY: sh.CY, RX: sh.RX, RY: sh.RY}
	case Polygon:
		pts := make([]pointData, len(sh.Points))
		for i, p := range sh.Points {
			pts[i] = pointData{X: p.X, Y: p.Y}
		}
		r.Data = polygonData{Points: pts}
	case Text:
		r.Data = textData{X: sh.X, Y: sh.Y, Text: sh.Text}
	}
	return r
}

// Export snapshots the store. image is nil when no image is loaded.
func (s *Store) Export(image *string, now time.Time) Document {
	doc := Document{
		Annotations: make([]Record, len(s.items)),
		Timestamp:   now.UTC().Format(TimestampLayout),
	}
	if image != nil {
		ref := *image
		doc.Image = &ref
	}
	for i, a := range s.items {
		doc.Annotations[i] = RecordOf(a)
	}
	return doc
}

// MarshalDocument encodes doc as indented JSON.
func MarshalDocument(doc Document) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("strokeWidth %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type wireDocument struct {
	Image       *string           `json:"image"`
	Annotations []json.RawMessage `json:"annotations"`
	Timestamp   string            `json:"timestamp"`
}

type wireStyle struct {
	StrokeColor *string    `json:"strokeColor"`
	StrokeWidth *flexFloat `json:"strokeWidth"`
	FillColor   *string    `json:"fillColor"`
}

type wireRecord struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Style *wireStyle      `json:"style"`
	Data  json.RawMessage `json:"data"`
}

// Decoded is a validated import payload.
type Decoded struct {
	Image       *string
	Annotations []Annotation
	Timestamp   string
}

// Decode parses and validates a document. Missing or empty style fields are
// taken from defaults; a zero stroke width also falls back. Records without
// an id get one from newID.
func Decode(data []byte, defaults Style, newID func() string) (Decoded, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Annotations == nil {
		return Decoded{}, fmt.Errorf("%w: missing annotations array", ErrInvalidDocument)
	}
	out := Decoded{Image: doc.Image, Timestamp: doc.Timestamp}
	seen := make(map[string]bool, len(doc.Annotations))
	for i, raw := range doc.Annotations {
		a, err := decodeRecord(raw, defaults)
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: annotation %d: %v", ErrInvalidDocument, i, err)
		}
		if a.ID == "" && newID != nil {
			for a.ID == "" || seen[a.ID] {
				a.ID = newID()
			}
		}
		if seen[a.ID] {
			return Decoded{}, fmt.Errorf("%w: annotation %d: duplicate id %q", ErrInvalidDocument, i, a.ID)
		}
		seen[a.ID] = true
		out.Annotations = append(out.Annotations, a)
	}
	return out, nil
}

func decodeRecord(raw json.RawMessage, defaults Style) (Annotation, error) {
	var rec wireRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Annotation{}, err
	}
	if len(rec.Data) == 0 || string(rec.Data) == "null" {
		return Annotation{}, errors.New("missing data")
	}
	shape, err := decodeShape(rec.Type, rec.Data)
	if err != nil {
		return Annotation{}, err
	}
	st := defaults
	if rec.Style != nil {
		if c := rec.Style.StrokeColor; c != nil && *c != "" {
			st.StrokeColor = *c
		}
		if w := rec.Style.StrokeWidth; w != nil && *w != 0 {
			v := float64(*w)
			if v < 0 || !geom.Finite(v) {
				return Annotation{}, fmt.Errorf("bad strokeWidth %v", v)
			}
			st.StrokeWidth = v
		}
		if c := rec.Style.FillColor; c != nil && *c != "" {
			st.FillColor = *c
		}
	}
	return Annotation{ID: rec.ID, Shape: shape, Style: st}, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if !geom.Finite(v) {
			return false
		}
	}
	return true
}

// requireFields fails when any key is absent from the raw object.
func requireFields(data json.RawMessage, keys ...string) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, k := range keys {
		if v, ok := m[k]; !ok || string(v) == "null" {
			return fmt.Errorf("missing %s", k)
		}
	}
	return nil
}

func decodeShape(kind string, data json.RawMessage) (Shape, error) {
	switch Kind(strings.ToLower(kind)) {
	case KindRect, "rectangle":
		if err := requireFields(data, "x", "y", "width", "height"); err != nil {
			return nil, err
		}
		var d rectData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if !finite(d.X, d.Y, d.Width, d.Height) || d.Width < 0 || d.Height < 0 {
			return nil, fmt.Errorf("bad rect %+v", d)
		}
		return Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}, nil
	case KindEllipse:
		if err := requireFields(data, "cx", "cy", "rx", "ry"); err != nil {
			return nil, err
		}
		var d ellipseData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if !finite(d.CX, d.CY, d.RX, d.RY) || d.RX < 0 || d.RY < 0 {
			return nil, fmt.Errorf("bad ellipse %+v", d)
		}
		return Ellipse{CX: d.CX, CY: d.CY, RX: d.RX, RY: d.RY}, nil
	case KindPolygon:
		var d struct {
			Points []map[string]json.RawMessage `json:"points"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if len(d.Points) < 3 {
			return nil, fmt.Errorf("polygon needs 3 points, got %d", len(d.Points))
		}
		pts := make([]geom.Point, len(d.Points))
		for i, m := range d.Points {
			var x, y float64
			if err := decodeCoord(m, "x", &x); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			if err := decodeCoord(m, "y", &y); err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			pts[i] = geom.Pt(x, y)
		}
		return Polygon{Points: pts}, nil
	case KindText:
		if err := requireFields(data, "x", "y", "text"); err != nil {
			return nil, err
		}
		var d textData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if !finite(d.X, d.Y) {
			return nil, fmt.Errorf("bad text anchor %+v", d)
		}
		if strings.TrimSpace(d.Text) == "" {
			return nil, errors.New("empty text")
		}
		return Text{X: d.X, Y: d.Y, Text: d.Text}, nil
	}
	return nil, fmt.Errorf("unknown type %q", kind)
}

func decodeCoord(m map[string]json.RawMessage, key string, dst *float64) error {
	raw, ok := m[key]
	if !ok {
		return fmt.Errorf("missing %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !finite(*dst) {
		return fmt.Errorf("%s not finite", key)
	}
	return nil
}

// Import replaces the store contents with the annotations in data. On error
// the store is left untouched and the error wraps ErrInvalidDocument.
func (s *Store) Import(data []byte) (Decoded, error) {
	dec, err := Decode(data, s.defaults, s.newID)
	if err != nil {
		return Decoded{}, err
	}
	s.replace(dec.Annotations)
	return dec, nil
}
