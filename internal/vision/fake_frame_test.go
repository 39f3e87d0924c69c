// internal/vision/fake_frame_test.go
package vision

import (
	"context"
	"errors"
	"image"
)

type fakeFrame struct {
	bounds   image.Rectangle
	mean     RGB
	clusters []ColorCluster
	segments []Segment
	contours map[ContourMode][]Blob
	calls    int
	closed   bool
}

func newFakeFrame(w, h int) *fakeFrame {
	return &fakeFrame{bounds: image.Rect(0, 0, w, h), contours: map[ContourMode][]Blob{}}
}

func (f *fakeFrame) Bounds() image.Rectangle { return f.bounds }

func (f *fakeFrame) MeanColor(r image.Rectangle) (RGB, bool) {
	f.calls++
	return f.mean, !r.Empty()
}

func (f *fakeFrame) ColorClusters(image.Rectangle, int) []ColorCluster {
	f.calls++
	return f.clusters
}

func (f *fakeFrame) LineSegments(image.Rectangle) []Segment {
	f.calls++
	return f.segments
}

func (f *fakeFrame) Contours(_ image.Rectangle, mode ContourMode) []Blob {
	f.calls++
	return f.contours[mode]
}

func (f *fakeFrame) Annotate(Overlay) ([]byte, error) {
	return []byte{0xFF, 0xD8, 0xFF}, nil
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

type fakeDecoder struct {
	frame *fakeFrame
	err   error
	opts  DecodeOptions
}

func (d *fakeDecoder) Decode(_ []byte, opts DecodeOptions) (Frame, error) {
	d.opts = opts
	if d.err != nil {
		return nil, d.err
	}
	return d.frame, nil
}

type fakeFaces struct {
	boxes []Box
	err   error
	panic bool
}

func (f fakeFaces) DetectFaces(context.Context, Frame, []byte) ([]Box, error) {
	if f.panic {
		panic("cascade exploded")
	}
	return f.boxes, f.err
}

type fakePose struct {
	landmarks *Landmarks
}

func (p fakePose) DetectPose(context.Context, Frame, []byte) (*Landmarks, error) {
	if p.landmarks == nil {
		return nil, errors.New("no body")
	}
	return p.landmarks, nil
}
