package writebuffer

import (
	"encoding/binary"
	"math"

	shp "github.com/jonas-p/go-shp"
)

// LoadBBoxesFromShapefile reads every shape's bounding box out of a
// shapefile and turns it into an Entry, letting tests and callers seed an
// R-tree/Hilbert R-tree with realistic spatial data instead of synthetic
// bboxes only. Each entry's payload is minX,minY,maxX,maxY as big-endian
// float64s; its pointer is the shapefile's record number.
func LoadBBoxesFromShapefile(path string) ([]*Entry, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var out []*Entry
	for reader.Next() {
		n, shape := reader.Shape()
		box := shape.BBox()
		data := make([]byte, 32)
		binary.BigEndian.PutUint64(data[0:8], math.Float64bits(box.MinX))
		binary.BigEndian.PutUint64(data[8:16], math.Float64bits(box.MinY))
		binary.BigEndian.PutUint64(data[16:24], math.Float64bits(box.MaxX))
		binary.BigEndian.PutUint64(data[24:32], math.Float64bits(box.MaxY))
		out = append(out, &Entry{Ptr: Pointer(n), Data: data})
	}
	return out, nil
}

// DecodeBBox reverses the encoding LoadBBoxesFromShapefile produces.
func DecodeBBox(e *Entry) (minX, minY, maxX, maxY float64) {
	minX = math.Float64frombits(binary.BigEndian.Uint64(e.Data[0:8]))
	minY = math.Float64frombits(binary.BigEndian.Uint64(e.Data[8:16]))
	maxX = math.Float64frombits(binary.BigEndian.Uint64(e.Data[16:24]))
	maxY = math.Float64frombits(binary.BigEndian.Uint64(e.Data[24:32]))
	return
}
