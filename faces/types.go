package faces

import "image"

type Detection struct {
	Descriptor []float32
	Score      float64 // Detector confidence in [0, 1]; 1 when the detector has none
	Rect       image.Rectangle
}

// Hints are shown to the user when no face could be found.
var Hints = []string{
	"Enquadre o rosto de frente",
	"Melhore a iluminação",
}

// Largest picks the detection with the biggest bounding box. Ties keep the
// first one.
func Largest(list []Detection) *Detection {
	var best *Detection
	bestArea := -1
	for i := range list {
		size := list[i].Rect.Size()
		if area := size.X * size.Y; area > bestArea {
			best, bestArea = &list[i], area
		}
	}
	return best
}
