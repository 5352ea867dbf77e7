package simplify

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/collisionsimplify/spatialmath"
	"go.viam.com/collisionsimplify/utils"
)

// volumeTieTolerance is the relative difference below which two primitive volumes are considered equal.
const volumeTieTolerance = 1e-9

// Fit is a fitted primitive tagged with its kind.
type Fit struct {
	Kind     Kind
	Geometry spatialmath.Geometry
}

// Selection is the outcome of comparing fitted primitives.
type Selection struct {
	Fit
	Volume float64
}

// SelectSmallest returns the fit with the smallest volume. Every fit whose volume is within a relative
// tolerance of 1e-9 of the minimum ties with it, and ties go to box, then cylinder, then sphere. The result
// does not depend on the order of fits.
func SelectSmallest(fits []Fit) (Selection, error) {
	if len(fits) == 0 {
		return Selection{}, newError(NumericInstability, errors.New("no fitted primitives to compare"))
	}
	volumes := make([]float64, len(fits))
	minVolume := math.Inf(1)
	for i, fit := range fits {
		if fit.Geometry == nil || !fit.Kind.IsPrimitive() {
			return Selection{}, newError(UnsupportedPolicy, errors.Errorf("cannot compare %s fit", fit.Kind))
		}
		vol := fit.Geometry.Volume()
		if !utils.IsFinite(vol) {
			return Selection{}, newError(NumericInstability, errNonFinite(fit.Kind.String()+" volume"))
		}
		volumes[i] = vol
		minVolume = math.Min(minVolume, vol)
	}

	bestIdx := -1
	for i, fit := range fits {
		vol := volumes[i]
		if vol > minVolume && !utils.Float64RelativelyEqual(vol, minVolume, volumeTieTolerance) {
			continue
		}
		if bestIdx < 0 || fit.Kind < fits[bestIdx].Kind ||
			(fit.Kind == fits[bestIdx].Kind && vol < volumes[bestIdx]) {
			bestIdx = i
		}
	}
	return Selection{Fit: fits[bestIdx], Volume: volumes[bestIdx]}, nil
}

// volumeRatio is the result volume over the mesh's enclosed volume, known only when the mesh encloses a
// positive volume.
func volumeRatio(volume, meshVolume float64) (float64, bool) {
	if meshVolume <= 0 || !utils.IsFinite(meshVolume) {
		return 0, false
	}
	return volume / meshVolume, true
}
