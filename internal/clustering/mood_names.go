package clustering

// Centroid thresholds. Values at a threshold count as low.
const (
	highEnergyMin  = 0.6
	highValenceMin = 0.5
	acousticMin    = 0.6
	fastTempoMin   = 0.7 // 140 BPM after NormalizeTempo
)

type moodQuadrant struct {
	name        string
	description string
}

// moodQuadrants is indexed by [high energy][high valence].
var moodQuadrants = [2][2]moodQuadrant{
	{
		{"Reflective & Melancholy", "Contemplative and introspective, for quiet moments"},
		{"Chill & Happy", "Relaxed and uplifting, good for unwinding"},
	},
	{
		{"Intense & Dark", "Driving energy with darker emotional tones"},
		{"Upbeat Party", "High-energy and positive, made for dancing"},
	},
}

// describeMood names a centroid after its energy/valence quadrant.
// Strongly acoustic clusters get an "(Acoustic)" suffix, otherwise fast ones
// get "(Fast)".
func describeMood(centroid map[string]float32) (name, description string) {
	q := moodQuadrants[boolIndex(centroid["energy"] > highEnergyMin)][boolIndex(centroid["valence"] > highValenceMin)]

	name = q.name
	switch {
	case centroid["acousticness"] > acousticMin:
		name += " (Acoustic)"
	case centroid["tempo"] > fastTempoMin:
		name += " (Fast)"
	}
	return name, q.description
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
