package trip

import (
	"strings"

	"backend-tripline/internal/shared/geo"
	"backend-tripline/internal/social"
	"backend-tripline/internal/tracking"
)

// Mode is a transport classification derived from reported speed.
type Mode string

const (
	Walking Mode = "Walking"
	Biking  Mode = "Biking"
	Driving Mode = "Driving"
	Flying  Mode = "Flying"
)

// minBucketKm hides modes covering a negligible distance.
const minBucketKm = 0.1

// Classify buckets a speed in km/h. Thresholds are lower-inclusive.
func Classify(speedKmh float64) Mode {
	switch {
	case speedKmh < 6:
		return Walking
	case speedKmh < 25:
		return Biking
	case speedKmh < 150:
		return Driving
	default:
		return Flying
	}
}

// Segments returns the legs between consecutive samples. A leg takes the
// mode of its destination sample; legs into a sample without speed have no
// mode.
func Segments(samples []tracking.Sample) []Segment {
	if len(samples) < 2 {
		return []Segment{}
	}
	out := make([]Segment, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		seg := Segment{
			FromSampleID:    prev.ID,
			ToSampleID:      cur.ID,
			DistanceKm:      geo.DistanceKm(prev.Coordinate, cur.Coordinate),
			DurationSeconds: int64(cur.At.Sub(prev.At).Seconds()),
		}
		if kmh := cur.SpeedKmh(); kmh != nil {
			seg.Mode = Classify(*kmh)
		}
		out = append(out, seg)
	}
	return out
}

// ComputeStats derives the trip statistics from time-ordered samples and the
// trip's posts.
func ComputeStats(samples []tracking.Sample, posts []social.PostEvent) Stats {
	stats := Stats{
		StepsCount:         len(posts),
		TransportBreakdown: map[string]float64{},
	}

	byMode := map[Mode]float64{}
	for _, seg := range Segments(samples) {
		stats.TotalDistanceKm += seg.DistanceKm
		if seg.Mode != "" {
			byMode[seg.Mode] += seg.DistanceKm
		}
	}
	for _, mode := range []Mode{Walking, Biking, Driving, Flying} {
		if km := byMode[mode]; km > minBucketKm {
			stats.TransportBreakdown[string(mode)] = km
		}
	}

	countries := map[string]struct{}{}
	cities := map[string]struct{}{}
	for _, p := range posts {
		if p.Country != nil && strings.TrimSpace(*p.Country) != "" {
			countries[*p.Country] = struct{}{}
		}
		if p.City != nil && strings.TrimSpace(*p.City) != "" {
			cities[*p.City] = struct{}{}
		}
		stats.PhotosCount += p.MediaCount
	}
	stats.CountriesCount = len(countries)
	stats.CitiesCount = len(cities)
	return stats
}
