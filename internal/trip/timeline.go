package trip

import (
	"strings"

	"backend-tripline/internal/shared/geo"
	"backend-tripline/internal/social"
	"backend-tripline/internal/tracking"
)

// BuildTimeline merges time-ordered samples with the posts attached to each
// of them. postsBySample is keyed by sample id.
func BuildTimeline(samples []tracking.Sample, postsBySample map[int64][]social.PostEvent) Timeline {
	tl := Timeline{Items: make([]TimelineItem, 0, len(samples))}

	var (
		speedSum    float64
		speedPoints int
	)
	for i, s := range samples {
		posts := postsBySample[s.ID]
		if posts == nil {
			posts = []social.PostEvent{}
		}

		item := TimelineItem{
			SampleID:       s.ID,
			Timestamp:      s.At,
			Lat:            s.Lat,
			Lng:            s.Lng,
			LocationName:   locationName(s, posts),
			SpeedKmh:       s.SpeedKmh(),
			AccuracyMeters: s.AccuracyMeters,
			Posts:          posts,
		}
		for _, p := range posts {
			item.PhotoCount += p.MediaCount
		}
		item.IsSignificant = item.PhotoCount > 0

		if i > 0 {
			prev := samples[i-1]
			km := geo.DistanceKm(prev.Coordinate, s.Coordinate)
			secs := int64(s.At.Sub(prev.At).Seconds())
			item.DistanceFromPreviousKm = &km
			item.TimeFromPreviousSeconds = &secs
			tl.Stats.TotalDistanceKm += km
			tl.Stats.TotalDurationSeconds += secs
		}

		if item.SpeedKmh != nil {
			speedSum += *item.SpeedKmh
			speedPoints++
			if *item.SpeedKmh > tl.Stats.MaxSpeedKmh {
				tl.Stats.MaxSpeedKmh = *item.SpeedKmh
			}
		}
		tl.Stats.TotalPhotos += item.PhotoCount
		tl.Items = append(tl.Items, item)
	}

	if speedPoints > 0 {
		tl.Stats.AvgSpeedKmh = speedSum / float64(speedPoints)
	}
	tl.Stats.TotalTrackPoints = len(samples)
	return tl
}

// locationName prefers the sample's own name, then the first post's
// "city, country", city or country.
func locationName(s tracking.Sample, posts []social.PostEvent) *string {
	if s.LocationName != nil && strings.TrimSpace(*s.LocationName) != "" {
		return s.LocationName
	}
	if len(posts) == 0 {
		return nil
	}
	city, country := nonBlank(posts[0].City), nonBlank(posts[0].Country)
	var name string
	switch {
	case city != "" && country != "":
		name = city + ", " + country
	case city != "":
		name = city
	case country != "":
		name = country
	default:
		return nil
	}
	return &name
}

func nonBlank(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return ""
	}
	return *v
}
