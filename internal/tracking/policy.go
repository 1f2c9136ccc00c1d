package tracking

import (
	"math"
	"strings"
	"time"

	"backend-tripline/internal/config"
	"backend-tripline/internal/db"
	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"
)

// RejectRule chooses how the distance and interval thresholds combine.
type RejectRule string

const (
	// RejectWhenBoth drops a candidate only if it is both too close and too soon.
	RejectWhenBoth RejectRule = "both"
	// RejectWhenEither drops a candidate if it is too close or too soon.
	RejectWhenEither RejectRule = "either"
)

// BulkReference chooses the prior each batch candidate is compared with.
type BulkReference string

const (
	// BulkCommitted compares every candidate with the latest sample stored before the batch.
	BulkCommitted BulkReference = "committed"
	// BulkRolling compares each candidate with the last one admitted in the same batch.
	BulkRolling BulkReference = "rolling"
)

type Policy struct {
	MinDistanceMeters     float64
	MinInterval           time.Duration
	MaxReasonableSpeedKmh float64
	RejectWhen            RejectRule
	BulkReference         BulkReference
}

func DefaultPolicy() Policy {
	return Policy{
		MinDistanceMeters:     10,
		MinInterval:           30 * time.Second,
		MaxReasonableSpeedKmh: 200,
		RejectWhen:            RejectWhenBoth,
		BulkReference:         BulkCommitted,
	}
}

// PolicyFromConfig builds a Policy from the admission settings, keeping the
// defaults for anything unset.
func PolicyFromConfig(cfg config.Admission) Policy {
	p := DefaultPolicy()
	if cfg.MinDistanceMeters > 0 {
		p.MinDistanceMeters = cfg.MinDistanceMeters
	}
	if cfg.MinInterval > 0 {
		p.MinInterval = cfg.MinInterval
	}
	if cfg.MaxSpeedKmh > 0 {
		p.MaxReasonableSpeedKmh = cfg.MaxSpeedKmh
	}
	if RejectRule(strings.ToLower(cfg.RejectWhen)) == RejectWhenEither {
		p.RejectWhen = RejectWhenEither
	}
	if BulkReference(strings.ToLower(cfg.BulkReference)) == BulkRolling {
		p.BulkReference = BulkRolling
	}
	return p
}

// Validate rejects candidates without a usable coordinate, with negative
// accuracy or speed, or with a timestamp the stores cannot encode.
func (p Policy) Validate(c SampleCandidate) error {
	if c.Lat == nil || c.Lng == nil {
		return apperror.Invalid("latitude and longitude are required")
	}
	coord := geo.Coordinate{Lat: *c.Lat, Lng: *c.Lng}
	if !coord.Valid() {
		return apperror.Invalid("coordinate (%v, %v) out of range", coord.Lat, coord.Lng)
	}
	if c.AccuracyMeters != nil && (*c.AccuracyMeters < 0 || math.IsNaN(*c.AccuracyMeters)) {
		return apperror.Invalid("accuracy must be non-negative")
	}
	if c.SpeedMps != nil && (*c.SpeedMps < 0 || math.IsNaN(*c.SpeedMps)) {
		return apperror.Invalid("speed must be non-negative")
	}
	if !c.Timestamp.IsZero() && !db.SQLiteTimeRepresentable(c.Timestamp) {
		return apperror.Invalid("timestamp %s out of range", c.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// Resolve validates a candidate and turns it into an unsaved Sample. A zero
// timestamp is replaced by now.
func (p Policy) Resolve(tripID string, c SampleCandidate, now time.Time) (Sample, error) {
	if err := p.Validate(c); err != nil {
		return Sample{}, err
	}
	at := c.Timestamp
	if at.IsZero() {
		at = now
	}
	return Sample{
		TripID:         tripID,
		At:             at,
		Coordinate:     geo.Coordinate{Lat: *c.Lat, Lng: *c.Lng},
		AccuracyMeters: c.AccuracyMeters,
		SpeedMps:       c.SpeedMps,
		LocationName:   c.LocationName,
	}, nil
}

// Unreasonable reports a reported speed above the plausibility ceiling. It
// never causes a rejection.
func (p Policy) Unreasonable(s Sample) bool {
	kmh := s.SpeedKmh()
	return kmh != nil && *kmh > p.MaxReasonableSpeedKmh
}

type Decision struct {
	Admit          bool
	HasPrior       bool
	DistanceMeters float64
	Interval       time.Duration
}

// Decide compares s with the prior admitted sample. The first sample of a
// trip is always admitted.
func (p Policy) Decide(prior *Sample, s Sample) Decision {
	if prior == nil {
		return Decision{Admit: true}
	}

	d := Decision{
		HasPrior:       true,
		DistanceMeters: geo.DistanceMeters(prior.Coordinate, s.Coordinate),
		Interval:       s.At.Sub(prior.At),
	}
	if d.Interval < 0 {
		d.Interval = -d.Interval
	}

	tooClose := d.DistanceMeters < p.MinDistanceMeters
	tooSoon := d.Interval < p.MinInterval
	if p.RejectWhen == RejectWhenEither {
		d.Admit = !(tooClose || tooSoon)
	} else {
		d.Admit = !(tooClose && tooSoon)
	}
	return d
}

// AdmitBatch filters an ordered batch. committed is the latest stored sample
// before the batch, or nil.
func (p Policy) AdmitBatch(committed *Sample, batch []Sample) (admitted []Sample, skipped int) {
	ref := committed
	for _, s := range batch {
		if !p.Decide(ref, s).Admit {
			skipped++
			continue
		}
		admitted = append(admitted, s)
		if p.BulkReference == BulkRolling {
			last := s
			ref = &last
		}
	}
	return admitted, skipped
}
