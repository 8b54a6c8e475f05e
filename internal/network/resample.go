package network

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Resample coarsens the snapshot index to buckets of the given width in
// hours. Snapshots falling into the same bucket collapse into one labelled
// with the bucket start; weights add up so the covered span is preserved,
// while every time series value becomes the mean of its bucket.
func (n *Network) Resample(hours int) error {
	if hours <= 0 {
		return fmt.Errorf("resample width must be positive, got %dH", hours)
	}
	if len(n.Snapshots) == 0 {
		return fmt.Errorf("cannot resample a network without snapshots")
	}

	width := time.Duration(hours) * time.Hour
	var (
		starts  []time.Time
		weights []float64
		members [][]int
		index   = map[time.Time]int{}
	)
	for i, snap := range n.Snapshots {
		bucket := snap.Truncate(width)
		j, ok := index[bucket]
		if !ok {
			j = len(starts)
			index[bucket] = j
			starts = append(starts, bucket)
			weights = append(weights, 0)
			members = append(members, nil)
		}
		weights[j] += n.SnapshotWeights[i]
		members[j] = append(members[j], i)
	}

	for _, group := range []SeriesGroup{n.GeneratorsT, n.StorageUnitsT, n.LoadsT, n.LinksT, n.LinesT} {
		for attr, s := range group {
			group[attr] = bucketMeans(s, members)
		}
	}
	n.Snapshots = starts
	n.SnapshotWeights = weights
	return nil
}

// bucketMeans reduces a series to one row per bucket, each the mean of the
// bucket's member rows.
func bucketMeans(s *Series, members [][]int) *Series {
	out := mat.NewDense(len(members), len(s.Columns), nil)
	values := make([]float64, 0, 8)
	for b, rows := range members {
		for c := range s.Columns {
			values = values[:0]
			for _, r := range rows {
				values = append(values, s.Data.At(r, c))
			}
			out.Set(b, c, stat.Mean(values, nil))
		}
	}
	return &Series{Columns: s.Columns, Data: out}
}
