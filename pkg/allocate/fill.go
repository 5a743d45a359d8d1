package allocate

import (
	"context"

	"github.com/gnames/gnvision/pkg/record"
)

// Source provides candidate data of one taxon.
type Source interface {
	// Observations returns eligible observations of the taxon clade for a
	// tier.
	Observations(ctx context.Context, tier record.Tier) ([]record.Observation, error)

	// Photos returns eligible photos of the given observations.
	Photos(ctx context.Context, obs []record.Observation) ([]record.ObservationPhoto, error)
}

// Fill runs the community phase and, if maximums are not reached, the
// uncurated phase. Every phase processes shuffled chunks of observations
// and ends with enrichment of train.
func (ws *WorkingSet) Fill(ctx context.Context, src Source) error {
	for _, tier := range []record.Tier{record.Community, record.Uncurated} {
		if ws.HasMaximumData() {
			return nil
		}

		obs, err := src.Observations(ctx, tier)
		if err != nil {
			return err
		}

		ws.BeginPhase(tier)
		for _, chunk := range ws.Chunks(obs) {
			if ws.HasMaximumData() {
				break
			}
			if err = ctx.Err(); err != nil {
				return err
			}

			ws.Sample(chunk)
			if ws.HasMaximumPhotos() {
				continue
			}

			photos, err := src.Photos(ctx, chunk)
			if err != nil {
				return err
			}
			ws.Distribute(photos)
		}

		if !ws.HasMaximumData() {
			ws.Enrich()
		}
	}
	return nil
}
