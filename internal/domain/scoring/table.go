package scoring

import "github.com/okian/tribescore/internal/domain/model"

// tableBuilder accumulates per-episode deltas. Rows grow by append only.
type tableBuilder struct {
	deltas model.ScoreTable
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{deltas: model.NewScoreTable()}
}

// add credits points to name in bucket at episode ep.
func (b *tableBuilder) add(bucket model.Bucket, name string, ep, points int) {
	row := b.deltas[bucket][name]
	for len(row) <= ep {
		row = append(row, 0)
	}
	row[ep] += points
	b.deltas[bucket][name] = row
}

// Finalize converts per-episode deltas into running totals. Every row of
// the result has length maxEpisode+1, where maxEpisode is taken over all
// buckets; missing episodes count as zero. The input is not modified. A
// table without entities finalizes to an empty table.
func Finalize(deltas model.ScoreTable) model.ScoreTable {
	out := model.NewScoreTable()
	maxEp := deltas.MaxEpisode()
	if maxEp < 0 {
		return out
	}
	for bucket, rows := range deltas {
		if out[bucket] == nil {
			out[bucket] = make(map[string][]int, len(rows))
		}
		for name, row := range rows {
			totals := make([]int, maxEp+1)
			running := 0
			for i := range totals {
				if i < len(row) {
					running += row[i]
				}
				totals[i] = running
			}
			out[bucket][name] = totals
		}
	}
	return out
}
