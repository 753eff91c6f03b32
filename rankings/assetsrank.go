package rankings

import (
	"context"
	"strconv"

	"jianshukit/lib/clientpool"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
	"jianshukit/resources"
)

type RankedUserInfo struct {
	ID     int64
	Slug   string
	Name   string
	Avatar string
}

func (i RankedUserInfo) ToUserObj() *resources.User {
	return resources.NewTrustedUser(i.Slug, i.ID)
}

// AssetsRankItem is one row of the assets leaderboard. User is nil for
// deactivated accounts the site still ranks.
type AssetsRankItem struct {
	Ranking int64
	Assets  float64
	User    *RankedUserInfo
}

func (i *AssetsRankItem) Validate() error {
	return schema.First(
		schema.PositiveInt("AssetsRankItem.Ranking", i.Ranking),
		schema.NonNegativeFloat("AssetsRankItem.Assets", i.Assets),
	)
}

type AssetsRank struct{}

type IterAssetsRankOptions struct {
	// StartRanking is 1-indexed; the wire's since_id is the ranking
	// minus one.
	StartRanking int64
	PageSize     int
}

func (AssetsRank) Iter(opts IterAssetsRankOptions) *paging.Iterator[*AssetsRankItem] {
	sinceID := opts.StartRanking - 1
	if sinceID < 0 {
		sinceID = 0
	}
	count := opts.PageSize
	if count <= 0 {
		count = 20
	}

	return paging.New(func(ctx context.Context) ([]*AssetsRankItem, error) {
		ctx, span := tracer.Start(ctx, "assetsrank:page")
		defer span.End()

		var raw struct {
			Rankings []struct {
				Ranking int64 `json:"ranking"`
				Amount  int64 `json:"amount"`
				User    *struct {
					ID       int64  `json:"id"`
					Slug     string `json:"slug"`
					Nickname string `json:"nickname"`
					Avatar   string `json:"avatar"`
				} `json:"user"`
			} `json:"rankings"`
		}
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/asimov/fp_rankings",
			map[string]string{
				"since_id": strconv.FormatInt(sinceID, 10),
				"max_id":   strconv.FormatInt(sinceID+int64(count), 10),
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}

		out := make([]*AssetsRankItem, 0, len(raw.Rankings))
		for _, row := range raw.Rankings {
			item := &AssetsRankItem{
				Ranking: row.Ranking,
				Assets:  normalize.AssetsAmount(row.Amount),
			}
			if row.User != nil {
				item.User = &RankedUserInfo{
					ID:     row.User.ID,
					Slug:   row.User.Slug,
					Name:   row.User.Nickname,
					Avatar: row.User.Avatar,
				}
			}
			if err := schema.Validate(item); err != nil {
				return nil, err
			}
			sinceID = row.Ranking
			out = append(out, item)
		}
		return out, nil
	})
}
