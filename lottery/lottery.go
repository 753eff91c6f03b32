// Package lottery fetches the host site's lottery winner feed.
package lottery

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"jianshukit/lib/clientpool"
	"jianshukit/lib/normalize"
	"jianshukit/lib/schema"
	"jianshukit/resources"
)

var tracer = otel.Tracer("jianshukit/lottery")

type WinRecord struct {
	ID        int64
	Time      time.Time
	PrizeName string
	UserSlug  string
	UserName  string
}

func (r *WinRecord) Validate() error {
	return schema.First(
		schema.PositiveInt("WinRecord.ID", r.ID),
		schema.NormalizedTime("WinRecord.Time", r.Time),
		schema.NonEmptyStr("WinRecord.PrizeName", r.PrizeName),
		schema.NonEmptyStr("WinRecord.UserSlug", r.UserSlug),
		schema.UserName("WinRecord.UserName", r.UserName),
	)
}

func (r *WinRecord) ToUserObj() *resources.User {
	return resources.NewTrustedUser(r.UserSlug, 0)
}

type Lottery struct{}

// WinRecords pulls the most recent winners, newest first. The endpoint
// serves a single count-limited list, not a paged stream.
func (Lottery) WinRecords(ctx context.Context, count int) ([]*WinRecord, error) {
	if count <= 0 {
		count = 50
	}
	ctx, span := tracer.Start(ctx, "lottery:WinRecords")
	defer span.End()

	var raw []struct {
		ID        int64  `json:"id"`
		CreatedAt int64  `json:"created_at"`
		Name      string `json:"name"`
		User      struct {
			Slug     string `json:"slug"`
			Nickname string `json:"nickname"`
		} `json:"user"`
	}
	err := clientpool.GetJSON(
		ctx, clientpool.Get().API,
		"/asimov/ad_rewards/winner_list",
		map[string]string{"count": strconv.Itoa(count)},
		&raw,
	)
	if err != nil {
		return nil, err
	}

	out := make([]*WinRecord, 0, len(raw))
	for _, row := range raw {
		winTime, err := normalize.Time(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		record := &WinRecord{
			ID:        row.ID,
			Time:      winTime,
			PrizeName: row.Name,
			UserSlug:  row.User.Slug,
			UserName:  row.User.Nickname,
		}
		if err := schema.Validate(record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
