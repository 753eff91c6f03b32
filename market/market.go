// Package market implements the FTN marketplace client: order-book
// traversal and the platform's trading settings, both served by the
// market site's getList endpoint.
package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

var tracer = otel.Tracer("jianshukit/market")

var errEmptySettings = errors.New("the settings table returned no rows")

const (
	ordersTable   = "furnish.bei"
	settingsTable = "furnish.setting"
)

// OrderSide selects which half of the order book to walk.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

var orderSideWire = map[OrderSide]int{
	OrderSideBuy:  1,
	OrderSideSell: 2,
}

// OrderPublisherInfo identifies the trader behind an order. All fields
// are nil for anonymous orders.
type OrderPublisherInfo struct {
	ID         *int64
	Name       *string
	HashedName *string
	Avatar     *string
}

type OrderRecord struct {
	ID int64
	// Price per FTN in CNY.
	Price           decimal.Decimal
	TotalAmount     int64
	TradedAmount    int64
	RemainingAmount int64
	TradesCount     int64
	PublishTime     time.Time
	PayChannels     []normalize.PayChannel
	IsAnonymous     bool
	Publisher       OrderPublisherInfo
}

func (r *OrderRecord) Validate() error {
	checks := []error{
		schema.PositiveInt("OrderRecord.ID", r.ID),
		schema.PositiveInt("OrderRecord.TotalAmount", r.TotalAmount),
		schema.NonNegativeInt("OrderRecord.TradedAmount", r.TradedAmount),
		schema.NonNegativeInt("OrderRecord.RemainingAmount", r.RemainingAmount),
		schema.NonNegativeInt("OrderRecord.TradesCount", r.TradesCount),
		schema.NormalizedTime("OrderRecord.PublishTime", r.PublishTime),
	}
	if r.Price.Sign() <= 0 {
		checks = append(checks, &apierr.ValidationError{
			Field: "OrderRecord.Price", Reason: "must be > 0",
		})
	}
	if r.IsAnonymous {
		if r.Publisher.ID != nil || r.Publisher.Name != nil || r.Publisher.HashedName != nil {
			checks = append(checks, &apierr.ValidationError{
				Field: "OrderRecord.Publisher", Reason: "must be empty on anonymous orders",
			})
		}
	} else if r.Publisher.ID == nil || r.Publisher.Name == nil || r.Publisher.HashedName == nil {
		checks = append(checks, &apierr.ValidationError{
			Field: "OrderRecord.Publisher", Reason: "must be present on named orders",
		})
	}
	return schema.First(checks...)
}

type FTNMarket struct{}

type IterOrdersOptions struct {
	Side     OrderSide
	PageSize int
}

// IterOrders walks the open orders of one side, sorted by ascending
// price and then ascending publish time. The stream ends when the server
// returns an empty data array.
func (FTNMarket) IterOrders(opts IterOrdersOptions) *paging.Iterator[*OrderRecord] {
	side := opts.Side
	if side == "" {
		side = OrderSideBuy
	}
	perPage := opts.PageSize
	if perPage <= 0 {
		perPage = 20
	}
	page := 1

	return paging.New(func(ctx context.Context) ([]*OrderRecord, error) {
		wireSide, ok := orderSideWire[side]
		if !ok {
			return nil, apierr.Inputf("unknown order side %q", side)
		}
		ctx, span := tracer.Start(ctx, "market:orders:page")
		defer span.End()

		body := listRequest{
			Filter: Filter{
				{"type": wireSide},
				{"status": 1},
				{"tradable": Op{"gt": 0}},
			},
			Sort: sortBy("price", "publish_time"),
			Bind: []Bind{{
				Table:  "member.user",
				Fields: []string{"id", "name", "hashed_name", "avatar"},
			}},
		}

		var raw struct {
			Data []struct {
				ID          int64  `json:"id"`
				Price       string `json:"price"`
				TotalCount  int64  `json:"totalCount"`
				TradedCount int64  `json:"tradedCount"`
				Tradable    int64  `json:"tradable"`
				TradesCount int64  `json:"tradesCount"`
				PublishTime string `json:"publish_time"`
				PayWay      string `json:"payWay"`
				Anonymity   bool   `json:"anonymity"`
				User        *struct {
					ID         int64  `json:"id"`
					Name       string `json:"name"`
					HashedName string `json:"hashed_name"`
					Avatar     string `json:"avatar"`
				} `json:"user"`
			} `json:"data"`
		}
		err := clientpool.PostJSON(
			ctx, clientpool.Get().Market,
			fmt.Sprintf("/getList/%s/?page=%s&perPage=%s",
				ordersTable, strconv.Itoa(page), strconv.Itoa(perPage)),
			body,
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++

		out := make([]*OrderRecord, 0, len(raw.Data))
		for _, row := range raw.Data {
			price, err := decimal.NewFromString(row.Price)
			if err != nil {
				return nil, apierr.Inputf("%q is not a price", row.Price)
			}
			publishTime, err := normalize.Time(row.PublishTime)
			if err != nil {
				return nil, err
			}
			channels, err := normalize.PayChannelsFromList(row.PayWay)
			if err != nil {
				return nil, err
			}
			record := &OrderRecord{
				ID:              row.ID,
				Price:           price,
				TotalAmount:     row.TotalCount,
				TradedAmount:    row.TradedCount,
				RemainingAmount: row.Tradable,
				TradesCount:     row.TradesCount,
				PublishTime:     publishTime,
				PayChannels:     channels,
				IsAnonymous:     row.Anonymity,
			}
			if !row.Anonymity && row.User != nil {
				record.Publisher = OrderPublisherInfo{
					ID:         &row.User.ID,
					Name:       &row.User.Name,
					HashedName: &row.User.HashedName,
					Avatar:     &row.User.Avatar,
				}
			}
			if err := schema.Validate(record); err != nil {
				return nil, err
			}
			out = append(out, record)
		}
		return out, nil
	})
}

// PlatformSettings is the market's one-shot configuration record: whether
// trading is open, the fee schedule and the enforced minimum prices.
type PlatformSettings struct {
	Opening          bool
	BuyFee           float64
	SellFee          float64
	MinimumBuyPrice  decimal.Decimal
	MinimumSellPrice decimal.Decimal
}

func (s *PlatformSettings) Validate() error {
	checks := []error{
		schema.Percentage("PlatformSettings.BuyFee", s.BuyFee),
		schema.Percentage("PlatformSettings.SellFee", s.SellFee),
	}
	if s.MinimumBuyPrice.Sign() <= 0 {
		checks = append(checks, &apierr.ValidationError{
			Field: "PlatformSettings.MinimumBuyPrice", Reason: "must be > 0",
		})
	}
	if s.MinimumSellPrice.Sign() <= 0 {
		checks = append(checks, &apierr.ValidationError{
			Field: "PlatformSettings.MinimumSellPrice", Reason: "must be > 0",
		})
	}
	return schema.First(checks...)
}

func (FTNMarket) PlatformSettings(ctx context.Context) (*PlatformSettings, error) {
	ctx, span := tracer.Start(ctx, "market:PlatformSettings")
	defer span.End()

	var raw struct {
		Data []struct {
			Opening      bool    `json:"opening"`
			BuyFee       float64 `json:"buyFee"`
			SellFee      float64 `json:"sellFee"`
			MinBuyPrice  string  `json:"minBuyPrice"`
			MinSellPrice string  `json:"minSellPrice"`
		} `json:"data"`
	}
	err := clientpool.PostJSON(
		ctx, clientpool.Get().Market,
		fmt.Sprintf("/getList/%s/", settingsTable),
		listRequest{},
		&raw,
	)
	if err != nil {
		return nil, err
	}
	if len(raw.Data) == 0 {
		return nil, &apierr.UpstreamError{Err: errEmptySettings}
	}

	row := raw.Data[0]
	minBuy, err := decimal.NewFromString(row.MinBuyPrice)
	if err != nil {
		return nil, apierr.Inputf("%q is not a price", row.MinBuyPrice)
	}
	minSell, err := decimal.NewFromString(row.MinSellPrice)
	if err != nil {
		return nil, apierr.Inputf("%q is not a price", row.MinSellPrice)
	}

	settings := &PlatformSettings{
		Opening:          row.Opening,
		BuyFee:           row.BuyFee,
		SellFee:          row.SellFee,
		MinimumBuyPrice:  minBuy,
		MinimumSellPrice: minSell,
	}
	if err := schema.Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
