// Package wallet exposes the credential-gated assets endpoints: the FP
// and FTN transaction streams, the FP rewards history and the wallet
// totals on the mobile template. Every call requires a session token; the
// library never performs a login flow.
package wallet

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/credentials"
	"jianshukit/lib/htmlutil"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

var tracer = otel.Tracer("jianshukit/wallet")

var errMissingWalletTotal = errors.New("wallet total not found on the mobile template")

// ioTypeOutgoing marks a transaction that decreases the balance.
const ioTypeOutgoing = 2

type Wallet struct {
	credential credentials.JianshuCredential
}

func New(credential credentials.JianshuCredential) (*Wallet, error) {
	if credential.Empty() {
		return nil, &apierr.CredentialError{Msg: "wallet endpoints require a session token"}
	}
	return &Wallet{credential: credential}, nil
}

// TransactionRecord is one row of either currency stream. Amount is
// negative exactly when the transaction was outgoing; PreciseAmount is
// the same value at the wire's 18-decimal precision.
type TransactionRecord struct {
	ID            int64
	Time          time.Time
	TypeName      string
	Counterparty  string
	Amount        float64
	PreciseAmount decimal.Decimal
}

func (r *TransactionRecord) Validate() error {
	checks := []error{
		schema.PositiveInt("TransactionRecord.ID", r.ID),
		schema.NormalizedTime("TransactionRecord.Time", r.Time),
		schema.NonEmptyStr("TransactionRecord.TypeName", r.TypeName),
	}
	if (r.Amount < 0) != r.PreciseAmount.IsNegative() && !r.PreciseAmount.IsZero() {
		checks = append(checks, &apierr.ValidationError{
			Field: "TransactionRecord.PreciseAmount", Reason: "sign must match Amount",
		})
	}
	return schema.First(checks...)
}

type transactionsResp struct {
	Transactions []struct {
		ID       int64  `json:"id"`
		Time     string `json:"time"`
		TypeName string `json:"tn"`
		Object   string `json:"object"`
		IOType   int    `json:"io_type"`
		Amount18 string `json:"amount_18"`
	} `json:"transactions"`
}

func (w *Wallet) iterTransactions(path, spanName string) *paging.Iterator[*TransactionRecord] {
	var maxID int64

	return paging.New(func(ctx context.Context) ([]*TransactionRecord, error) {
		ctx, span := tracer.Start(ctx, spanName)
		defer span.End()

		query := map[string]string{"since_id": "0"}
		if maxID != 0 {
			query["max_id"] = strconv.FormatInt(maxID, 10)
		}
		var raw transactionsResp
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API, path, query, &raw,
			w.credential.Apply,
		)
		if err != nil {
			return nil, err
		}

		out := make([]*TransactionRecord, 0, len(raw.Transactions))
		for _, row := range raw.Transactions {
			txTime, err := normalize.Time(row.Time)
			if err != nil {
				return nil, err
			}
			precise, err := normalize.PreciseAssetsAmount(row.Amount18)
			if err != nil {
				return nil, err
			}
			if row.IOType == ioTypeOutgoing {
				precise = precise.Neg()
			}
			amount, _ := precise.Float64()
			record := &TransactionRecord{
				ID:            row.ID,
				Time:          txTime,
				TypeName:      row.TypeName,
				Counterparty:  row.Object,
				Amount:        amount,
				PreciseAmount: precise,
			}
			if err := schema.Validate(record); err != nil {
				return nil, err
			}
			maxID = row.ID - 1
			out = append(out, record)
		}
		return out, nil
	})
}

// IterFPTransactions walks the FP wallet stream, newest first, with the
// endpoint's max_id cursor.
func (w *Wallet) IterFPTransactions() *paging.Iterator[*TransactionRecord] {
	return w.iterTransactions("/asimov/fp_wallets/transactions", "wallet:fp:page")
}

// IterFTNTransactions walks the FTN wallet stream.
func (w *Wallet) IterFTNTransactions() *paging.Iterator[*TransactionRecord] {
	return w.iterTransactions("/asimov/fp_wallets/jsb_transactions", "wallet:ftn:page")
}

type RewardRecord struct {
	Time   time.Time
	Reason string
	Amount float64
}

func (r *RewardRecord) Validate() error {
	return schema.First(
		schema.NormalizedTime("RewardRecord.Time", r.Time),
		schema.NonEmptyStr("RewardRecord.Reason", r.Reason),
		schema.NonNegativeFloat("RewardRecord.Amount", r.Amount),
	)
}

type IterRewardsOptions struct {
	StartPage int
	PageSize  int
}

// IterFPRewards walks the page-indexed FP rewards history.
func (w *Wallet) IterFPRewards(opts IterRewardsOptions) *paging.Iterator[*RewardRecord] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 10
	}

	return paging.New(func(ctx context.Context) ([]*RewardRecord, error) {
		ctx, span := tracer.Start(ctx, "wallet:rewards:page")
		defer span.End()

		var raw struct {
			Rewards []struct {
				Time     string `json:"time"`
				Reason   string `json:"reason"`
				FPAmount int64  `json:"fp_amount"`
			} `json:"rewards"`
		}
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/asimov/fp_wallets/jsd_rewards",
			map[string]string{
				"page":  strconv.Itoa(page),
				"count": strconv.Itoa(count),
			},
			&raw,
			w.credential.Apply,
		)
		if err != nil {
			return nil, err
		}
		page++

		out := make([]*RewardRecord, 0, len(raw.Rewards))
		for _, row := range raw.Rewards {
			rewardTime, err := normalize.Time(row.Time)
			if err != nil {
				return nil, err
			}
			record := &RewardRecord{
				Time:   rewardTime,
				Reason: row.Reason,
				Amount: normalize.AssetsAmount(row.FPAmount),
			}
			if err := schema.Validate(record); err != nil {
				return nil, err
			}
			out = append(out, record)
		}
		return out, nil
	})
}

// TotalAssets scrapes the wallet totals from the mobile template. The
// figure may be rendered in the compact "Nw" format with its documented
// precision loss.
func (w *Wallet) TotalAssets(ctx context.Context) (float64, error) {
	ctx, span := tracer.Start(ctx, "wallet:TotalAssets")
	defer span.End()

	doc, err := clientpool.GetHTML(
		ctx, clientpool.Get().MobileHTML, "/mobile/wallet", nil,
		w.credential.Apply,
	)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(htmlutil.CleanText(doc.Find(".wallet-total").First()))
	if raw == "" {
		return 0, &apierr.UpstreamError{Err: errMissingWalletTotal}
	}
	return normalize.CompactAssets(raw)
}
