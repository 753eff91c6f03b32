package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"jianshukit/lib/apierr"
	"jianshukit/lib/credentials"
	"jianshukit/lib/paging"
	"jianshukit/lib/testutil"
)

func testWallet(t *testing.T) *Wallet {
	cred, err := credentials.New("session-token")
	require.NoError(t, err)
	w, err := New(cred)
	require.NoError(t, err)
	return w
}

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(credentials.JianshuCredential{})
	var cerr *apierr.CredentialError
	require.ErrorAs(t, err, &cerr)

	_, err = credentials.New("")
	var input *apierr.InputError
	require.ErrorAs(t, err, &input)
}

func transactionRow(id int64, ioType int, amount18 string) map[string]any {
	return map[string]any{
		"id":        id,
		"time":      "2023-07-01T09:30:00+08:00",
		"tn":        "简书钻奖励",
		"object":    "简书",
		"io_type":   ioType,
		"amount_18": amount18,
	}
}

func TestIterFPTransactions(t *testing.T) {
	defer testutil.Setup(t, "wallet")()

	var cookies []string
	var maxIDs []string
	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/fp_wallets/transactions", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("remember_user_token")
		if err == nil {
			cookies = append(cookies, cookie.Value)
		}
		maxID := r.URL.Query().Get("max_id")
		maxIDs = append(maxIDs, maxID)
		switch maxID {
		case "":
			json.NewEncoder(w).Encode(map[string]any{"transactions": []any{
				transactionRow(800, 1, "1500000000000000000"),
				transactionRow(799, 2, "500000000000000000"),
			}})
		default:
			json.NewEncoder(w).Encode(map[string]any{"transactions": []any{}})
		}
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	w := testWallet(t)
	records, err := paging.Collect(context.Background(), w.IterFPTransactions(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// every request carries the session cookie
	require.Equal(t, []string{"session-token", "session-token"}, cookies)
	// the cursor is the last seen id minus one
	require.Equal(t, []string{"", "798"}, maxIDs)

	incoming := records[0]
	require.Equal(t, 1.5, incoming.Amount)
	require.False(t, incoming.PreciseAmount.IsNegative())

	// io_type 2 negates the amount
	outgoing := records[1]
	require.Equal(t, -0.5, outgoing.Amount)
	require.True(t, outgoing.PreciseAmount.IsNegative())
}

func TestIterFPRewards(t *testing.T) {
	defer testutil.Setup(t, "wallet")()

	mux := http.NewServeMux()
	mux.HandleFunc("/asimov/fp_wallets/jsd_rewards", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			json.NewEncoder(w).Encode(map[string]any{"rewards": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"rewards": []any{
			map[string]any{
				"time":      "2023-07-01T09:30:00+08:00",
				"reason":    "日更基础奖励",
				"fp_amount": 52075,
			},
		}})
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	w := testWallet(t)
	records, err := paging.Collect(context.Background(), w.IterFPRewards(IterRewardsOptions{}), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "日更基础奖励", records[0].Reason)
	require.Equal(t, 52.075, records[0].Amount)
}

func TestTotalAssets(t *testing.T) {
	defer testutil.Setup(t, "wallet")()

	var gotCookie bool
	mux := http.NewServeMux()
	mux.HandleFunc("/mobile/wallet", func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("remember_user_token")
		gotCookie = err == nil
		w.Write([]byte(`<html><body><div class="wallet-total">8.21w</div></body></html>`))
	})
	_, cleanup := testutil.FakeSite(t, mux)
	defer cleanup()

	w := testWallet(t)
	total, err := w.TotalAssets(context.Background())
	require.NoError(t, err)
	require.True(t, gotCookie)
	require.InDelta(t, 82100.0, total, 1e-6)
}

func TestTotalAssetsMissingBlock(t *testing.T) {
	defer testutil.Setup(t, "wallet")()

	_, cleanup := testutil.FakeSite(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>登录后查看</body></html>`))
	}))
	defer cleanup()

	w := testWallet(t)
	_, err := w.TotalAssets(context.Background())
	var upstream *apierr.UpstreamError
	require.ErrorAs(t, err, &upstream)
}
