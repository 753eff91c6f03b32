package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	testCases := []struct {
		input    any
		expected time.Time
	}{
		{
			input:    int64(1592611200),
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			// same instant in milliseconds
			input:    int64(1592611200000),
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			input:    float64(1592611200),
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			input:    "2020-06-20T08:00:00+08:00",
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			input:    "2020-06-20T00:00:00",
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			input:    "2020-06-20 00:00:00",
			expected: time.Date(2020, 6, 20, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range testCases {
		got, err := Time(test.input)
		require.NoError(t, err, "input %v", test.input)
		require.True(t, test.expected.Equal(got), "input %v: got %v", test.input, got)
		require.Equal(t, time.UTC, got.Location())
		require.Zero(t, got.Nanosecond())
	}
}

func TestTimeIdempotent(t *testing.T) {
	once, err := Time(int64(1700000000))
	require.NoError(t, err)
	twice, err := Time(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestTimeOrNow(t *testing.T) {
	epoch := int64(1700000000)
	require.Equal(t, time.Unix(epoch, 0).UTC(), TimeOrNow(epoch))
	require.Equal(t, time.Unix(epoch, 0).UTC(), TimeOrNow(&epoch))

	// absent optional fields fall back to now, not to 1970
	for _, absent := range []any{nil, (*int64)(nil), "garbage"} {
		got := TimeOrNow(absent)
		require.WithinDuration(t, time.Now().UTC(), got, 5*time.Second)
	}
}

func TestTimeRejectsGarbage(t *testing.T) {
	_, err := Time("not a timestamp")
	require.Error(t, err)
	_, err = Time([]string{"nope"})
	require.Error(t, err)
}

func TestAssetsAmount(t *testing.T) {
	require.Equal(t, 52.075, AssetsAmount(52075))
	require.Equal(t, 0.0, AssetsAmount(0))
}

func TestPreciseAssetsAmount(t *testing.T) {
	got, err := PreciseAssetsAmount("1500000000000000000")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.NewFromFloat(1.5)), "got %s", got)

	_, err = PreciseAssetsAmount("abc")
	require.Error(t, err)
}

func TestCompactAssets(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
	}{
		{input: "8.21w", expected: 82100},
		{input: "8.21W", expected: 82100},
		{input: "520.3", expected: 520.3},
		{input: " 1,234.5 ", expected: 1234.5},
	}
	for _, test := range testCases {
		got, err := CompactAssets(test.input)
		require.NoError(t, err, "input %q", test.input)
		require.Equal(t, test.expected, got, "input %q", test.input)
	}

	_, err := CompactAssets("w")
	require.Error(t, err)
}

func TestPaidTypeStatuses(t *testing.T) {
	testCases := []struct {
		paidType string
		notebook PaidStatus
		article  PaidStatus
	}{
		{paidType: "free", notebook: PaidStatusNotApplicable, article: PaidStatusFree},
		{paidType: "paid", notebook: PaidStatusNotApplicable, article: PaidStatusPaid},
		{paidType: "fbook_free", notebook: PaidStatusFree, article: PaidStatusFree},
		{paidType: "fbook_paid", notebook: PaidStatusFree, article: PaidStatusPaid},
		{paidType: "pbook_free", notebook: PaidStatusPaid, article: PaidStatusFree},
		{paidType: "pbook_paid", notebook: PaidStatusPaid, article: PaidStatusPaid},
	}
	for _, test := range testCases {
		notebook, article, err := PaidTypeStatuses(test.paidType)
		require.NoError(t, err, "paid_type %q", test.paidType)
		require.Equal(t, test.notebook, notebook, "paid_type %q", test.paidType)
		require.Equal(t, test.article, article, "paid_type %q", test.paidType)
	}

	_, _, err := PaidTypeStatuses("fbook")
	require.Error(t, err)
}

func TestPayChannelsFromList(t *testing.T) {
	channels, err := PayChannelsFromList("1|3")
	require.NoError(t, err)
	require.Equal(t, []PayChannel{PayChannelWeChatPay, PayChannelAntCreditPay}, channels)

	channels, err = PayChannelsFromList("")
	require.NoError(t, err)
	require.Nil(t, channels)

	_, err = PayChannelsFromList("1|9")
	require.Error(t, err)
	_, err = PayChannelsFromList("1|x")
	require.Error(t, err)
}

func TestGenderFromCode(t *testing.T) {
	require.Equal(t, GenderUnknown, GenderFromCode(0))
	require.Equal(t, GenderMale, GenderFromCode(1))
	require.Equal(t, GenderFemale, GenderFromCode(2))
	require.Equal(t, GenderUnknown, GenderFromCode(42))
}

func TestMembershipFromType(t *testing.T) {
	require.Equal(t, MembershipNone, MembershipFromType(""))
	require.Equal(t, MembershipBronze, MembershipFromType("bronze"))
	require.Equal(t, MembershipPlatinum, MembershipFromType("Platina"))
	require.Equal(t, MembershipNone, MembershipFromType("mythril"))
}
