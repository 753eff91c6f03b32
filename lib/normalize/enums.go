package normalize

import (
	"strconv"
	"strings"

	"jianshukit/lib/apierr"
)

type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

// GenderFromCode is total: codes outside the documented {0, 1, 2} set map
// to unknown because the site has shipped stray values here before.
func GenderFromCode(code int) Gender {
	switch code {
	case 1:
		return GenderMale
	case 2:
		return GenderFemale
	default:
		return GenderUnknown
	}
}

type MembershipTier int

const (
	MembershipNone MembershipTier = iota
	MembershipBronze
	MembershipSilver
	MembershipGold
	MembershipPlatinum
)

func (m MembershipTier) String() string {
	switch m {
	case MembershipBronze:
		return "bronze"
	case MembershipSilver:
		return "silver"
	case MembershipGold:
		return "gold"
	case MembershipPlatinum:
		return "platinum"
	default:
		return "none"
	}
}

var membershipTable = map[string]MembershipTier{
	"":            MembershipNone,
	"none":        MembershipNone,
	"bronze":      MembershipBronze,
	"silver":      MembershipSilver,
	"gold":        MembershipGold,
	"platina":     MembershipPlatinum,
	"platinum":    MembershipPlatinum,
	"distinguish": MembershipPlatinum,
}

// MembershipFromType is total; unrecognized type strings map to none.
func MembershipFromType(typ string) MembershipTier {
	tier, ok := membershipTable[strings.ToLower(typ)]
	if !ok {
		return MembershipNone
	}
	return tier
}

type PaidStatus int

const (
	PaidStatusNotApplicable PaidStatus = iota
	PaidStatusFree
	PaidStatusPaid
)

func (p PaidStatus) String() string {
	switch p {
	case PaidStatusFree:
		return "free"
	case PaidStatusPaid:
		return "paid"
	default:
		return "not applicable"
	}
}

var paidTypeTable = map[string][2]PaidStatus{
	"free":       {PaidStatusNotApplicable, PaidStatusFree},
	"paid":       {PaidStatusNotApplicable, PaidStatusPaid},
	"fbook_free": {PaidStatusFree, PaidStatusFree},
	"fbook_paid": {PaidStatusFree, PaidStatusPaid},
	"pbook_free": {PaidStatusPaid, PaidStatusFree},
	"pbook_paid": {PaidStatusPaid, PaidStatusPaid},
}

// PaidTypeStatuses decodes an article's paid_type string into the
// (notebook, article) paid-status pair. The six-string set is documented
// and closed, so an unknown string is an error rather than a fallback.
func PaidTypeStatuses(paidType string) (notebook, article PaidStatus, err error) {
	statuses, ok := paidTypeTable[paidType]
	if !ok {
		return 0, 0, apierr.Inputf("unknown paid_type %q", paidType)
	}
	return statuses[0], statuses[1], nil
}

type PayChannel int

const (
	PayChannelWeChatPay PayChannel = iota + 1
	PayChannelAlipay
	PayChannelAntCreditPay
)

func (p PayChannel) String() string {
	switch p {
	case PayChannelWeChatPay:
		return "wechat pay"
	case PayChannelAlipay:
		return "alipay"
	case PayChannelAntCreditPay:
		return "ant credit pay"
	default:
		return "invalid"
	}
}

// PayChannelsFromList decodes the market site's pipe-separated channel
// list, e.g. "1|3". The code set is documented and closed.
func PayChannelsFromList(raw string) ([]PayChannel, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, "|")
	channels := make([]PayChannel, 0, len(parts))
	for _, part := range parts {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, apierr.Inputf("malformed pay channel list %q", raw)
		}
		switch PayChannel(code) {
		case PayChannelWeChatPay, PayChannelAlipay, PayChannelAntCreditPay:
			channels = append(channels, PayChannel(code))
		default:
			return nil, apierr.Inputf("unknown pay channel code %d", code)
		}
	}
	return channels, nil
}
