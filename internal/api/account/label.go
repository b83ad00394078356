package account

import (
	"fmt"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
)

// The audience is Japanese; labels render in JST so the cutoff date
// matches the invoice Stripe sends.
var jst = time.FixedZone("JST", 9*60*60)

var statusLabels = map[types.SubscriptionStatus]string{
	types.StatusNone:       "未加入",
	types.StatusActive:     "加入中",
	types.StatusPastDue:    "支払い遅延中",
	types.StatusCanceled:   "解約済み",
	types.StatusIncomplete: "チェックアウト完了待ち",
	types.StatusTrialing:   "トライアル中",
}

// SubscriptionLabel renders the human-readable plan state shown on the
// account page. A pending cancellation wins over the raw status.
func SubscriptionLabel(sub *types.Subscription) string {
	if sub == nil {
		return statusLabels[types.StatusNone]
	}
	if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd != nil {
		end := sub.CurrentPeriodEnd.In(jst)
		return fmt.Sprintf("解約予約中（%d/%d/%d まで利用可能）", end.Year(), int(end.Month()), end.Day())
	}
	if label, ok := statusLabels[sub.Status]; ok {
		return label
	}
	return statusLabels[types.StatusNone]
}
