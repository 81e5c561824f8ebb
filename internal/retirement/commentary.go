package retirement

import (
	"fmt"
	"strings"

	"finplan/internal/core"
)

// Commentary renders the human summary for an evaluated plan.
func Commentary(res Result) string {
	var b strings.Builder

	switch res.Status {
	case Ahead:
		buffer := 0.0
		if res.BufferMonths != nil {
			buffer = *res.BufferMonths
		}
		fmt.Fprintf(&b, "Ahead of the target path. Keep the $2,600 base; the buffer is about %.2f months of contributions.", buffer)
	case OnTrack:
		b.WriteString("Tracking within 5% of target. Keep the $2,600 base plan steady.")
	case SlightlyBehind:
		if res.RequiredMonthlyContribution != nil {
			fmt.Fprintf(&b, "A modest catch-up would help; consider about %s/mo while keeping the $2,600 base.",
				core.FormatUSD(*res.RequiredMonthlyContribution))
		} else {
			b.WriteString("A modest catch-up would help; keep the $2,600 base and review next month.")
		}
	default:
		if res.RemainingMonths > 0 && res.RequiredMonthlyContribution != nil {
			fmt.Fprintf(&b, "To close the gap, aim for about %s/mo over the remaining %d months or consider a slightly later retirement age; keep the $2,600 base.",
				core.FormatUSD(*res.RequiredMonthlyContribution), res.RemainingMonths)
		} else {
			b.WriteString("At the target age already; consider a later retirement age while keeping the $2,600 base.")
		}
	}

	if res.BonusAdditions != nil && *res.BonusAdditions > 0 {
		fmt.Fprintf(&b, " Bonus additions this month: %s.", core.FormatUSD(*res.BonusAdditions))
	}
	if res.GrowthAttribution != nil && res.GrowthAttribution.TopGrowthDriver != noDriver {
		fmt.Fprintf(&b, " Top growth driver: %s.", res.GrowthAttribution.TopGrowthDriver)
	}
	return b.String()
}
