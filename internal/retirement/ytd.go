package retirement

import "finplan/internal/core"

const (
	AccountLeading = "Leading"
	AccountOnPlan  = "On Plan"
	AccountBehind  = "Behind"

	noDriver = "N/A"
)

// History is the stored state the attribution compares against.
type History struct {
	// Previous is the latest snapshot before the evaluated month.
	Previous *core.RetirementSnapshot
	// YearToDate holds snapshots from Jan 1 through the evaluated month, oldest first.
	YearToDate []core.RetirementSnapshot
}

type Scorecard struct {
	AccountType      string  `json:"accountType"`
	GoalType         string  `json:"goalType"`
	Balance          float64 `json:"balance"`
	YTDContributions float64 `json:"ytdContributions"`
	YTDGrowthDollars float64 `json:"ytdGrowthDollars"`
	YTDGrowthPercent float64 `json:"ytdGrowthPercent"`
	Status           string  `json:"status"`
}

type Attribution struct {
	TopGrowthDriver     string  `json:"topGrowthDriver"`
	WeakestContributor  string  `json:"weakestContributor"`
	MarketGrowthPercent float64 `json:"marketGrowthPercent"`
	ContributionPercent float64 `json:"contributionPercent"`
}

type YTDSummary struct {
	TotalYTDContributions float64 `json:"totalYTDContributions"`
	TotalYTDGrowth        float64 `json:"totalYTDGrowth"`
	YTDGrowthPercent      float64 `json:"ytdGrowthPercent"`
}

// Analysis bundles the per-account and portfolio-level YTD results.
type Analysis struct {
	Scorecards  []Scorecard
	Attribution Attribution
	Summary     YTDSummary
}

type accountFigures struct {
	marketGrowth float64
	ytdContrib   float64
	ytdGrowth    float64
	ytdPercent   float64
	forcedBehind bool
}

// Attribute computes YTD contribution and growth per account type.
func Attribute(accounts []core.AccountBalance, hist History) Analysis {
	figs := make([]accountFigures, len(accounts))
	var totalContrib, totalGrowth, totalPrev float64

	for i, acc := range accounts {
		prev := 0.0
		if hist.Previous != nil {
			prev, _ = hist.Previous.BalanceOf(acc.AccountType)
		}
		start := yearStartBalance(hist.YearToDate, acc.AccountType, prev)

		f := accountFigures{
			marketGrowth: acc.Balance - prev - acc.Contribution,
			ytdContrib:   historicalContributions(hist.YearToDate, acc.AccountType) + acc.Contribution,
		}
		f.ytdGrowth = acc.Balance - start - f.ytdContrib
		if start > 0 {
			f.ytdPercent = f.ytdGrowth / start * 100
		}
		f.forcedBehind = acc.Balance <= 0 && f.ytdContrib <= 0
		figs[i] = f

		totalContrib += f.ytdContrib
		totalGrowth += f.ytdGrowth
		totalPrev += prev
	}

	avg := 0.0
	if totalPrev > 0 {
		avg = totalGrowth / totalPrev * 100
	}

	out := Analysis{Scorecards: make([]Scorecard, len(accounts))}
	for i, acc := range accounts {
		f := figs[i]
		status := AccountBehind
		if !f.forcedBehind {
			status = classifyAccount(f.ytdPercent, avg)
		}
		out.Scorecards[i] = Scorecard{
			AccountType:      acc.AccountType,
			GoalType:         acc.GoalOrDefault(),
			Balance:          core.Round2(acc.Balance),
			YTDContributions: core.Round2(f.ytdContrib),
			YTDGrowthDollars: core.Round2(f.ytdGrowth),
			YTDGrowthPercent: core.Round2(f.ytdPercent),
			Status:           status,
		}
	}

	out.Attribution = attribution(accounts, figs, totalGrowth, totalContrib)
	out.Summary = YTDSummary{
		TotalYTDContributions: core.Round2(totalContrib),
		TotalYTDGrowth:        core.Round2(totalGrowth),
		YTDGrowthPercent:      core.Round2(avg),
	}
	return out
}

func classifyAccount(pct, avg float64) string {
	switch {
	case pct > avg+2:
		return AccountLeading
	case pct < avg-2:
		return AccountBehind
	default:
		return AccountOnPlan
	}
}

func attribution(accounts []core.AccountBalance, figs []accountFigures, growth, contrib float64) Attribution {
	a := Attribution{TopGrowthDriver: noDriver, WeakestContributor: noDriver}
	top, weak := -1, -1
	for i := range figs {
		if top < 0 || figs[i].marketGrowth > figs[top].marketGrowth {
			top = i
		}
		if weak < 0 || figs[i].marketGrowth < figs[weak].marketGrowth {
			weak = i
		}
	}
	if top >= 0 {
		a.TopGrowthDriver = accounts[top].AccountType
		a.WeakestContributor = accounts[weak].AccountType
	}
	if change := growth + contrib; change > 0 {
		a.MarketGrowthPercent = core.Round2(growth / change * 100)
		a.ContributionPercent = core.Round2(contrib / change * 100)
	}
	return a
}

func historicalContributions(snaps []core.RetirementSnapshot, accountType string) float64 {
	total := 0.0
	for _, s := range snaps {
		for _, a := range s.Accounts {
			if a.AccountType == accountType {
				total += a.Contribution
			}
		}
	}
	return total
}

func yearStartBalance(snaps []core.RetirementSnapshot, accountType string, fallback float64) float64 {
	for _, s := range snaps {
		if b, ok := s.BalanceOf(accountType); ok {
			return b
		}
	}
	return fallback
}
