package planner

import (
	"fmt"

	"github.com/hznxin/tripmind/core"
)

// Risk thresholds. The annotation never reorders or drops candidates;
// the caller surfaces it as metadata only.
const (
	returnBufferHours = 0.5

	budgetCritical = 50.0
	budgetWarning  = 100.0

	timeCriticalHours = 0.5
	timeWarningHours  = 1.0
)

// AnnotateRisk classifies how dangerous selecting the option would be.
// The cheapest/fastest edge is the optimistic estimate: if even that one
// violates a hard constraint the option is critical.
func AnnotateRisk(option *core.CandidateOption, state core.SessionState, session *core.Session, startHour int) {
	minTime := option.MinEdgeTime()
	minCost := option.MinEdgeCost()

	actionHours := minTime + option.POI.AvgVisitHours
	actionCost := minCost + option.POI.TicketPrice

	remainingAfter := session.DurationHours - state.ElapsedHours - actionHours
	budgetAfter := state.RemainingBudget - actionCost

	var details []string

	// Hard return-by constraint: finishing the visit plus the estimated
	// trip back must beat the deadline with half an hour of buffer.
	if rc := session.Constraints.Return; rc != nil {
		finishClock := float64(startHour) + state.ElapsedHours + actionHours
		returnTravel := estimateReturnTravel(option.POI, rc.Place)
		arriveClock := finishClock + returnTravel
		if arriveClock+returnBufferHours > rc.DeadlineHour {
			option.Risk = core.RiskCritical
			option.RiskDetails = []string{
				fmt.Sprintf("游玩结束约%s", formatClock(finishClock)),
				fmt.Sprintf("返程耗时约%.1f小时", returnTravel),
				fmt.Sprintf("预计到达%s，必须在%s前到达", formatClock(arriveClock), formatClock(rc.DeadlineHour)),
				"会错过回程",
			}
			return
		}
	}

	switch {
	case budgetAfter < budgetCritical:
		option.Risk = core.RiskCritical
		details = append(details, fmt.Sprintf("选择后剩余预算: ¥%.0f", budgetAfter), "后续选择将严重受限")
	case remainingAfter < timeCriticalHours:
		option.Risk = core.RiskCritical
		details = append(details, fmt.Sprintf("选择后剩余时间: %.1f小时", remainingAfter), "之后必须立即返回")
	case budgetAfter < budgetWarning:
		option.Risk = core.RiskWarning
		details = append(details, fmt.Sprintf("选择后剩余预算: ¥%.0f", budgetAfter), "后续仅够1-2个免费景点")
	case remainingAfter < timeWarningHours:
		option.Risk = core.RiskWarning
		details = append(details, fmt.Sprintf("选择后剩余时间: %.1f小时", remainingAfter), "之后仅够游览短景点")
	default:
		option.Risk = core.RiskInfo
	}

	option.RiskDetails = details
}

// estimateReturnTravel approximates the trip back as a taxi ride.
func estimateReturnTravel(from, to core.POI) float64 {
	return core.Haversine(from, to) * taxiDetour / taxiSpeedKM
}

func formatClock(hour float64) string {
	h := int(hour) % 24
	m := int((hour - float64(int(hour))) * 60)
	return fmt.Sprintf("%02d:%02d", h, m)
}
