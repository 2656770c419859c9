package explain

import (
	"fmt"
	"strings"

	"github.com/hznxin/tripmind/core"
)

// Rule templates. Everything here is deterministic given the candidate's
// rank, region visit count, category, time of day and transport mode, so
// a request replays identically when the generative service is off.

// counterTemplate builds the self-questioning rank-1 explanation for a
// saturated region. It always contains a question, and names the
// less-visited alternative when one is given; with an empty or generic
// ("别的区域") alternative no region is named.
func counterTemplate(region string, visits int, alternative string) string {
	altText := ""
	if alternative != "" && alternative != "别的区域" {
		altText = fmt.Sprintf("%s那边还没怎么去过，", alternative)
	}
	switch visits % 3 {
	case 2:
		return fmt.Sprintf("%s又去？%s要不换个地方透透气？", region, altText)
	case 0:
		return fmt.Sprintf("虽然%s还不错，但已经去了%d次，%s换个区域会不会更新鲜？", region, visits, altText)
	default:
		return fmt.Sprintf("我感觉%s有点去腻了，%s要不要考虑别的方向？", region, altText)
	}
}

// appealTemplate builds the rank-2 explanation: what the leader lacks.
func appealTemplate(opt *core.CandidateOption, region string, visits int) string {
	if opt.WAxis != nil {
		if visits == 0 && opt.WAxis.Tensions.Novelty > 0.5 {
			return fmt.Sprintf("虽然排第二，但%s是新地方，说不定更有惊喜", region)
		}
		if opt.WAxis.Tensions.Energy < 0 {
			return "第二选择也不错，而且更近，省点力气"
		}
	}
	return fmt.Sprintf("其实%s也挺值得去的，不一定非要选第一", region)
}

// normalTemplate builds the ordinary explanation. Above the conflict
// threshold the sentence concedes ("虽然…但…"); below it the phrasing
// stays tentative and avoids over-confident openers.
func normalTemplate(opt *core.CandidateOption, region string, visits, hour int, weather string) string {
	var tensions core.Tensions
	if opt.WAxis != nil {
		tensions = opt.WAxis.Tensions
	}

	if tensions.Conflict > 1.0/3 {
		return concessiveTemplate(opt, region, visits, tensions)
	}

	// Revisited region: normalize the repeat instead of pretending it is
	// novel.
	if visits > 0 {
		revisit := []string{
			"这会儿有点累了，回熟悉的地方随便走走反而更放松",
			"时间还早，再逛逛这边也不错，不用赶路",
			"上次没逛够吧？可以再来补上",
		}
		idx := visits - 1
		if idx >= len(revisit) {
			idx = len(revisit) - 1
		}
		return revisit[idx]
	}

	if opt.POI.Category == core.CategoryRestaurant {
		if (hour >= 11 && hour <= 13) || (hour >= 17 && hour <= 19) {
			return "到饭点儿了，这家看着不错，可以试试"
		}
		return "提前找个地方吃点东西，免得一会儿饿"
	}

	if strings.Contains(weather, "雨") {
		switch opt.POI.Category {
		case core.CategoryShopping, core.CategoryEntertainment:
			return "下雨天，去室内逛逛最舒服"
		}
	}

	if len(opt.Edges) > 0 {
		if opt.Edges[0].Mode == core.ModeWalk {
			return "就在附近，走过去就行，顺便消消食"
		}
		if opt.Edges[0].TimeHours*60 < 15 {
			return "离得挺近，我觉得可以过去看看"
		}
	}

	return fmt.Sprintf("换个地方透透气，去%s逛逛也行", region)
}

// concessiveTemplate picks the concession by the dominant negative
// tension.
func concessiveTemplate(opt *core.CandidateOption, region string, visits int, t core.Tensions) string {
	switch {
	case t.Novelty < 0:
		return fmt.Sprintf("虽然%s去过了，但也不用赶，随便转转也行", region)
	case t.Energy < 0:
		return "虽然有点累了，但离得不远，慢慢过去也行"
	case t.Continuity < 0:
		return "虽然又是同类型的地方，但这家口碑确实好，值得一看"
	default:
		return fmt.Sprintf("虽然有点纠结，但%s这边总体还是不错的", region)
	}
}

// fallback is the deterministic template path, selected per rank.
func (l *Layer) fallback(opt *core.CandidateOption, shortlist []core.CandidateOption, req Request) string {
	region, visits := regionOf(opt)

	if opt.Rank == 1 && visits >= 2 {
		return counterTemplate(region, visits, lessVisitedAlternative(opt, shortlist))
	}
	if opt.Rank == 2 {
		return appealTemplate(opt, region, visits)
	}
	return normalTemplate(opt, region, visits, req.HourOfDay, req.Weather)
}
