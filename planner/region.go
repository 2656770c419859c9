// Package planner implements the decision core: the staged pipeline that
// turns a session state plus a candidate pool into a scored, explained,
// ranked shortlist, and the coordinator that drives it.
package planner

import (
	"strings"

	"github.com/hznxin/tripmind/core"
)

// regionKeywords maps name/address substrings to coarse region labels.
// Order matters: the first match wins, which keeps labeling deterministic
// when a name contains several keywords.
var regionKeywords = []string{
	// Xiamen
	"鼓浪屿", "厦大", "曾厝垵", "中山路", "环岛路",
	// Suzhou
	"姑苏", "虎丘", "金鸡湖", "平江路", "山塘街",
	// Hangzhou
	"西湖", "灵隐", "河坊街", "钱塘江",
	// Shanghai
	"外滩", "陆家嘴", "南京路", "豫园",
}

// RegionOther is the label for POIs no keyword matches.
const RegionOther = "其他"

// RegionOf derives the coarse region label of a POI from its name and
// address. Used only for the visit-count soft constraint.
func RegionOf(poi core.POI) string {
	for _, region := range regionKeywords {
		if strings.Contains(poi.Name, region) || strings.Contains(poi.Address, region) {
			return region
		}
	}
	return RegionOther
}

// famousLandmarks lists tokens whose presence in a POI name marks it as a
// well-known destination. Feeds the continuity tension and the
// explanation templates.
var famousLandmarks = []string{
	"厦大", "鼓浪屿", "环岛路", "曾厝垵", "中山路",
	"拙政园", "虎丘", "平江路", "姑苏", "苏州博物馆",
}

// IsFamousLandmark reports whether the POI name matches the landmark
// token list.
func IsFamousLandmark(name string) bool {
	for _, token := range famousLandmarks {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// knownCities is the set of destination cities the region tables cover.
// Unknown cities are still planned; their POIs just all land in the
// "other" region.
var knownCities = []string{"苏州", "厦门", "杭州", "上海", "Suzhou", "Xiamen", "Hangzhou", "Shanghai"}

// KnownCity reports whether the city has region-table coverage.
func KnownCity(city string) bool {
	for _, c := range knownCities {
		if strings.EqualFold(c, city) {
			return true
		}
	}
	return false
}
