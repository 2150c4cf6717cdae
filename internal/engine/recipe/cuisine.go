package recipe

import "strings"

// CuisineLabel is one tag from the closed cuisine taxonomy.
type CuisineLabel string

const (
	CuisineKorean     CuisineLabel = "Korean"
	CuisineChinese    CuisineLabel = "Chinese"
	CuisineJapanese   CuisineLabel = "Japanese"
	CuisineWestern    CuisineLabel = "Western"
	CuisineItalian    CuisineLabel = "Italian"
	CuisineThai       CuisineLabel = "Thai"
	CuisineVietnamese CuisineLabel = "Vietnamese"
	CuisineIndian     CuisineLabel = "Indian"
	CuisineMexican    CuisineLabel = "Mexican"
	CuisineFusion     CuisineLabel = "Fusion"
	CuisineBaking     CuisineLabel = "Baking"
	CuisineDessert    CuisineLabel = "Dessert"
	CuisineOther      CuisineLabel = "Other"
)

// CuisineLabels lists the taxonomy in display order.
var CuisineLabels = []CuisineLabel{
	CuisineKorean, CuisineChinese, CuisineJapanese, CuisineWestern, CuisineItalian,
	CuisineThai, CuisineVietnamese, CuisineIndian, CuisineMexican, CuisineFusion,
	CuisineBaking, CuisineDessert, CuisineOther,
}

var koreanNames = map[CuisineLabel]string{
	CuisineKorean:     "한식",
	CuisineChinese:    "중식",
	CuisineJapanese:   "일식",
	CuisineWestern:    "양식",
	CuisineItalian:    "이탈리안",
	CuisineThai:       "태국식",
	CuisineVietnamese: "베트남식",
	CuisineIndian:     "인도식",
	CuisineMexican:    "멕시코식",
	CuisineFusion:     "퓨전",
	CuisineBaking:     "베이킹",
	CuisineDessert:    "디저트",
	CuisineOther:      "기타",
}

var labelLookup = func() map[string]CuisineLabel {
	m := make(map[string]CuisineLabel, 2*len(CuisineLabels))
	for _, l := range CuisineLabels {
		m[strings.ToLower(string(l))] = l
		m[koreanNames[l]] = l
	}
	return m
}()

// ParseCuisineLabel maps model output to a label. English names match
// case-insensitively, Korean names exactly after trimming. Anything else is Other.
func ParseCuisineLabel(s string) CuisineLabel {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(s), `"'.`))
	if l, ok := labelLookup[key]; ok {
		return l
	}
	return CuisineOther
}

// Korean returns the Korean display name of l.
func (l CuisineLabel) Korean() string {
	if k, ok := koreanNames[l]; ok {
		return k
	}
	return koreanNames[CuisineOther]
}

// Valid reports whether l is in the taxonomy.
func (l CuisineLabel) Valid() bool {
	_, ok := koreanNames[l]
	return ok
}

func labelList() string {
	parts := make([]string, len(CuisineLabels))
	for i, l := range CuisineLabels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
