package recipe

import "strings"

// IsDemoReference reports whether ref asks for the canned demo result.
func IsDemoReference(ref string) bool {
	return strings.Contains(strings.ToLower(ref), "demo")
}

const demoVideoID = "demo123"

// DemoLanguages are the caption languages reported for demo references.
var DemoLanguages = []string{"ko", "en"}

const demoTranscript = `안녕하세요! 오늘은 맛있는 김치찌개를 만들어보겠습니다.
재료는 김치 200g, 돼지고기 삼겹살 150g, 양파 1개, 대파 1대가 필요합니다.
그리고 마늘 3쪽, 고춧가루 1큰술, 참기름도 준비해주세요.
순두부 한 모와 물 500ml도 넣어서 끓여주시면 됩니다.
정말 간단하고 맛있는 김치찌개 완성!`

const demoRationale = "김치찌개는 대표적인 한식 요리입니다. 김치, 고춧가루, 참기름 등 한식 특유의 재료들이 사용되었습니다."

// DemoMetadata returns the fixed metadata of the demo video.
func DemoMetadata() *VideoMetadata {
	return &VideoMetadata{
		Title:           "김치찌개 만들기 - 초간단 레시피",
		AuthorName:      "쿠킹클래스",
		AuthorURL:       "https://www.youtube.com/channel/demo123",
		ThumbnailURL:    "https://i.ytimg.com/vi/demo123/maxresdefault.jpg",
		ThumbnailWidth:  1280,
		ThumbnailHeight: 720,
		ProviderName:    "YouTube",
		ProviderURL:     "https://www.youtube.com/",
		VideoID:         demoVideoID,
	}
}

func demoIngredients() []Ingredient {
	return []Ingredient{
		NewIngredient("김치", "신김치", "김치", 0.95),
		NewIngredient("돼지고기", "삼겹살", "돼지고기", 0.92),
		NewIngredient("양파", "중간 양파", "양파", 0.90),
		NewIngredient("파", "대파", "파", 0.88),
		NewIngredient("마늘", "다진 마늘", "마늘", 0.90),
		NewIngredient("고춧가루", "고춧가루", "고춧가루", 0.85),
		NewIngredient("참기름", "참기름", "참기름", 0.82),
		NewIngredient("두부", "순두부", "두부", 0.88),
		NewIngredient("물", "물", "물", 0.95),
	}
}

// demoResult fills r with the kimchi stew demo and completes it.
func demoResult(r *RecipeResult) {
	meta := DemoMetadata()
	cuisine := newAssessment(CuisineKorean, 0.95, demoRationale)
	initial := cuisine

	r.Demo = true
	r.VideoID = meta.VideoID
	r.Title = meta.Title
	r.Metadata = meta
	r.Transcript = demoTranscript
	r.Ingredients = demoIngredients()
	r.InitialCuisine = &initial
	r.Cuisine = &cuisine
	r.transition(StatusCompleted)
}
