// Package cms holds the editable site content: the category taxonomy and
// the bilingual marketing copy of the home, about and project sections.
package cms

import (
	"encoding/json"

	"github.com/eringen/qaboard/i18n"
)

// Section keys of the content document.
const (
	SectionCategories = "categories"
	SectionHero       = "hero"
	SectionFeatures   = "features"
	SectionAbout      = "about"
	SectionProjects   = "projects"
)

// Sections lists every known section key.
var Sections = []string{SectionCategories, SectionHero, SectionFeatures, SectionAbout, SectionProjects}

// Copy is a block of bilingual text keyed "<field>_<lang>", for example
// "title_en" and "title_ko".
type Copy map[string]string

// Localized returns field in lang, falling back to English and then to "".
func Localized(c Copy, field string, lang i18n.Lang) string {
	if v := c[field+"_"+string(lang)]; v != "" {
		return v
	}
	return c[field+"_"+string(i18n.English)]
}

// Project is one card of the projects section. On the wire its copy is
// flattened next to the label and tags.
type Project struct {
	Label string
	Tags  []string
	Copy  Copy
}

func (p Project) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Copy)+2)
	for k, v := range p.Copy {
		m[k] = v
	}
	m["label"] = p.Label
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	m["tags"] = tags
	return json.Marshal(m)
}

func (p *Project) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Project{Copy: Copy{}}
	for k, v := range raw {
		switch k {
		case "label":
			if err := json.Unmarshal(v, &p.Label); err != nil {
				return err
			}
		case "tags":
			if err := json.Unmarshal(v, &p.Tags); err != nil {
				return err
			}
		default:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Copy[k] = s
		}
	}
	return nil
}

// Content is the whole content document.
type Content struct {
	Categories []string  `json:"categories"`
	Hero       Copy      `json:"hero"`
	Features   []Copy    `json:"features"`
	About      Copy      `json:"about"`
	Projects   []Project `json:"projects"`
}

// clone returns a deep copy of c through its JSON form.
func (c Content) clone() Content {
	b, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out Content
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

// Default returns the built-in content.
func Default() Content {
	return defaultContent.clone()
}

var defaultContent = Content{
	Categories: []string{"RH", "VV", "commercial", "user acquisition"},
	Hero: Copy{
		"title1_en": "Building Together",
		"title1_ko": "함께 만들어가는",
		"title2_en": "Better Answers",
		"title2_ko": "더 나은 답변",
		"desc_en":   "A space where customer questions are answered quickly and accurately, with all records transparently shared. Easily search through past Q&A.",
		"desc_ko":   "고객의 질문에 빠르고 정확하게 답하고, 모든 기록이 투명하게 공유되는 공간입니다. 과거의 질문과 답변을 쉽게 찾아보세요.",
	},
	Features: []Copy{
		{
			"title_en": "Fast Search",
			"title_ko": "빠른 검색",
			"desc_en":  "Quickly find past questions by category, date, and questioner. No need to ask the same question twice.",
			"desc_ko":  "카테고리, 날짜, 질문자별로 과거 질문을 빠르게 찾을 수 있습니다. 같은 질문을 반복하지 않아도 됩니다.",
		},
		{
			"title_en": "Transparent Communication",
			"title_ko": "투명한 소통",
			"desc_en":  "All questions and answers are viewable, ensuring the entire team shares the same information.",
			"desc_ko":  "모든 질문과 답변이 열람 가능하여, 팀 전체가 동일한 정보를 공유합니다.",
		},
		{
			"title_en": "Progress Tracking",
			"title_ko": "진행 추적",
			"desc_en":  "Track resolution status and follow-ups at a glance to ensure nothing falls through the cracks.",
			"desc_ko":  "해결 여부와 후속 조치(F/U)를 한눈에 파악하여 누락 없이 관리합니다.",
		},
	},
	About: Copy{
		"title_en": "Efficient Communication,\nSystematic Management",
		"title_ko": "효율적인 소통,\n체계적인 관리",
		"desc1_en": "No need to rewrite answers to repeated questions. This board is designed to record all Q&A and make it easily searchable.",
		"desc1_ko": "반복되는 질문에 대한 답변을 매번 다시 작성할 필요가 없습니다. 이 게시판은 모든 Q&A를 기록하고, 쉽게 검색할 수 있도록 설계되었습니다.",
		"desc2_en": "Categorized by RH, VV, Commercial, User Acquisition and more. Find the information you need instantly.",
		"desc2_ko": "RH, VV, Commercial, User Acquisition 등 카테고리별로 분류하여 필요한 정보를 즉시 찾으세요.",
	},
	Projects: []Project{
		{
			Label: "RH",
			Tags:  []string{"Strategy", "Operations", "Analysis"},
			Copy: Copy{
				"title_en": "RH Operations",
				"title_ko": "RH Operations",
				"desc_en":  "Operations and strategy projects related to RH. A core question category with a systematic answer framework.",
				"desc_ko":  "RH 관련 운영 및 전략 프로젝트입니다. 고객 문의의 핵심 카테고리로, 체계적인 답변 체계를 구축하고 있습니다.",
			},
		},
		{
			Label: "VV",
			Tags:  []string{"Data", "Insights", "Growth"},
			Copy: Copy{
				"title_en": "VV Insights",
				"title_ko": "VV Insights",
				"desc_en":  "Data analysis and insight generation for the VV segment. Creating tangible business value.",
				"desc_ko":  "VV 부문의 데이터 분석 및 인사이트 도출 프로젝트입니다. 실질적인 비즈니스 가치를 창출합니다.",
			},
		},
		{
			Label: "Commercial",
			Tags:  []string{"Market", "Commercial", "US Team"},
			Copy: Copy{
				"title_en": "Commercial Strategy",
				"title_ko": "Commercial Strategy",
				"desc_en":  "Commercial strategy and market analysis. Collaborating with US-commercial team to strengthen market competitiveness.",
				"desc_ko":  "상업 전략 및 시장 분석 프로젝트입니다. US-commercial 팀과 협업하여 시장 경쟁력을 강화합니다.",
			},
		},
		{
			Label: "User Acquisition",
			Tags:  []string{"Acquisition", "Retention", "Analytics"},
			Copy: Copy{
				"title_en": "User Acquisition",
				"title_ko": "User Acquisition",
				"desc_en":  "User acquisition strategy with data-driven approaches for efficient user growth and retention.",
				"desc_ko":  "사용자 확보 전략 프로젝트입니다. 효율적인 유저 획득과 리텐션을 위한 데이터 기반 접근을 추구합니다.",
			},
		},
	},
}
