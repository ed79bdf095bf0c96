package normalize

import (
	"strings"
	"unicode/utf8"
)

// Canonical provinces. A fragment equal to one of these passes through unchanged.
var Provinces = []string{
	"서울", "부산", "대구", "인천", "광주",
	"대전", "울산", "세종", "경기", "강원",
	"충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

var genderTable = Table{
	{"남성", "남성"},
	{"남자", "남성"},
	{"남", "남성"},
	{"male", "남성"},
	{"m", "남성"},
	{"여성", "여성"},
	{"여자", "여성"},
	{"여", "여성"},
	{"female", "여성"},
	{"f", "여성"},
}

// Shared district names such as "남구" or "중구" resolve to the single
// province listed here even though other provinces have a district of the
// same name.
var locationTable = concatPlaces(
	districts("서울",
		"강남구", "서초구", "송파구", "강동구", "마포구", "용산구", "종로구", "중구",
		"성동구", "광진구", "동대문구", "중랑구", "성북구", "강북구", "도봉구", "노원구",
		"은평구", "서대문구", "양천구", "강서구", "구로구", "금천구", "영등포구", "동작구",
		"관악구",
	),
	districts("부산", "해운대구", "남구", "동래구", "수영구"),
	Places{
		{Key: "서울특별시", Province: "서울"},
		{Key: "서울시", Province: "서울"},
		{Key: "부산광역시", Province: "부산"},
		{Key: "부산시", Province: "부산"},
		{Key: "대구광역시", Province: "대구"},
		{Key: "대구시", Province: "대구"},
		{Key: "인천광역시", Province: "인천"},
		{Key: "인천시", Province: "인천"},
		{Key: "광주광역시", Province: "광주"},
		{Key: "광주시", Province: "광주"},
		{Key: "대전광역시", Province: "대전"},
		{Key: "대전시", Province: "대전"},
		{Key: "울산광역시", Province: "울산"},
		{Key: "울산시", Province: "울산"},
		{Key: "세종특별자치시", Province: "세종"},
		{Key: "세종시", Province: "세종"},
		{Key: "경기도", Province: "경기"},
		{Key: "강원특별자치도", Province: "강원"},
		{Key: "강원도", Province: "강원"},
		{Key: "충청북도", Province: "충북"},
		{Key: "충북도", Province: "충북"},
		{Key: "충청남도", Province: "충남"},
		{Key: "충남도", Province: "충남"},
		{Key: "전라북도", Province: "전북"},
		{Key: "전북도", Province: "전북"},
		{Key: "전라남도", Province: "전남"},
		{Key: "전남도", Province: "전남"},
		{Key: "경상북도", Province: "경북"},
		{Key: "경북도", Province: "경북"},
		{Key: "경상남도", Province: "경남"},
		{Key: "경남도", Province: "경남"},
		{Key: "제주특별자치도", Province: "제주"},
		{Key: "제주도", Province: "제주"},
	},
)

var jobTable = Table{
	{"개발자", "IT/기술"},
	{"프로그래머", "IT/기술"},
	{"소프트웨어", "IT/기술"},
	{"엔지니어", "IT/기술"},
	{"데이터", "IT/기술"},
	{"it", "IT/기술"},
	{"기술직", "IT/기술"},

	{"은행원", "금융/보험"},
	{"금융", "금융/보험"},
	{"보험", "금융/보험"},
	{"증권", "금융/보험"},

	{"제조", "제조/생산"},
	{"생산", "제조/생산"},
	{"공장", "제조/생산"},

	{"판매", "유통/판매"},
	{"영업", "유통/판매"},
	{"유통", "유통/판매"},
	{"마케팅", "유통/판매"},

	{"교사", "교육"},
	{"강사", "교육"},
	{"선생님", "교육"},
	{"교수", "교육"},

	{"의사", "의료/보건"},
	{"간호사", "의료/보건"},
	{"약사", "의료/보건"},
	{"의료", "의료/보건"},

	{"공무원", "공무원"},
	{"공직", "공무원"},

	{"자영업", "자영업"},
	{"사업", "자영업"},
	{"가게", "자영업"},

	{"학생", "학생"},
	{"대학생", "학생"},

	{"주부", "주부"},
	{"가정주부", "주부"},

	{"무직", "무직"},
	{"백수", "무직"},
	{"취준생", "무직"},
}

// Graduate forms precede "대학" so that "대학원" is not read as a bachelor's degree.
var educationTable = Table{
	{"고졸", "고졸 이하"},
	{"고등학교", "고졸 이하"},
	{"중졸", "고졸 이하"},
	{"재학", "대학 재학"},
	{"대학생", "대학 재학"},
	{"석사", "대학원 이상"},
	{"박사", "대학원 이상"},
	{"대학원", "대학원 이상"},
	{"대학교", "대졸"},
	{"대학", "대졸"},
	{"학사", "대졸"},
	{"대졸", "대졸"},
}

var incomeTable = Table{
	{"저소득", "하"},
	{"낮음", "하"},
	{"중간", "중"},
	{"보통", "중"},
	{"평균", "중"},
	{"높음", "상"},
	{"고소득", "상"},
}

var maritalTable = Table{
	{"미혼", "미혼"},
	{"싱글", "미혼"},
	{"독신", "미혼"},
	{"결혼", "기혼"},
	{"기혼", "기혼"},
	{"배우자", "기혼"},
	{"부부", "기혼"},
}

// particles are trailing postpositions stripped from a token before exact
// lookups, longest first.
var particles = []string{
	"에서는", "에서", "으로", "에게", "까지", "부터", "에는",
	"은", "는", "이", "가", "을", "를", "에", "의", "와", "과", "로", "도", "만",
}

// districts expands district names into rules for a province. A name like
// "강남구" yields "강남" then "강남구"; one-syllable stems such as "중" are
// too ambiguous and only the full name is kept.
func districts(province string, names ...string) Places {
	out := make(Places, 0, len(names)*2)
	for _, name := range names {
		stem := strings.TrimSuffix(name, "구")
		if stem != name && utf8.RuneCountInString(stem) >= 2 {
			out = append(out, Place{Key: stem, Province: province, District: name})
		}
		out = append(out, Place{Key: name, Province: province, District: name})
	}
	return out
}

func concatPlaces(groups ...Places) Places {
	var out Places
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
