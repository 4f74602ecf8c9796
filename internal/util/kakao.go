package util

import "strings"

const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "​"
)

// ApplyKakaoSeeMorePadding 는 instruction 뒤에 제로폭 문자를 채워
// 본문이 카카오톡 '전체보기' 아래로 접히게 한다.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(instruction) + KakaoSeeMorePadding*len(KakaoZeroWidthSpace) + len(text) + 1)
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString(strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}

// StripLeadingHeader 는 첫 줄의 header 와 뒤따르는 빈 줄을 제거한다.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(header) == "" {
		return text
	}
	rest, ok := strings.CutPrefix(text, header)
	if !ok {
		return text
	}
	rest = strings.TrimPrefix(rest, "\r")
	rest = strings.TrimPrefix(rest, "\n")
	rest = strings.TrimPrefix(rest, "\r")
	return strings.TrimPrefix(rest, "\n")
}

// ApplySeeMoreWithHeader 는 text 의 첫 줄을 안내문으로 올리고 나머지를 접는다.
func ApplySeeMoreWithHeader(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	header, _, _ := strings.Cut(text, "\n")
	return ApplyKakaoSeeMorePadding(StripLeadingHeader(text, header), header)
}
