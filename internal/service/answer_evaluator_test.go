package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"空串", "", ""},
		{"全空白", " \t\n ", ""},
		{"去空白并转小写", "  The Answer  ", "theanswer"},
		{"去掉末尾句点", "정답입니다.", "정답입니다"},
		{"去掉末尾逗号", "answer,", "answer"},
		{"只去一个末尾标点", "a,.", "a,"},
		{"中间标点保留", "3.14", "3.14"},
		{"全角空白也去掉", "정　답", "정답"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAnswer(tt.in))
		})
	}
}

func TestNormalizeAnswerIdempotent(t *testing.T) {
	inputs := []string{"", "  Hello World. ", "a,.", "정답 입니다.", "① 3"}
	for _, in := range inputs {
		once := NormalizeAnswer(in)
		assert.Equal(t, once, NormalizeAnswer(once), "input %q", in)
	}
}

func TestMatchAnswerDirectText(t *testing.T) {
	// 规则1在没有下标时也生效
	assert.True(t, MatchAnswer("Seoul", "seoul", PositionNone))
	assert.True(t, MatchAnswer(" seoul. ", "Seoul", 2))

	// 归一化为空的选项永不按规则1命中
	assert.False(t, MatchAnswer("", "", PositionNone))
	assert.False(t, MatchAnswer("   ", "", 0))
}

func TestMatchAnswerOrdinal(t *testing.T) {
	// 规则2：1-based序号
	assert.True(t, MatchAnswer("사과", "3", 2))
	assert.False(t, MatchAnswer("사과", "3", 1))
	assert.False(t, MatchAnswer("사과", "3", PositionNone))
}

func TestMatchAnswerCircledDigit(t *testing.T) {
	// 规则3：带圈数字
	assert.True(t, MatchAnswer("바나나", "②", 1))
	assert.False(t, MatchAnswer("바나나", "②", 0))

	// 规则5：答案文本中包含带圈数字
	assert.True(t, MatchAnswer("바나나", "정답은 ② 입니다", 1))
	assert.False(t, MatchAnswer("바나나", "정답은 ③ 입니다", 1))

	// 下标超出①-⑩范围不panic
	assert.False(t, MatchAnswer("opt", "⑩", 10))
	assert.False(t, MatchAnswer("opt", "x", 99))
}

func TestMatchAnswerNumberedPrefix(t *testing.T) {
	// 规则4："N." / "N)" / "(N)"
	assert.True(t, MatchAnswer("foo", "2. 바나나", 1))
	assert.True(t, MatchAnswer("foo", "2) 바나나", 1))
	assert.True(t, MatchAnswer("foo", "(2) 바나나", 1))
	assert.False(t, MatchAnswer("foo", "12. 바나나", 1))
}

func TestMatchAnswerCircledOptionScenario(t *testing.T) {
	// 选项本身就是带圈数字开头的情形
	options := []string{"①3", "②5", "③7"}
	answer := "②"

	for i, opt := range options {
		pos := OptionPosition(options, opt)
		assert.Equal(t, i, pos)
		got := MatchAnswer(opt, answer, pos)
		assert.Equal(t, i == 1, got, "option %q", opt)
	}
}

func TestOptionPosition(t *testing.T) {
	options := []string{"a", "b", "c"}
	assert.Equal(t, 0, OptionPosition(options, "a"))
	assert.Equal(t, 2, OptionPosition(options, "c"))
	assert.Equal(t, PositionNone, OptionPosition(options, "d"))
	assert.Equal(t, PositionNone, OptionPosition(nil, "a"))
}
