package service

import (
	"strconv"
	"strings"
	"unicode"
)

// PositionNone 表示选项下标不可用，此时只做文本直接比对
const PositionNone = -1

// 题目答案中常见的带圈数字，按选项下标0-9对应①-⑩
var circledDigits = []string{"①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨", "⑩"}

// NormalizeAnswer 答案归一化：去掉所有空白，去掉一个末尾句点或逗号，转小写。
// 候选答案与标准答案在比对前都先经过同样的归一化，幂等。
func NormalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if strings.HasSuffix(out, ".") {
		out = strings.TrimSuffix(out, ".")
	} else if strings.HasSuffix(out, ",") {
		out = strings.TrimSuffix(out, ",")
	}
	return strings.ToLower(out)
}

// MatchAnswer 判定选中的选项是否命中标准答案。
// selected为选项原文，answer为标准答案原文，position为选项在选项表中的
// 零基下标（PositionNone表示无下标可用，只按规则1比对）。
// 规则按序评估，先命中先赢：
//  1. 归一化后文本相等
//  2. 标准答案等于选项的1-based序号（如第三个选项对应"3"）
//  3. 标准答案等于该下标对应的带圈数字
//  4. 标准答案以 "N." / "N)" / "(N)" 开头
//  5. 标准答案任意位置包含该下标对应的带圈数字
//
// 纯函数，对任意输入（含空串）都不会panic。
func MatchAnswer(selected, answer string, position int) bool {
	normSel := NormalizeAnswer(selected)
	normAns := NormalizeAnswer(answer)

	// 规则1：直接比对
	if normSel != "" && normSel == normAns {
		return true
	}

	if position == PositionNone || position < 0 {
		return false
	}

	// 规则2：1-based序号
	ordinal := strconv.Itoa(position + 1)
	if normAns == ordinal {
		return true
	}

	// 规则3：带圈数字
	if position < len(circledDigits) && normAns == circledDigits[position] {
		return true
	}

	// 规则4：序号前缀 "N." / "N)" / "(N)"
	if strings.HasPrefix(normAns, ordinal+".") ||
		strings.HasPrefix(normAns, ordinal+")") ||
		strings.HasPrefix(normAns, "("+ordinal+")") {
		return true
	}

	// 规则5：答案文本中包含带圈数字
	if position < len(circledDigits) && strings.Contains(normAns, circledDigits[position]) {
		return true
	}

	return false
}

// OptionPosition 返回选项在选项表中的零基下标，找不到返回PositionNone
func OptionPosition(options []string, selected string) int {
	for i, opt := range options {
		if opt == selected {
			return i
		}
	}
	return PositionNone
}
