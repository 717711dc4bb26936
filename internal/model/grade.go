package model

// Grade 主观题评分等级，五级字母制，各级对应固定权重
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

var gradeWeights = map[Grade]float64{
	GradeA: 1.0,
	GradeB: 0.75,
	GradeC: 0.5,
	GradeD: 0.25,
	GradeE: 0.0,
}

// Weight 未设置的等级按0分计
func (g Grade) Weight() float64 {
	return gradeWeights[g]
}

func (g Grade) Valid() bool {
	_, ok := gradeWeights[g]
	return ok
}

// CountsCorrect 等级A/B计入正确题数。D虽有0.25权重但不算正确，
// 75%为既定的正确判定线。
func (g Grade) CountsCorrect() bool {
	return g.Weight() >= 0.75
}
