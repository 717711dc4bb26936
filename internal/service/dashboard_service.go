package service

import (
	"edu_tutor_backend/internal/repository"
)

// Dashboard 成绩仪表盘：总览 + 按科目聚合
type Dashboard struct {
	Overall  *repository.OverallStat  `json:"overall"`
	Subjects []repository.SubjectStat `json:"subjects"`
}

type DashboardService struct {
	resultRepo *repository.QuizResultRepository
}

func NewDashboardService(resultRepo *repository.QuizResultRepository) *DashboardService {
	return &DashboardService{resultRepo: resultRepo}
}

func (s *DashboardService) Build(userID uint) (*Dashboard, error) {
	overall, err := s.resultRepo.OverallByUser(userID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.resultRepo.StatsByUser(userID)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []repository.SubjectStat{}
	}
	return &Dashboard{Overall: overall, Subjects: subjects}, nil
}
