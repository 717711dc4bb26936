package database

import (
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Standard{},
		&model.QuizResult{},
		&model.UserSetting{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认成就标准，库为空时插入，保证新环境可直接选题学习
	var count int64
	db.Model(&model.Standard{}).Count(&count)
	if count == 0 {
		defaults := []model.Standard{
			{Subject: "국어", SchoolLevel: "elementary", GradeBand: "3-4", Code: "4국01-01", Description: "대화의 즐거움을 알고 대화를 나눈다."},
			{Subject: "수학", SchoolLevel: "elementary", GradeBand: "3-4", Code: "4수01-01", Description: "10000 이하의 수를 이해하고 수를 세고 읽고 쓸 수 있다."},
			{Subject: "영어", SchoolLevel: "middle", GradeBand: "1-3", Code: "9영02-01", Description: "일상생활 주제에 관한 말이나 대화를 듣고 세부 정보를 파악할 수 있다."},
			{Subject: "과학", SchoolLevel: "middle", GradeBand: "1-3", Code: "9과01-01", Description: "과학적 탐구 방법을 이해하고 일상생활의 문제를 과학적으로 탐구할 수 있다."},
			{Subject: "사회", SchoolLevel: "high", GradeBand: "1-3", Code: "10사01-01", Description: "사회 문제를 다양한 관점에서 분석하고 해결 방안을 모색한다."},
		}
		for _, std := range defaults {
			db.Create(&std)
		}
		log.Println("Seeded default standards")
	}

	return db, nil
}
