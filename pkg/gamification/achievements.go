package gamification

import "palavraviva/pkg/domain"

// DefaultAchievements is the static milestone catalog.
var DefaultAchievements = []domain.Achievement{
	{ID: "first-chapter", Title: "Primeiro Capítulo", RequiredCount: 1, Type: domain.AchievementReading},
	{ID: "reader-7", Title: "Leitor Dedicado", RequiredCount: 7, Type: domain.AchievementReading},
	{ID: "reader-30", Title: "Devorador da Palavra", RequiredCount: 30, Type: domain.AchievementReading},
	{ID: "first-reflection", Title: "Primeira Reflexão", RequiredCount: 1, Type: domain.AchievementReflection},
	{ID: "reflective-10", Title: "Coração Reflexivo", RequiredCount: 10, Type: domain.AchievementReflection},
	{ID: "streak-3", Title: "Três Dias Seguidos", RequiredCount: 3, Type: domain.AchievementStreak},
	{ID: "streak-7", Title: "Uma Semana Fiel", RequiredCount: 7, Type: domain.AchievementStreak},
	{ID: "reader-100", Title: "Centurião das Escrituras", RequiredCount: 100, Type: domain.AchievementReading, ProOnly: true},
	{ID: "streak-30", Title: "Mês de Comunhão", RequiredCount: 30, Type: domain.AchievementStreak, ProOnly: true},
}
