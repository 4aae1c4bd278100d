package learner

import "github.com/learnhub/learning-progress-hub/internal/domain/shared"

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS (Достижения)
// ══════════════════════════════════════════════════════════════════════════════

const (
	// AchievementXP100 - набрано 100 XP.
	AchievementXP100 shared.AchievementID = "xp_100"
	// AchievementXP500 - набрано 500 XP.
	AchievementXP500 shared.AchievementID = "xp_500"
	// AchievementXP1000 - набрано 1000 XP.
	AchievementXP1000 shared.AchievementID = "xp_1000"

	// AchievementStreak3 - 3 дня активности подряд.
	AchievementStreak3 shared.AchievementID = "streak_3"
	// AchievementStreak7 - 7 дней активности подряд.
	AchievementStreak7 shared.AchievementID = "streak_7"
	// AchievementStreak30 - 30 дней активности подряд.
	AchievementStreak30 shared.AchievementID = "streak_30"

	// AchievementFirstCourse - завершён первый курс.
	AchievementFirstCourse shared.AchievementID = "first_course"
	// AchievementCourses3 - завершено 3 курса.
	AchievementCourses3 shared.AchievementID = "courses_3"
	// AchievementCourses5 - завершено 5 курсов.
	AchievementCourses5 shared.AchievementID = "courses_5"
	// AchievementAllCourses - завершены все курсы каталога.
	AchievementAllCourses shared.AchievementID = "all_courses"
)

// DefaultAchievementReward - награда для достижений без записи в таблице.
const DefaultAchievementReward = 20

// achievementRewards - таблица фиксированных XP-наград за достижения.
var achievementRewards = map[shared.AchievementID]int{
	AchievementXP100:       20,
	AchievementXP500:       50,
	AchievementXP1000:      100,
	AchievementStreak3:     30,
	AchievementStreak7:     70,
	AchievementStreak30:    300,
	AchievementFirstCourse: 50,
	AchievementCourses3:    100,
	AchievementCourses5:    150,
	AchievementAllCourses:  500,
}

// AchievementReward возвращает XP-награду за достижение.
func AchievementReward(id shared.AchievementID) int {
	if reward, ok := achievementRewards[id]; ok {
		return reward
	}
	return DefaultAchievementReward
}

// xpMilestones - пороги TotalXP и соответствующие достижения.
// Проверяются только внутри AddXP (см. примечание к UnlockAchievement).
var xpMilestones = []struct {
	Threshold int
	ID        shared.AchievementID
}{
	{100, AchievementXP100},
	{500, AchievementXP500},
	{1000, AchievementXP1000},
}

// streakMilestones - пороги серии дней и соответствующие достижения.
var streakMilestones = []struct {
	Days int
	ID   shared.AchievementID
}{
	{3, AchievementStreak3},
	{7, AchievementStreak7},
	{30, AchievementStreak30},
}

// courseMilestones - пороги количества завершённых курсов.
var courseMilestones = []struct {
	Count int
	ID    shared.AchievementID
}{
	{1, AchievementFirstCourse},
	{3, AchievementCourses3},
	{5, AchievementCourses5},
}
