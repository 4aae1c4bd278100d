// Package learner содержит доменную модель прогресса обучающегося:
// экономику XP и "сердец", серии активности, достижения и гейты наград.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultMaxHearts - стартовый лимит сердец.
	DefaultMaxHearts = 5

	// DefaultDailyGoalMinutes - дневная цель чтения по умолчанию.
	DefaultDailyGoalMinutes = 10

	// HeartRegenInterval - интервал восстановления одного сердца.
	// Восстановление ленивое: пересчитывается только при явной проверке.
	HeartRegenInterval = 30 * time.Minute

	// HeartExchangeCost - стоимость обмена XP на одно сердце.
	HeartExchangeCost = 100

	// DailyRewardBaseXP - базовая награда за ежедневный вход.
	DailyRewardBaseXP = 10

	// DailyRewardStreakBonus - множитель бонуса за серию (bonus = множитель × серия).
	DailyRewardStreakBonus = 5

	// FirstLoginRewardXP - разовая награда за самый первый вход.
	FirstLoginRewardXP = 50
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - полное состояние прогресса одного обучающегося.
// JSON-имена совпадают с форматом удалённого хранилища (camelCase,
// исторические имена вроде lastReadDate сохранены как есть).
type Snapshot struct {
	// TotalXP - суммарные очки опыта. Никогда не отрицательные.
	TotalXP int `json:"totalXP"`

	// Hearts - текущее количество сердец, в диапазоне [0, MaxHearts].
	Hearts int `json:"hearts"`

	// MaxHearts - максимум сердец. Всегда положительный.
	MaxHearts int `json:"maxHearts"`

	// Streak - серия календарных дней с активностью.
	Streak int `json:"streak"`

	// LastActivityDate - календарный день последней активности ("2006-01-02").
	// Пустая строка означает отсутствие активности.
	LastActivityDate string `json:"lastReadDate"`

	// QuizzesPassed - количество пройденных квизов.
	QuizzesPassed int `json:"quizzesPassed"`

	// QuizStreak - серия подряд пройденных квизов. Независима от Streak.
	QuizStreak int `json:"quizStreak"`

	// CurrentChapter и CurrentSection - текущая позиция в материале.
	CurrentChapter int `json:"currentChapter"`
	CurrentSection int `json:"currentSection"`

	// ChaptersCompleted - завершённые главы. Только растёт.
	ChaptersCompleted []shared.ChapterID `json:"chaptersCompleted"`

	// CoursesCompleted - завершённые курсы. Только растёт.
	CoursesCompleted []shared.CourseID `json:"coursesCompleted"`

	// Achievements - полученные достижения. Только растёт.
	Achievements []shared.AchievementID `json:"achievements"`

	// FirstPassedQuizzes - гейт идемпотентности наград за квизы.
	// Квиз попадает сюда ровно один раз; повторное прохождение не даёт XP.
	FirstPassedQuizzes []shared.QuizID `json:"firstPassedQuizzes"`

	// WordsLearned - выученные слова (простое множество).
	WordsLearned []string `json:"wordsLearned"`

	// TotalReadingTime - суммарное время чтения в минутах.
	TotalReadingTime int `json:"totalReadingTime"`

	// DailyGoalMinutes - дневная цель чтения.
	DailyGoalMinutes int `json:"dailyGoalMinutes"`

	// OnboardingCompleted - пройден ли онбординг.
	OnboardingCompleted bool `json:"onboardingCompleted"`

	// LastLoginRewardDate - день последней ежедневной награды ("2006-01-02").
	LastLoginRewardDate string `json:"lastLoginRewardDate"`

	// FirstLoginRewardClaimed - получена ли разовая награда за первый вход.
	FirstLoginRewardClaimed bool `json:"firstLoginRewardClaimed"`

	// XPBySyllabus - XP в разрезе учебных планов.
	// Независимая экономика: никогда не зеркалируется в TotalXP.
	XPBySyllabus map[shared.SyllabusID]int `json:"xpBySyllabus"`

	// LastHeartLoss - момент последней потери сердца.
	// Локальное поле, сервер им не владеет и не перезаписывает.
	LastHeartLoss *time.Time `json:"-"`
}

// DefaultSnapshot возвращает начальное состояние прогресса.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Hearts:             DefaultMaxHearts,
		MaxHearts:          DefaultMaxHearts,
		DailyGoalMinutes:   DefaultDailyGoalMinutes,
		CurrentChapter:     1,
		ChaptersCompleted:  []shared.ChapterID{},
		CoursesCompleted:   []shared.CourseID{},
		Achievements:       []shared.AchievementID{},
		FirstPassedQuizzes: []shared.QuizID{},
		WordsLearned:       []string{},
		XPBySyllabus:       map[shared.SyllabusID]int{},
	}
}

// Clone создаёт глубокую копию снапшота.
func (s Snapshot) Clone() Snapshot {
	clone := s

	clone.ChaptersCompleted = append([]shared.ChapterID(nil), s.ChaptersCompleted...)
	clone.CoursesCompleted = append([]shared.CourseID(nil), s.CoursesCompleted...)
	clone.Achievements = append([]shared.AchievementID(nil), s.Achievements...)
	clone.FirstPassedQuizzes = append([]shared.QuizID(nil), s.FirstPassedQuizzes...)
	clone.WordsLearned = append([]string(nil), s.WordsLearned...)

	clone.XPBySyllabus = make(map[shared.SyllabusID]int, len(s.XPBySyllabus))
	for k, v := range s.XPBySyllabus {
		clone.XPBySyllabus[k] = v
	}

	if s.LastHeartLoss != nil {
		t := *s.LastHeartLoss
		clone.LastHeartLoss = &t
	}

	return clone
}

// Normalize приводит nil-коллекции к пустым после десериализации.
func (s *Snapshot) Normalize() {
	if s.ChaptersCompleted == nil {
		s.ChaptersCompleted = []shared.ChapterID{}
	}
	if s.CoursesCompleted == nil {
		s.CoursesCompleted = []shared.CourseID{}
	}
	if s.Achievements == nil {
		s.Achievements = []shared.AchievementID{}
	}
	if s.FirstPassedQuizzes == nil {
		s.FirstPassedQuizzes = []shared.QuizID{}
	}
	if s.WordsLearned == nil {
		s.WordsLearned = []string{}
	}
	if s.XPBySyllabus == nil {
		s.XPBySyllabus = map[shared.SyllabusID]int{}
	}
	if s.MaxHearts <= 0 {
		s.MaxHearts = DefaultMaxHearts
	}
	if s.Hearts < 0 {
		s.Hearts = 0
	}
	if s.Hearts > s.MaxHearts {
		s.Hearts = s.MaxHearts
	}
}

// HasAchievement проверяет наличие достижения.
func (s Snapshot) HasAchievement(id shared.AchievementID) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// HasPassedQuiz проверяет, проходил ли обучающийся квиз раньше.
func (s Snapshot) HasPassedQuiz(id shared.QuizID) bool {
	for _, q := range s.FirstPassedQuizzes {
		if q == id {
			return true
		}
	}
	return false
}

// HasCompletedChapter проверяет, завершена ли глава.
func (s Snapshot) HasCompletedChapter(id shared.ChapterID) bool {
	for _, c := range s.ChaptersCompleted {
		if c == id {
			return true
		}
	}
	return false
}
