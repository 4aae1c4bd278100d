package learner

import "github.com/learnhub/learning-progress-hub/internal/domain/shared"

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События, которые публикует леджер при каждой мутации долговечного
// состояния. Наблюдатель синхронизации подписан на все из них.
// ══════════════════════════════════════════════════════════════════════════════

// XPGainedEvent - обучающийся получил XP.
type XPGainedEvent struct {
	shared.BaseEvent
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // direct, achievement_reward, daily_reward, first_login
}

// AchievementUnlockedEvent - разблокировано достижение.
type AchievementUnlockedEvent struct {
	shared.BaseEvent
	Achievement shared.AchievementID `json:"achievement"`
	RewardXP    int                  `json:"reward_xp"`
}

// HeartsChangedEvent - изменилось количество сердец.
type HeartsChangedEvent struct {
	shared.BaseEvent
	Hearts int    `json:"hearts"`
	Reason string `json:"reason"` // lost, restored, regenerated, exchanged, chapter_bonus
}

// StreakUpdatedEvent - обновлена серия дней активности.
type StreakUpdatedEvent struct {
	shared.BaseEvent
	Streak int `json:"streak"`
}

// QuizRecordedEvent - зафиксирован результат квиза.
type QuizRecordedEvent struct {
	shared.BaseEvent
	Passed     bool `json:"passed"`
	QuizStreak int  `json:"quiz_streak"`
}

// ChapterCompletedEvent - завершена глава.
type ChapterCompletedEvent struct {
	shared.BaseEvent
	ChapterID shared.ChapterID `json:"chapter_id"`
	FirstTime bool             `json:"first_time"`
}

// CourseCompletedEvent - завершён курс.
type CourseCompletedEvent struct {
	shared.BaseEvent
	CourseID  shared.CourseID `json:"course_id"`
	Completed int             `json:"completed"`
}

// RewardClaimedEvent - получена награда (ежедневная или разовая).
type RewardClaimedEvent struct {
	shared.BaseEvent
	Kind string `json:"kind"` // daily_login, first_login
	XP   int    `json:"xp"`
}

// ProgressUpdatedEvent - прочая мутация долговечного состояния
// (чтение, слова, позиция, цель, XP по учебному плану).
type ProgressUpdatedEvent struct {
	shared.BaseEvent
	Field string `json:"field"`
}

// ProgressResetEvent - прогресс сброшен к начальному состоянию.
type ProgressResetEvent struct {
	shared.BaseEvent
}

// ProgressLoadedEvent - состояние перезаписано снапшотом сервера.
type ProgressLoadedEvent struct {
	shared.BaseEvent
}
