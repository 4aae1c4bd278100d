package learner

import (
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER
// Единственный мутатор прогресса. Все операции выполняются синхронно и
// до конца, поэтому внутри одного вызова состояние всегда консистентно.
// Ошибки выражаются булевыми результатами, а не паниками и не error.
// ══════════════════════════════════════════════════════════════════════════════

// Ledger - сервис прогресса одного активного обучающегося.
// Экземпляр создаётся корнем приложения и передаётся явно;
// никаких глобальных синглтонов.
type Ledger struct {
	userID shared.UserID
	snap   Snapshot

	// Локальные/эфемерные поля. Сервер ими не владеет:
	// LoadFromServer их не трогает, в снапшот они не сериализуются.
	sessionStartedAt int64 // unix, 0 если сессия не начата
	displayName      string
	theme            string
	syncing          bool

	clock     timeutil.Clock
	publisher shared.EventPublisher
}

// NewLedger создаёт леджер с начальным состоянием.
// nil-зависимости заменяются безопасными значениями по умолчанию.
func NewLedger(publisher shared.EventPublisher, clock timeutil.Clock) *Ledger {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Ledger{
		snap:      DefaultSnapshot(),
		clock:     clock,
		publisher: publisher,
	}
}

// publish отправляет событие. Публикация best-effort: леджер не зависит
// от доставки, наблюдатели сами отвечают за свои ошибки.
func (l *Ledger) publish(event shared.Event) {
	_ = l.publisher.Publish(event)
}

func (l *Ledger) base(t shared.EventType) shared.BaseEvent {
	e := shared.NewBaseEvent(t, l.userID.String())
	e.Timestamp = l.clock.Now()
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Identity
// ─────────────────────────────────────────────────────────────────────────────

// BindIdentity привязывает леджер к обучающемуся.
// Пустой id означает анонимное (гостевое) состояние.
func (l *Ledger) BindIdentity(id shared.UserID) {
	l.userID = id
}

// Identity возвращает текущую привязку. Пустая строка - гость.
func (l *Ledger) Identity() shared.UserID {
	return l.userID
}

// ─────────────────────────────────────────────────────────────────────────────
// XP
// ─────────────────────────────────────────────────────────────────────────────

// AddXP добавляет XP и оценивает пороги достижений (100/500/1000).
// Возвращает новое значение TotalXP.
func (l *Ledger) AddXP(amount int) int {
	return l.addXP(amount, "direct")
}

func (l *Ledger) addXP(amount int, source string) int {
	if amount <= 0 {
		return l.snap.TotalXP
	}

	l.snap.TotalXP += amount

	// Пороги оцениваются по сумме сразу после прямого начисления.
	// Награды за достижения начисляются мимо этой проверки (см.
	// UnlockAchievement), поэтому порог, перейдённый наградой, сработает
	// только при следующем прямом AddXP.
	total := l.snap.TotalXP

	l.publish(XPGainedEvent{
		BaseEvent: l.base(shared.EventXPGained),
		Amount:    amount,
		NewTotal:  total,
		Source:    source,
	})

	for _, m := range xpMilestones {
		if total >= m.Threshold && !l.snap.HasAchievement(m.ID) {
			l.UnlockAchievement(m.ID)
		}
	}

	return l.snap.TotalXP
}

// UnlockAchievement добавляет достижение и начисляет фиксированную награду.
// Награда прибавляется к TotalXP напрямую, минуя AddXP: иначе достижение
// могло бы рекурсивно триггерить новые пороговые достижения.
// Возвращает false, если достижение уже было получено (никаких изменений).
func (l *Ledger) UnlockAchievement(id shared.AchievementID) bool {
	if l.snap.HasAchievement(id) {
		return false
	}

	l.snap.Achievements = append(l.snap.Achievements, id)

	reward := AchievementReward(id)
	l.snap.TotalXP += reward

	l.publish(AchievementUnlockedEvent{
		BaseEvent:   l.base(shared.EventAchievementUnlocked),
		Achievement: id,
		RewardXP:    reward,
	})

	return true
}

// AddSyllabusXP начисляет XP в разрезе учебного плана.
// Никогда не трогает TotalXP - экономики намеренно независимы.
func (l *Ledger) AddSyllabusXP(id shared.SyllabusID, amount int) {
	if amount <= 0 || id == "" {
		return
	}
	l.snap.XPBySyllabus[id] += amount
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "xpBySyllabus"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Hearts (экономика сердец)
// ─────────────────────────────────────────────────────────────────────────────

// LoseHeart списывает одно сердце и запоминает момент потери.
// При нуле сердец вызов полностью игнорируется: счётчик не уходит в минус,
// отметка времени не обновляется.
func (l *Ledger) LoseHeart() {
	if l.snap.Hearts <= 0 {
		return
	}

	l.snap.Hearts--
	now := l.clock.Now()
	l.snap.LastHeartLoss = &now

	l.publish(HeartsChangedEvent{
		BaseEvent: l.base(shared.EventHeartsChanged),
		Hearts:    l.snap.Hearts,
		Reason:    "lost",
	})
}

// RestoreHeart добавляет одно сердце, не превышая MaxHearts.
func (l *Ledger) RestoreHeart() {
	l.restoreHeart("restored")
}

func (l *Ledger) restoreHeart(reason string) {
	if l.snap.Hearts >= l.snap.MaxHearts {
		return
	}

	l.snap.Hearts++
	if l.snap.Hearts >= l.snap.MaxHearts {
		l.snap.LastHeartLoss = nil
	}

	l.publish(HeartsChangedEvent{
		BaseEvent: l.base(shared.EventHeartsChanged),
		Hearts:    l.snap.Hearts,
		Reason:    reason,
	})
}

// CheckAndRestoreHearts - ленивый пересчёт регенерации.
// Фонового таймера нет: восстанавливается floor(elapsed / интервал) сердец
// за один вызов. Если максимум не достигнут, отметка LastHeartLoss
// передвигается на "сейчас" - недобранная часть интервала сгорает.
// Это осознанное упрощение ленивого пересчёта, а не ошибка планировщика.
// Возвращает количество восстановленных сердец.
func (l *Ledger) CheckAndRestoreHearts() int {
	if l.snap.Hearts >= l.snap.MaxHearts || l.snap.LastHeartLoss == nil {
		return 0
	}

	elapsed := l.clock.Now().Sub(*l.snap.LastHeartLoss)
	earned := int(elapsed / HeartRegenInterval)
	if earned <= 0 {
		return 0
	}

	missing := l.snap.MaxHearts - l.snap.Hearts
	if earned > missing {
		earned = missing
	}
	l.snap.Hearts += earned

	if l.snap.Hearts >= l.snap.MaxHearts {
		l.snap.LastHeartLoss = nil
	} else {
		now := l.clock.Now()
		l.snap.LastHeartLoss = &now
	}

	l.publish(HeartsChangedEvent{
		BaseEvent: l.base(shared.EventHeartsChanged),
		Hearts:    l.snap.Hearts,
		Reason:    "regenerated",
	})

	return earned
}

// ExchangeXPForHeart атомарно меняет 100 XP на одно сердце.
// Успех только при TotalXP >= 100 и Hearts < MaxHearts,
// иначе состояние не меняется и возвращается false.
func (l *Ledger) ExchangeXPForHeart() bool {
	if l.snap.TotalXP < HeartExchangeCost || l.snap.Hearts >= l.snap.MaxHearts {
		return false
	}

	l.snap.TotalXP -= HeartExchangeCost
	l.restoreHeart("exchanged")
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Streaks (серии)
// ─────────────────────────────────────────────────────────────────────────────

// UpdateStreak обновляет серию календарных дней активности.
// Сегодняшний день уже записан - no-op; вчерашний - серия продлевается;
// любое другое значение (включая пустое) - серия начинается заново с 1.
// Возвращает текущую серию.
func (l *Ledger) UpdateStreak() int {
	today := timeutil.Today(l.clock)

	switch l.snap.LastActivityDate {
	case today:
		return l.snap.Streak
	case timeutil.Yesterday(l.clock):
		l.snap.Streak++
	default:
		l.snap.Streak = 1
	}
	l.snap.LastActivityDate = today

	l.publish(StreakUpdatedEvent{
		BaseEvent: l.base(shared.EventStreakUpdated),
		Streak:    l.snap.Streak,
	})

	for _, m := range streakMilestones {
		if l.snap.Streak >= m.Days && !l.snap.HasAchievement(m.ID) {
			l.UnlockAchievement(m.ID)
		}
	}

	return l.snap.Streak
}

// RecordQuizPass фиксирует пройденный квиз и продлевает квизовую серию.
// Квизовая серия независима от серии дней.
func (l *Ledger) RecordQuizPass() {
	l.snap.QuizzesPassed++
	l.snap.QuizStreak++
	l.publish(QuizRecordedEvent{
		BaseEvent:  l.base(shared.EventQuizRecorded),
		Passed:     true,
		QuizStreak: l.snap.QuizStreak,
	})
}

// RecordQuizFail обнуляет квизовую серию.
func (l *Ledger) RecordQuizFail() {
	l.snap.QuizStreak = 0
	l.publish(QuizRecordedEvent{
		BaseEvent:  l.base(shared.EventQuizRecorded),
		Passed:     false,
		QuizStreak: 0,
	})
}

// RecordFirstQuizPass - гейт идемпотентности наград за квиз.
// Возвращает true ровно один раз за время жизни состояния (до сброса);
// вызывающий код обязан использовать результат как условие начисления
// любого XP за эту сдачу: пересдача уже пройденного квиза даёт ноль.
func (l *Ledger) RecordFirstQuizPass(id shared.QuizID) bool {
	if id == "" || l.snap.HasPassedQuiz(id) {
		return false
	}
	l.snap.FirstPassedQuizzes = append(l.snap.FirstPassedQuizzes, id)
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Completion (завершение глав и курсов)
// ─────────────────────────────────────────────────────────────────────────────

// CompleteChapter отмечает главу завершённой (идемпотентно) и безусловно
// восстанавливает одно сердце - даже если глава уже была завершена.
// Бонус намеренно не зависит от "новая/повторная".
func (l *Ledger) CompleteChapter(id shared.ChapterID) {
	first := !l.snap.HasCompletedChapter(id)
	if first {
		l.snap.ChaptersCompleted = append(l.snap.ChaptersCompleted, id)
	}

	l.restoreHeart("chapter_bonus")

	l.publish(ChapterCompletedEvent{
		BaseEvent: l.base(shared.EventChapterCompleted),
		ChapterID: id,
		FirstTime: first,
	})
}

// CompleteCourse отмечает курс завершённым (идемпотентное добавление в
// множество) и проверяет вехи 1/3/5/все. totalCount - размер каталога
// курсов; 0, если неизвестен (веха "все курсы" тогда не проверяется).
// Возвращает true, если курс завершён впервые.
func (l *Ledger) CompleteCourse(id shared.CourseID, totalCount int) bool {
	ids, added := shared.AppendCourse(l.snap.CoursesCompleted, id)
	if !added {
		return false
	}
	l.snap.CoursesCompleted = ids

	completed := len(ids)
	for _, m := range courseMilestones {
		if completed >= m.Count && !l.snap.HasAchievement(m.ID) {
			l.UnlockAchievement(m.ID)
		}
	}
	if totalCount > 0 && completed >= totalCount && !l.snap.HasAchievement(AchievementAllCourses) {
		l.UnlockAchievement(AchievementAllCourses)
	}

	l.publish(CourseCompletedEvent{
		BaseEvent: l.base(shared.EventCourseCompleted),
		CourseID:  id,
		Completed: completed,
	})

	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Reward gates (гейты наград)
// ─────────────────────────────────────────────────────────────────────────────

// ClaimDailyLoginReward выдаёт ежедневную награду не чаще раза в
// календарный день. Сначала обновляется серия, чтобы бонус считался по
// свежему значению: bonus = множитель × серия при серии > 1.
// Возвращает (начисленный XP, успех).
func (l *Ledger) ClaimDailyLoginReward() (int, bool) {
	today := timeutil.Today(l.clock)
	if l.snap.LastLoginRewardDate == today {
		return 0, false
	}

	l.UpdateStreak()

	reward := DailyRewardBaseXP
	if l.snap.Streak > 1 {
		reward += DailyRewardStreakBonus * l.snap.Streak
	}

	l.addXP(reward, "daily_reward")
	l.snap.LastLoginRewardDate = today

	l.publish(RewardClaimedEvent{
		BaseEvent: l.base(shared.EventRewardClaimed),
		Kind:      "daily_login",
		XP:        reward,
	})

	return reward, true
}

// ClaimFirstLoginReward выдаёт разовую награду за первый вход.
// Гейт - булев флаг: награда доступна ровно один раз за время жизни
// идентичности. Возвращает (начисленный XP, успех).
func (l *Ledger) ClaimFirstLoginReward() (int, bool) {
	if l.snap.FirstLoginRewardClaimed {
		return 0, false
	}

	l.snap.FirstLoginRewardClaimed = true
	l.addXP(FirstLoginRewardXP, "first_login")

	l.publish(RewardClaimedEvent{
		BaseEvent: l.base(shared.EventRewardClaimed),
		Kind:      "first_login",
		XP:        FirstLoginRewardXP,
	})

	return FirstLoginRewardXP, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Simple counters & flags
// ─────────────────────────────────────────────────────────────────────────────

// AddReadingTime прибавляет минуты чтения.
func (l *Ledger) AddReadingTime(minutes int) {
	if minutes <= 0 {
		return
	}
	l.snap.TotalReadingTime += minutes
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "totalReadingTime"})
}

// SetDailyGoal задаёт дневную цель чтения.
func (l *Ledger) SetDailyGoal(minutes int) {
	if minutes <= 0 {
		return
	}
	l.snap.DailyGoalMinutes = minutes
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "dailyGoalMinutes"})
}

// LearnWord добавляет слово в выученные. Возвращает true для нового слова.
func (l *Ledger) LearnWord(word string) bool {
	if word == "" {
		return false
	}
	for _, w := range l.snap.WordsLearned {
		if w == word {
			return false
		}
	}
	l.snap.WordsLearned = append(l.snap.WordsLearned, word)
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "wordsLearned"})
	return true
}

// AdvancePosition обновляет текущую позицию в материале.
func (l *Ledger) AdvancePosition(chapter, section int) {
	if chapter > 0 {
		l.snap.CurrentChapter = chapter
	}
	if section >= 0 {
		l.snap.CurrentSection = section
	}
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "position"})
}

// CompleteOnboarding отмечает онбординг пройденным.
func (l *Ledger) CompleteOnboarding() {
	if l.snap.OnboardingCompleted {
		return
	}
	l.snap.OnboardingCompleted = true
	l.publish(ProgressUpdatedEvent{BaseEvent: l.base(shared.EventProgressUpdated), Field: "onboardingCompleted"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Reset & server merge
// ─────────────────────────────────────────────────────────────────────────────

// Reset возвращает все поля к начальным значениям.
// Чистку долговечной копии выполняет вызывающий (session.Logout),
// чтобы состояние не протекло между идентичностями на общем устройстве.
func (l *Ledger) Reset() {
	l.snap = DefaultSnapshot()
	l.publish(ProgressResetEvent{BaseEvent: l.base(shared.EventProgressReset)})
}

// LoadFromServer полностью перезаписывает состояние снапшотом сервера.
// Локальные поля сервер не отслеживает, поэтому они сохраняются:
// таймер сессии, кэш отображаемого имени, тема, флаг синхронизации
// и отметка LastHeartLoss.
func (l *Ledger) LoadFromServer(remote Snapshot) {
	keepHeartLoss := l.snap.LastHeartLoss

	l.snap = remote.Clone()
	l.snap.Normalize()
	l.snap.LastHeartLoss = keepHeartLoss

	l.publish(ProgressLoadedEvent{BaseEvent: l.base(shared.EventProgressLoaded)})
}

// LoadFromDevice восстанавливает состояние из долговечной локальной копии.
// В отличие от LoadFromServer отметка LastHeartLoss берётся из снапшота:
// локальная копия - единственный носитель часов регенерации.
func (l *Ledger) LoadFromDevice(local Snapshot) {
	l.snap = local.Clone()
	l.snap.Normalize()

	l.publish(ProgressLoadedEvent{BaseEvent: l.base(shared.EventProgressLoaded)})
}

// ─────────────────────────────────────────────────────────────────────────────
// Local-only session state
// ─────────────────────────────────────────────────────────────────────────────

// StartSession запускает локальный таймер сессии.
func (l *Ledger) StartSession() {
	l.sessionStartedAt = l.clock.Now().Unix()
}

// SessionMinutes возвращает длительность текущей сессии в минутах.
func (l *Ledger) SessionMinutes() int {
	if l.sessionStartedAt == 0 {
		return 0
	}
	return int(l.clock.Now().Unix()-l.sessionStartedAt) / 60
}

// SetDisplayName кэширует отображаемое имя (локально, не синхронизируется).
func (l *Ledger) SetDisplayName(name string) { l.displayName = name }

// DisplayName возвращает кэшированное отображаемое имя.
func (l *Ledger) DisplayName() string { return l.displayName }

// SetTheme сохраняет локальное предпочтение темы интерфейса.
func (l *Ledger) SetTheme(theme string) { l.theme = theme }

// Theme возвращает локальное предпочтение темы.
func (l *Ledger) Theme() string { return l.theme }

// SetSyncing выставляет флаг незавершённой синхронизации.
func (l *Ledger) SetSyncing(v bool) { l.syncing = v }

// IsSyncing возвращает флаг незавершённой синхронизации.
func (l *Ledger) IsSyncing() bool { return l.syncing }

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Snapshot возвращает глубокую копию текущего состояния.
func (l *Ledger) Snapshot() Snapshot {
	return l.snap.Clone()
}

// TotalXP возвращает суммарный XP.
func (l *Ledger) TotalXP() int { return l.snap.TotalXP }

// Hearts возвращает текущее количество сердец.
func (l *Ledger) Hearts() int { return l.snap.Hearts }

// Streak возвращает серию дней активности.
func (l *Ledger) Streak() int { return l.snap.Streak }

// QuizStreak возвращает серию подряд пройденных квизов.
func (l *Ledger) QuizStreak() int { return l.snap.QuizStreak }
