package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger() (*Ledger, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	ledger := NewLedger(nil, clock)
	ledger.BindIdentity("user-1")
	return ledger, clock
}

func TestAddXP_UnlocksThresholdAchievements(t *testing.T) {
	ledger, _ := newTestLedger()

	total := ledger.AddXP(100)

	assert.True(t, ledger.Snapshot().HasAchievement(AchievementXP100))
	// 100 direct + 20 achievement reward
	assert.Equal(t, 120, total)
	assert.Equal(t, 120, ledger.TotalXP())
}

func TestAddXP_IgnoresNonPositiveAmounts(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.AddXP(50)

	assert.Equal(t, 50, ledger.AddXP(0))
	assert.Equal(t, 50, ledger.AddXP(-10))
}

func TestAddXP_RewardCrossingThresholdDefersUnlock(t *testing.T) {
	ledger, _ := newTestLedger()

	// 480 direct XP unlocks xp_100; its reward lifts the total to exactly
	// 500, but thresholds were evaluated against 480, so xp_500 stays
	// locked until the next direct gain.
	ledger.AddXP(480)
	assert.Equal(t, 500, ledger.TotalXP())
	assert.True(t, ledger.Snapshot().HasAchievement(AchievementXP100))
	assert.False(t, ledger.Snapshot().HasAchievement(AchievementXP500))

	ledger.AddXP(1)
	assert.True(t, ledger.Snapshot().HasAchievement(AchievementXP500))
	assert.Equal(t, 551, ledger.TotalXP())
}

func TestUnlockAchievement_IsIdempotent(t *testing.T) {
	ledger, _ := newTestLedger()

	assert.True(t, ledger.UnlockAchievement(AchievementStreak3))
	xpAfterFirst := ledger.TotalXP()
	assert.Equal(t, 30, xpAfterFirst)

	assert.False(t, ledger.UnlockAchievement(AchievementStreak3))
	assert.Equal(t, xpAfterFirst, ledger.TotalXP())
	assert.Len(t, ledger.Snapshot().Achievements, 1)
}

func TestAddSyllabusXP_DoesNotTouchTotal(t *testing.T) {
	ledger, _ := newTestLedger()

	ledger.AddSyllabusXP("syllabus-go", 40)

	assert.Equal(t, 0, ledger.TotalXP())
	assert.Equal(t, 40, ledger.Snapshot().XPBySyllabus["syllabus-go"])
}

func TestLoseHeart_NoOpAtZero(t *testing.T) {
	ledger, _ := newTestLedger()

	for i := 0; i < DefaultMaxHearts; i++ {
		ledger.LoseHeart()
	}
	assert.Equal(t, 0, ledger.Hearts())
	lossAt := ledger.Snapshot().LastHeartLoss

	ledger.LoseHeart()
	assert.Equal(t, 0, ledger.Hearts())
	assert.Equal(t, lossAt, ledger.Snapshot().LastHeartLoss)
}

func TestRestoreHeart_CapsAtMax(t *testing.T) {
	ledger, _ := newTestLedger()

	ledger.RestoreHeart()
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())

	ledger.LoseHeart()
	ledger.RestoreHeart()
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())
	assert.Nil(t, ledger.Snapshot().LastHeartLoss)
}

func TestCheckAndRestoreHearts_LazyRegeneration(t *testing.T) {
	ledger, clock := newTestLedger()

	ledger.LoseHeart()
	ledger.LoseHeart()
	assert.Equal(t, 3, ledger.Hearts())

	// 35 minutes: one full interval elapsed, the 5-minute remainder is
	// discarded when the clock resets.
	clock.advance(35 * time.Minute)
	assert.Equal(t, 1, ledger.CheckAndRestoreHearts())
	assert.Equal(t, 4, ledger.Hearts())
	assert.NotNil(t, ledger.Snapshot().LastHeartLoss)

	clock.advance(25 * time.Minute)
	assert.Equal(t, 0, ledger.CheckAndRestoreHearts())

	clock.advance(5 * time.Minute)
	assert.Equal(t, 1, ledger.CheckAndRestoreHearts())
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())
	assert.Nil(t, ledger.Snapshot().LastHeartLoss)
}

func TestCheckAndRestoreHearts_MultipleIntervals(t *testing.T) {
	ledger, clock := newTestLedger()

	for i := 0; i < 4; i++ {
		ledger.LoseHeart()
	}
	assert.Equal(t, 1, ledger.Hearts())

	clock.advance(65 * time.Minute)
	assert.Equal(t, 2, ledger.CheckAndRestoreHearts())
	assert.Equal(t, 3, ledger.Hearts())
}

func TestCheckAndRestoreHearts_NoLossRecorded(t *testing.T) {
	ledger, clock := newTestLedger()

	clock.advance(2 * time.Hour)
	assert.Equal(t, 0, ledger.CheckAndRestoreHearts())
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())
}

func TestExchangeXPForHeart_RequiresMissingHeart(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.AddXP(150)

	assert.False(t, ledger.ExchangeXPForHeart())
	assert.Equal(t, 170, ledger.TotalXP()) // 150 + xp_100 reward
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())
}

func TestExchangeXPForHeart_RequiresEnoughXP(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.AddXP(50)
	ledger.LoseHeart()

	assert.False(t, ledger.ExchangeXPForHeart())
	assert.Equal(t, 50, ledger.TotalXP())
	assert.Equal(t, 4, ledger.Hearts())
}

func TestExchangeXPForHeart_DeductsAndRestores(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.AddXP(150) // 170 with the xp_100 reward
	ledger.LoseHeart()
	ledger.LoseHeart()

	assert.True(t, ledger.ExchangeXPForHeart())
	assert.Equal(t, 70, ledger.TotalXP())
	assert.Equal(t, 4, ledger.Hearts())
}

func TestUpdateStreak_SameDayIsNoOp(t *testing.T) {
	ledger, _ := newTestLedger()

	assert.Equal(t, 1, ledger.UpdateStreak())
	assert.Equal(t, 1, ledger.UpdateStreak())
	assert.Equal(t, 1, ledger.Streak())
}

func TestUpdateStreak_ConsecutiveDaysExtend(t *testing.T) {
	ledger, clock := newTestLedger()

	ledger.UpdateStreak()
	clock.advance(24 * time.Hour)
	assert.Equal(t, 2, ledger.UpdateStreak())
	clock.advance(24 * time.Hour)
	assert.Equal(t, 3, ledger.UpdateStreak())
	assert.True(t, ledger.Snapshot().HasAchievement(AchievementStreak3))
}

func TestUpdateStreak_GapResetsToOne(t *testing.T) {
	ledger, clock := newTestLedger()

	ledger.UpdateStreak()
	clock.advance(24 * time.Hour)
	ledger.UpdateStreak()

	clock.advance(48 * time.Hour)
	assert.Equal(t, 1, ledger.UpdateStreak())
}

func TestRecordFirstQuizPass_GatesOncePerQuiz(t *testing.T) {
	ledger, _ := newTestLedger()

	assert.True(t, ledger.RecordFirstQuizPass("quiz-1"))
	assert.False(t, ledger.RecordFirstQuizPass("quiz-1"))
	assert.True(t, ledger.RecordFirstQuizPass("quiz-2"))
	assert.False(t, ledger.RecordFirstQuizPass(""))
}

func TestRecordQuizPassAndFail_TrackQuizStreak(t *testing.T) {
	ledger, _ := newTestLedger()

	ledger.RecordQuizPass()
	ledger.RecordQuizPass()
	assert.Equal(t, 2, ledger.QuizStreak())
	assert.Equal(t, 2, ledger.Snapshot().QuizzesPassed)

	ledger.RecordQuizFail()
	assert.Equal(t, 0, ledger.QuizStreak())
	assert.Equal(t, 2, ledger.Snapshot().QuizzesPassed)
}

func TestCompleteChapter_AlwaysRestoresHeart(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.LoseHeart()
	ledger.LoseHeart()

	ledger.CompleteChapter("ch-1")
	assert.Equal(t, 4, ledger.Hearts())
	assert.Len(t, ledger.Snapshot().ChaptersCompleted, 1)

	// Repeat completion: no new chapter entry, but the heart bonus still
	// applies.
	ledger.CompleteChapter("ch-1")
	assert.Equal(t, DefaultMaxHearts, ledger.Hearts())
	assert.Len(t, ledger.Snapshot().ChaptersCompleted, 1)
}

func TestCompleteCourse_Milestones(t *testing.T) {
	ledger, _ := newTestLedger()

	assert.True(t, ledger.CompleteCourse("course-1", 3))
	assert.True(t, ledger.Snapshot().HasAchievement(AchievementFirstCourse))

	assert.False(t, ledger.CompleteCourse("course-1", 3))

	ledger.CompleteCourse("course-2", 3)
	ledger.CompleteCourse("course-3", 3)
	snap := ledger.Snapshot()
	assert.True(t, snap.HasAchievement(AchievementCourses3))
	assert.True(t, snap.HasAchievement(AchievementAllCourses))
}

func TestCompleteCourse_UnknownCatalogSizeSkipsAllCourses(t *testing.T) {
	ledger, _ := newTestLedger()

	ledger.CompleteCourse("course-1", 0)
	assert.False(t, ledger.Snapshot().HasAchievement(AchievementAllCourses))
}

func TestClaimDailyLoginReward_OncePerDay(t *testing.T) {
	ledger, clock := newTestLedger()

	xp, ok := ledger.ClaimDailyLoginReward()
	assert.True(t, ok)
	assert.Equal(t, DailyRewardBaseXP, xp)

	xp, ok = ledger.ClaimDailyLoginReward()
	assert.False(t, ok)
	assert.Equal(t, 0, xp)

	// Next day: the streak grows to 2, the bonus kicks in.
	clock.advance(24 * time.Hour)
	xp, ok = ledger.ClaimDailyLoginReward()
	assert.True(t, ok)
	assert.Equal(t, DailyRewardBaseXP+DailyRewardStreakBonus*2, xp)
}

func TestClaimFirstLoginReward_OncePerIdentity(t *testing.T) {
	ledger, _ := newTestLedger()

	xp, ok := ledger.ClaimFirstLoginReward()
	assert.True(t, ok)
	assert.Equal(t, FirstLoginRewardXP, xp)
	assert.Equal(t, FirstLoginRewardXP, ledger.TotalXP())

	xp, ok = ledger.ClaimFirstLoginReward()
	assert.False(t, ok)
	assert.Equal(t, 0, xp)
}

func TestLoadFromServer_PreservesLocalFields(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.SetDisplayName("alice")
	ledger.SetTheme("dark")
	ledger.LoseHeart()
	lossAt := ledger.Snapshot().LastHeartLoss
	assert.NotNil(t, lossAt)

	remote := DefaultSnapshot()
	remote.TotalXP = 900
	remote.Hearts = 2
	ledger.LoadFromServer(remote)

	assert.Equal(t, 900, ledger.TotalXP())
	assert.Equal(t, 2, ledger.Hearts())
	assert.Equal(t, "alice", ledger.DisplayName())
	assert.Equal(t, "dark", ledger.Theme())
	assert.Equal(t, lossAt, ledger.Snapshot().LastHeartLoss)
}

func TestLoadFromDevice_KeepsHeartLossClock(t *testing.T) {
	ledger, clock := newTestLedger()

	lossAt := clock.Now().Add(-40 * time.Minute)
	local := DefaultSnapshot()
	local.Hearts = 2
	local.LastHeartLoss = &lossAt
	ledger.LoadFromDevice(local)

	assert.Equal(t, 1, ledger.CheckAndRestoreHearts())
	assert.Equal(t, 3, ledger.Hearts())
}

func TestReset_ReturnsToDefaults(t *testing.T) {
	ledger, _ := newTestLedger()
	ledger.AddXP(250)
	ledger.LoseHeart()
	ledger.UpdateStreak()

	ledger.Reset()

	snap := ledger.Snapshot()
	assert.Equal(t, 0, snap.TotalXP)
	assert.Equal(t, DefaultMaxHearts, snap.Hearts)
	assert.Equal(t, 0, snap.Streak)
	assert.Empty(t, snap.Achievements)
}

func TestLearnWord_DeduplicatesWords(t *testing.T) {
	ledger, _ := newTestLedger()

	assert.True(t, ledger.LearnWord("ubiquitous"))
	assert.False(t, ledger.LearnWord("ubiquitous"))
	assert.False(t, ledger.LearnWord(""))
	assert.Len(t, ledger.Snapshot().WordsLearned, 1)
}

func TestSessionMinutes(t *testing.T) {
	ledger, clock := newTestLedger()
	assert.Equal(t, 0, ledger.SessionMinutes())

	ledger.StartSession()
	clock.advance(7*time.Minute + 30*time.Second)
	assert.Equal(t, 7, ledger.SessionMinutes())
}

func TestEventsCarryIdentity(t *testing.T) {
	var events []shared.Event
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	ledger := NewLedger(collectorFor(&events), clock)
	ledger.BindIdentity("user-9")

	ledger.AddXP(10)

	assert.NotEmpty(t, events)
	assert.Equal(t, "user-9", events[0].AggregateID())
	assert.Equal(t, shared.EventXPGained, events[0].EventType())
}

type collector func(shared.Event) error

func (c collector) Publish(e shared.Event) error { return c(e) }

func collectorFor(events *[]shared.Event) collector {
	return func(e shared.Event) error {
		*events = append(*events, e)
		return nil
	}
}
