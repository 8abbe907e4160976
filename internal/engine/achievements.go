package engine

import (
	"context"
)

// Achievement represents a badge the player can earn.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      bool
}

// AchievementChecker calculates which achievements the player has earned.
type AchievementChecker struct {
	player      PlayerStats
	quests      []Quest
	completions int
	streak      Streak
}

func NewAchievementChecker(player PlayerStats, quests []Quest, completions int, streak Streak) *AchievementChecker {
	return &AchievementChecker{
		player:      player,
		quests:      quests,
		completions: completions,
		streak:      streak,
	}
}

// GetAchievements returns all achievements with their earned status.
func (c *AchievementChecker) GetAchievements() []Achievement {
	return []Achievement{
		c.levelAchievement("first_steps", "First Steps", "Reach level 2", "🌱", 2),
		c.levelAchievement("on_the_path", "On the Path", "Reach level 5", "🌳", 5),
		c.levelAchievement("seasoned", "Seasoned Adventurer", "Reach level 10", "⭐", 10),

		c.completionAchievement("first_check", "First Check", "Complete a quest once", "✓", 1),
		c.completionAchievement("regular", "Regular", "Record 25 completions", "📋", 25),
		c.completionAchievement("devoted", "Devoted", "Record 100 completions", "🏅", 100),

		c.finishedAchievement("quest_done", "Quest Done", "Finish a quest", "🏁", 1, false),
		c.finishedAchievement("questmaster", "Questmaster", "Finish 10 quests", "🏆", 10, false),
		c.finishedAchievement("main_story", "Main Story", "Finish a main quest", "📜", 1, true),

		c.streakAchievement("warming_up", "Warming Up", "Keep a 3 day streak", "🔥", 3),
		c.streakAchievement("unstoppable", "Unstoppable", "Keep a 30 day streak", "⚡", 30),
	}
}

// CountEarned returns how many achievements have been earned.
func (c *AchievementChecker) CountEarned() int {
	count := 0
	for _, a := range c.GetAchievements() {
		if a.Earned {
			count++
		}
	}
	return count
}

func (c *AchievementChecker) levelAchievement(id, name, desc, icon string, level int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.player.Level >= level}
}

func (c *AchievementChecker) completionAchievement(id, name, desc, icon string, count int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.completions >= count}
}

func (c *AchievementChecker) finishedAchievement(id, name, desc, icon string, count int, mainOnly bool) Achievement {
	done := 0
	for _, q := range c.quests {
		if q.IsFinished && (!mainOnly || q.IsMainQuest) {
			done++
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: done >= count}
}

func (c *AchievementChecker) streakAchievement(id, name, desc, icon string, days int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: c.streak.Longest >= days}
}

// Achievements returns a checker loaded with the current player state.
func (s *Service) Achievements(ctx context.Context) (*AchievementChecker, error) {
	return s.achievementChecker(ctx)
}

// CheckAchievements stores and returns achievements earned since the last check.
func (s *Service) CheckAchievements(ctx context.Context) ([]Achievement, error) {
	checker, err := s.achievementChecker(ctx)
	if err != nil {
		return nil, err
	}
	known, err := s.achievements.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	var fresh []Achievement
	for _, a := range checker.GetAchievements() {
		if !a.Earned || known[a.ID] {
			continue
		}
		if err := s.achievements.Insert(ctx, a.ID, s.now()); err != nil {
			return nil, err
		}
		fresh = append(fresh, a)
	}
	return fresh, nil
}

func (s *Service) achievementChecker(ctx context.Context) (*AchievementChecker, error) {
	player, err := s.Player(ctx)
	if err != nil {
		return nil, err
	}
	quests, err := s.FetchAllQuests(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := s.completions.Count(ctx)
	if err != nil {
		return nil, err
	}
	streak, err := s.Streak(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return NewAchievementChecker(player, quests, completions, streak), nil
}
