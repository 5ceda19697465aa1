package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewGeneration BookmarkType = "new_generation"
	BookmarkBirthBoom     BookmarkType = "birth_boom"
	BookmarkWoolBoom      BookmarkType = "wool_boom"
	BookmarkHerdCrash     BookmarkType = "herd_crash"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Day         float64      `csv:"day"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"day", b.Day,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the herd's history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	maxGeneration float64
	herdPeak      int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkNewGeneration(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkBoom(stats, BookmarkBirthBoom, "Offspring", func(s WindowStats) int { return s.Offspring }, 3); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkBoom(stats, BookmarkWoolBoom, "Wool harvested", func(s WindowStats) int { return s.WoolHarvested }, 10); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkHerdCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.GenerationMax > bd.maxGeneration {
		bd.maxGeneration = stats.GenerationMax
	}
	if stats.Creatures > bd.herdPeak {
		bd.herdPeak = stats.Creatures
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewGeneration(stats WindowStats) *Bookmark {
	if stats.GenerationMax <= bd.maxGeneration {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNewGeneration,
		Day:         stats.Day,
		Description: fmt.Sprintf("Generation %.0f reached (previous best %.0f)", stats.GenerationMax, bd.maxGeneration),
	}
}

// checkBoom fires when field(stats) is more than twice the rolling average
// and at least floor.
func (bd *BookmarkDetector) checkBoom(stats WindowStats, kind BookmarkType, label string, field func(WindowStats) int, floor int) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += field(h)
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	current := field(stats)
	if float64(current) > avg*2.0 && current >= floor {
		return &Bookmark{
			Type:        kind,
			Day:         stats.Day,
			Description: fmt.Sprintf("%s %d is %.1fx average (%.1f)", label, current, float64(current)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkHerdCrash(stats WindowStats) *Bookmark {
	if bd.herdPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Creatures)/float64(bd.herdPeak)
	if dropPercent > 0.30 && stats.Creatures <= bd.herdPeak-5 {
		// Reset peak after crash
		oldPeak := bd.herdPeak
		bd.herdPeak = stats.Creatures

		return &Bookmark{
			Type:        BookmarkHerdCrash,
			Day:         stats.Day,
			Description: fmt.Sprintf("Herd crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Creatures),
		}
	}
	return nil
}
