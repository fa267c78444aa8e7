package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
)

type CalendarService interface {
	Range(ctx context.Context, userID int64, start, end time.Time) ([]transfer.CalendarDay, error)
}

type calendarService struct {
	posts repository.PostRepository
}

func NewCalendarService(posts repository.PostRepository) CalendarService {
	return &calendarService{posts: posts}
}

// Range groups the user's posts between start and end (both inclusive) by
// day. Published posts land on their actual publish day, everything else on
// its scheduled day. Days without posts are omitted.
func (s *calendarService) Range(ctx context.Context, userID int64, start, end time.Time) ([]transfer.CalendarDay, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end precedes start", ErrInvalidInput)
	}

	posts, err := s.posts.ListByTimeRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar posts: %w", err)
	}

	var days []transfer.CalendarDay
	index := make(map[string]int)
	for _, post := range posts {
		effective := post.ScheduledTime
		if post.PublishedTime.Valid {
			effective = post.PublishedTime.Time
		}
		date := effective.Format("2006-01-02")

		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, transfer.CalendarDay{Date: date})
		}
		days[i].Posts = append(days[i].Posts, post)
	}
	return days, nil
}
