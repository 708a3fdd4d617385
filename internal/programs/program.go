package programs

import (
	"fmt"
	"time"
)

// Program is a reusable workout template: a weekly schedule of training
// days repeated over a number of weeks. Instantiating a program turns it
// into concrete scheduled workouts.
type Program struct {
	ID        int           `json:"id"`
	UserID    string        `json:"userId"`
	Name      string        `json:"name"`
	Weeks     int           `json:"weeks"`
	Days      []TemplateDay `json:"days"`
	CreatedAt time.Time     `json:"createdAt"`
}

type TemplateDay struct {
	Weekday   time.Weekday       `json:"weekday"`
	Name      string             `json:"name"`
	Exercises []ExerciseTemplate `json:"exercises"`
}

type ExerciseTemplate struct {
	Name        string  `json:"name"`
	Sets        int     `json:"sets"`
	TargetReps  int     `json:"targetReps"`
	TargetKilos float64 `json:"targetKilos"`
	RestSeconds int     `json:"restSeconds"`
}

const maxProgramWeeks = 52

func (p Program) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user id empty")
	}
	if p.Name == "" {
		return fmt.Errorf("program name empty")
	}
	if p.Weeks < 1 || p.Weeks > maxProgramWeeks {
		return fmt.Errorf("weeks out of range: %d", p.Weeks)
	}
	if len(p.Days) == 0 {
		return fmt.Errorf("program has no training days")
	}
	for _, day := range p.Days {
		if day.Weekday < time.Sunday || day.Weekday > time.Saturday {
			return fmt.Errorf("day %q: invalid weekday %d", day.Name, day.Weekday)
		}
		if day.Name == "" {
			return fmt.Errorf("training day name empty")
		}
		for _, exercise := range day.Exercises {
			if exercise.Name == "" {
				return fmt.Errorf("day %q: exercise name empty", day.Name)
			}
			if exercise.Sets < 1 {
				return fmt.Errorf("day %q, exercise %q: sets must be positive", day.Name, exercise.Name)
			}
			if exercise.TargetReps < 0 {
				return fmt.Errorf("day %q, exercise %q: negative target reps", day.Name, exercise.Name)
			}
			if exercise.TargetKilos < 0 {
				return fmt.Errorf("day %q, exercise %q: negative target kilos", day.Name, exercise.Name)
			}
			if exercise.RestSeconds < 0 {
				return fmt.Errorf("day %q, exercise %q: negative rest time", day.Name, exercise.Name)
			}
		}
	}
	return nil
}
