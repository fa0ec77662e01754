package server

import (
	"strings"
	"testing"
	"time"

	"whoop-mcp/internal/whoop"
)

func TestKjToKcal(t *testing.T) {
	tests := []struct {
		name string
		kj   float64
		want int
	}{
		{"zero", 0, 0},
		{"one kcal", 4.184, 1},
		{"typical workout", 2092, 500},
		{"rounds up", 6.3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kjToKcal(tt.kj); got != tt.want {
				t.Errorf("kjToKcal(%v) = %d, want %d", tt.kj, got, tt.want)
			}
		})
	}
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "0m"},
		{"minutes only", 45 * 60 * 1000, "45m"},
		{"hours and minutes", 7*3600*1000 + 32*60*1000, "7h 32m"},
		{"exact hours", 8 * 3600 * 1000, "8h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMillis(tt.ms); got != tt.want {
				t.Errorf("formatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestRecoveryEmojiBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{90, "🟢"},
		{67, "🟢"},
		{66, "🟡"},
		{34, "🟡"},
		{33, "🔴"},
		{0, "🔴"},
	}

	for _, tt := range tests {
		if got := recoveryEmoji(tt.score); got != tt.want {
			t.Errorf("recoveryEmoji(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestFormatRecoveriesScored(t *testing.T) {
	col := &whoop.Collection[whoop.Recovery]{
		Records: []whoop.Recovery{
			{
				CycleID:    1,
				CreatedAt:  time.Date(2026, 8, 22, 6, 0, 0, 0, time.UTC),
				ScoreState: whoop.ScoreStateScored,
				Score: &whoop.RecoveryScore{
					RecoveryScore:    71,
					RestingHeartRate: 52,
					HRVRmssdMilli:    64.5,
				},
			},
		},
	}

	out := formatRecoveries(col)
	for _, want := range []string{"🟢 Recovery: 71%", "HRV: 64.5 ms", "Resting heart rate: 52 bpm"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatRecoveries output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRecoveriesPending(t *testing.T) {
	col := &whoop.Collection[whoop.Recovery]{
		Records: []whoop.Recovery{
			{CycleID: 1, CreatedAt: time.Now(), ScoreState: "PENDING_SCORE"},
		},
	}

	out := formatRecoveries(col)
	if !strings.Contains(out, "Score not available (pending_score)") {
		t.Errorf("expected pending-score notice, got:\n%s", out)
	}
}

func TestFormatRecoveriesEmpty(t *testing.T) {
	out := formatRecoveries(&whoop.Collection[whoop.Recovery]{})
	if out != "No recoveries found in this range." {
		t.Errorf("unexpected empty-range output: %q", out)
	}
}

func TestFormatSleepsStages(t *testing.T) {
	col := &whoop.Collection[whoop.Sleep]{
		Records: []whoop.Sleep{
			{
				End:        time.Date(2026, 8, 22, 7, 0, 0, 0, time.UTC),
				ScoreState: whoop.ScoreStateScored,
				Score: &whoop.SleepScore{
					StageSummary: whoop.SleepStageSummary{
						TotalInBedTimeMilli:         8 * 3600 * 1000,
						TotalAwakeTimeMilli:         30 * 60 * 1000,
						TotalLightSleepTimeMilli:    4 * 3600 * 1000,
						TotalSlowWaveSleepTimeMilli: 90 * 60 * 1000,
						TotalRemSleepTimeMilli:      2 * 3600 * 1000,
					},
					SleepPerformancePercentage: 88,
					SleepEfficiencyPercentage:  93,
					RespiratoryRate:            14.2,
				},
			},
		},
	}

	out := formatSleeps(col)
	// 4h light + 1h30m deep + 2h REM
	for _, want := range []string{"Time asleep: 7h 30m (in bed 8h 0m)", "Performance: 88%", "deep 1h 30m"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatSleeps output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatWorkoutDistance(t *testing.T) {
	distance := 10550.0
	col := &whoop.Collection[whoop.Workout]{
		Records: []whoop.Workout{
			{
				Start:      time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC),
				End:        time.Date(2026, 8, 21, 19, 0, 0, 0, time.UTC),
				SportName:  "running",
				ScoreState: whoop.ScoreStateScored,
				Score: &whoop.WorkoutScore{
					Strain:        12.4,
					Kilojoule:     2092,
					DistanceMeter: &distance,
				},
			},
		},
	}

	out := formatWorkouts(col)
	for _, want := range []string{"running (1h 0m)", "Strain: 12.4", "Calories: 500 kcal", "Distance: 10.55 km"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatWorkouts output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBodyMeasurementConversions(t *testing.T) {
	out := formatBodyMeasurement(&whoop.BodyMeasurement{
		HeightMeter:    1.80,
		WeightKilogram: 75,
		MaxHeartRate:   195,
	})

	for _, want := range []string{"180 cm", "75.0 kg (165.3 lb)", "195 bpm"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatBodyMeasurement output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatLatestRecoveryWithCycleContext(t *testing.T) {
	rec := &whoop.Recovery{
		CycleID:    7,
		CreatedAt:  time.Date(2026, 8, 23, 6, 0, 0, 0, time.UTC),
		ScoreState: whoop.ScoreStateScored,
		Score:      &whoop.RecoveryScore{RecoveryScore: 45},
	}
	cycle := &whoop.Cycle{
		ID:         7,
		ScoreState: whoop.ScoreStateScored,
		Score:      &whoop.CycleScore{Strain: 9.1, Kilojoule: 4184},
	}

	out := formatLatestRecovery(rec, cycle)
	for _, want := range []string{"🟡 Recovery: 45%", "Day strain so far: 9.1 (1000 kcal)"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatLatestRecovery output missing %q:\n%s", want, out)
		}
	}
}
