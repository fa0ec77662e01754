package server

import (
	"fmt"
	"strings"
	"time"

	"whoop-mcp/internal/whoop"
)

// kJPerKcal converts WHOOP's kilojoule energy values to kilocalories.
const kJPerKcal = 4.184

func kjToKcal(kj float64) int {
	return int(kj/kJPerKcal + 0.5)
}

// formatMillis renders a millisecond duration as "7h 32m".
func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 2, 2006")
}

// recoveryEmoji maps a recovery score to WHOOP's green/yellow/red bands.
func recoveryEmoji(score float64) string {
	switch {
	case score >= 67:
		return "🟢"
	case score >= 34:
		return "🟡"
	default:
		return "🔴"
	}
}

func formatProfile(p *whoop.UserProfile) string {
	var b strings.Builder
	b.WriteString("👤 WHOOP Profile\n")
	fmt.Fprintf(&b, "Name: %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "User ID: %d", p.UserID)
	return b.String()
}

func formatBodyMeasurement(m *whoop.BodyMeasurement) string {
	heightCm := m.HeightMeter * 100
	weightLb := m.WeightKilogram * 2.20462

	var b strings.Builder
	b.WriteString("📏 Body Measurements\n")
	fmt.Fprintf(&b, "Height: %.0f cm (%.1f m)\n", heightCm, m.HeightMeter)
	fmt.Fprintf(&b, "Weight: %.1f kg (%.1f lb)\n", m.WeightKilogram, weightLb)
	fmt.Fprintf(&b, "Max heart rate: %d bpm", m.MaxHeartRate)
	return b.String()
}

func formatCycles(col *whoop.Collection[whoop.Cycle]) string {
	if len(col.Records) == 0 {
		return "No cycles found in this range."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔄 Cycles (%d)\n", len(col.Records))
	for _, c := range col.Records {
		fmt.Fprintf(&b, "\n%s", formatDate(c.Start))
		if c.End == nil {
			b.WriteString(" (ongoing)")
		}
		b.WriteString("\n")
		if c.ScoreState != whoop.ScoreStateScored || c.Score == nil {
			fmt.Fprintf(&b, "  Score not available (%s)\n", strings.ToLower(c.ScoreState))
			continue
		}
		fmt.Fprintf(&b, "  💪 Strain: %.1f\n", c.Score.Strain)
		fmt.Fprintf(&b, "  🔥 Calories: %d kcal\n", kjToKcal(c.Score.Kilojoule))
		fmt.Fprintf(&b, "  ❤️ Heart rate: %d avg / %d max bpm\n", c.Score.AverageHeartRate, c.Score.MaxHeartRate)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecovery(r *whoop.Recovery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", formatDate(r.CreatedAt))
	if r.ScoreState != whoop.ScoreStateScored || r.Score == nil {
		fmt.Fprintf(&b, "  Score not available (%s)\n", strings.ToLower(r.ScoreState))
		return b.String()
	}
	fmt.Fprintf(&b, "  %s Recovery: %.0f%%", recoveryEmoji(r.Score.RecoveryScore), r.Score.RecoveryScore)
	if r.Score.UserCalibrating {
		b.WriteString(" (calibrating)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  💓 HRV: %.1f ms\n", r.Score.HRVRmssdMilli)
	fmt.Fprintf(&b, "  ❤️ Resting heart rate: %.0f bpm\n", r.Score.RestingHeartRate)
	if r.Score.Spo2Percentage > 0 {
		fmt.Fprintf(&b, "  🫁 SpO2: %.1f%%\n", r.Score.Spo2Percentage)
	}
	if r.Score.SkinTempCelsius > 0 {
		fmt.Fprintf(&b, "  🌡️ Skin temp: %.1f °C\n", r.Score.SkinTempCelsius)
	}
	return b.String()
}

func formatRecoveries(col *whoop.Collection[whoop.Recovery]) string {
	if len(col.Records) == 0 {
		return "No recoveries found in this range."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💪 Recoveries (%d)\n", len(col.Records))
	for i := range col.Records {
		b.WriteString("\n")
		b.WriteString(formatRecovery(&col.Records[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSleeps(col *whoop.Collection[whoop.Sleep]) string {
	if len(col.Records) == 0 {
		return "No sleep data found in this range."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "😴 Sleep (%d)\n", len(col.Records))
	for _, s := range col.Records {
		fmt.Fprintf(&b, "\n%s", formatDate(s.End))
		if s.Nap {
			b.WriteString(" (nap)")
		}
		b.WriteString("\n")
		if s.ScoreState != whoop.ScoreStateScored || s.Score == nil {
			fmt.Fprintf(&b, "  Score not available (%s)\n", strings.ToLower(s.ScoreState))
			continue
		}
		stages := s.Score.StageSummary
		asleep := stages.TotalLightSleepTimeMilli + stages.TotalSlowWaveSleepTimeMilli + stages.TotalRemSleepTimeMilli
		fmt.Fprintf(&b, "  🛏️ Time asleep: %s (in bed %s)\n", formatMillis(asleep), formatMillis(stages.TotalInBedTimeMilli))
		fmt.Fprintf(&b, "  💤 Stages: light %s, deep %s, REM %s, awake %s\n",
			formatMillis(stages.TotalLightSleepTimeMilli),
			formatMillis(stages.TotalSlowWaveSleepTimeMilli),
			formatMillis(stages.TotalRemSleepTimeMilli),
			formatMillis(stages.TotalAwakeTimeMilli))
		fmt.Fprintf(&b, "  📈 Performance: %.0f%%, efficiency %.0f%%\n",
			s.Score.SleepPerformancePercentage, s.Score.SleepEfficiencyPercentage)
		fmt.Fprintf(&b, "  🫁 Respiratory rate: %.1f\n", s.Score.RespiratoryRate)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatWorkouts(col *whoop.Collection[whoop.Workout]) string {
	if len(col.Records) == 0 {
		return "No workouts found in this range."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏃 Workouts (%d)\n", len(col.Records))
	for _, w := range col.Records {
		name := w.SportName
		if name == "" {
			name = "activity"
		}
		fmt.Fprintf(&b, "\n%s — %s (%s)\n", formatDate(w.Start), name, formatMillis(w.End.Sub(w.Start).Milliseconds()))
		if w.ScoreState != whoop.ScoreStateScored || w.Score == nil {
			fmt.Fprintf(&b, "  Score not available (%s)\n", strings.ToLower(w.ScoreState))
			continue
		}
		fmt.Fprintf(&b, "  💪 Strain: %.1f\n", w.Score.Strain)
		fmt.Fprintf(&b, "  🔥 Calories: %d kcal\n", kjToKcal(w.Score.Kilojoule))
		fmt.Fprintf(&b, "  ❤️ Heart rate: %d avg / %d max bpm\n", w.Score.AverageHeartRate, w.Score.MaxHeartRate)
		if w.Score.DistanceMeter != nil {
			fmt.Fprintf(&b, "  📍 Distance: %.2f km\n", *w.Score.DistanceMeter/1000)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLatestRecovery(r *whoop.Recovery, cycle *whoop.Cycle) string {
	var b strings.Builder
	b.WriteString("📊 Latest Recovery\n\n")
	b.WriteString(formatRecovery(r))
	if cycle != nil && cycle.ScoreState == whoop.ScoreStateScored && cycle.Score != nil {
		fmt.Fprintf(&b, "  💪 Day strain so far: %.1f (%d kcal)\n",
			cycle.Score.Strain, kjToKcal(cycle.Score.Kilojoule))
	}
	return strings.TrimRight(b.String(), "\n")
}
